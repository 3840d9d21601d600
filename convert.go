package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stsysd/gantt/store"
)

func newConvertCommand(opts *rootOptions) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Copy the dataset to another backend",
		Long:  "Copy the dataset from the configured backend to another backend in the same data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if to == cfg.Store.Backend {
				return fmt.Errorf("source and destination backend are both %s", to)
			}

			src, err := store.Open(cfg.Store)
			if err != nil {
				return err
			}
			defer src.Close()

			dstCfg := cfg.Store
			dstCfg.Backend = to
			dst, err := store.Open(dstCfg)
			if err != nil {
				return err
			}
			defer dst.Close()

			ds, err := store.Copy(cmd.Context(), dst, src)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "copied %d resources and %d orders from %s to %s\n",
				len(ds.Resources), len(ds.Orders), src.Backend(), dst.Backend())
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "sqlite", "destination backend: csv or sqlite")
	return cmd
}
