package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/stsysd/gantt/chart"
	"github.com/stsysd/gantt/store"
)

func newRenderCommand(opts *rootOptions) *cobra.Command {
	var (
		output string
		theme  string
		title  string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the chart as SVG",
		Long:  "Render the stored chart as an SVG document to a file or stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			st, err := store.Open(cfg.Store)
			if err != nil {
				return err
			}
			defer st.Close()

			ds, err := st.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load dataset: %w", err)
			}

			chartOpts := chart.DefaultOptions()
			chartOpts.Theme = chart.ParseTheme(cfg.Chart.Theme)
			if cmd.Flags().Changed("theme") {
				chartOpts.Theme = chart.ParseTheme(theme)
			}
			chartOpts.Title = cfg.Chart.Title
			if cmd.Flags().Changed("title") {
				chartOpts.Title = title
			}
			svg := chart.GenerateGanttSVG(ds, chartOpts)

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			if _, err := io.WriteString(w, svg); err != nil {
				return fmt.Errorf("failed to write SVG: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&theme, "theme", "light", "colour theme: light or dark")
	cmd.Flags().StringVar(&title, "title", "", "title drawn above the chart")
	return cmd
}
