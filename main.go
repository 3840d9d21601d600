// Package main はアプリケーションのエントリーポイントを提供します。
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stsysd/gantt/api"
	"github.com/stsysd/gantt/config"
	"github.com/stsysd/gantt/logger"
	"github.com/stsysd/gantt/store"
)

// version はビルド時に -ldflags で上書きされます。
var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// rootOptions はすべてのサブコマンドで共通のフラグです。
type rootOptions struct {
	configFile string
	dataDir    string
	backend    string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "gantt",
		Short:        "Resource × date Gantt chart server",
		Long:         "Serve, render and convert a Gantt chart stored as CSV files or SQLite",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (yaml, json or toml)")
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "data directory (overrides config)")
	root.PersistentFlags().StringVar(&opts.backend, "backend", "", "store backend: csv or sqlite (overrides config)")

	root.AddCommand(
		newServeCommand(opts),
		newRenderCommand(opts),
		newMigrateCommand(opts),
		newConvertCommand(opts),
		newVersionCommand(),
	)
	return root
}

// load は設定を読み込み、フラグの値で上書きします。
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, err
	}
	if o.dataDir != "" {
		cfg.Store.DataDir = o.dataDir
	}
	if o.backend != "" {
		cfg.Store.Backend = o.backend
	}
	return cfg, nil
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			return runServer(cmd.Context(), cfg)
		},
	}
}

func runServer(ctx context.Context, cfg *config.Config) error {
	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	// ストアの初期化（SQLiteの場合はマイグレーションも実行）
	st, err := store.Open(cfg.Store)
	if err != nil {
		appLogger.WithError(err).Error("Failed to initialize store")
		return err
	}
	defer st.Close()

	// サーバーインスタンスの作成
	server := api.NewServer(st, cfg, appLogger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// サーバーの起動
	if err := server.Run(ctx); err != nil {
		appLogger.WithError(err).Error("Server stopped with error")
		return err
	}
	appLogger.Info("Server stopped")
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gantt %s\n", version)
		},
	}
}
