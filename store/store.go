// Package store は、データセットの永続化機能を提供します。
package store

import (
	"context"
	"fmt"

	"github.com/stsysd/gantt/config"
	"github.com/stsysd/gantt/db"
	"github.com/stsysd/gantt/model"
)

// Store はデータセット全体を読み書きするインターフェースです。
// 保存は常に全体の置き換えで、部分更新はAPI層がLoad→変更→Saveで行います。
type Store interface {
	// Load は保存されているデータセットを読み込みます。未保存なら空のデータセットを返します。
	Load(ctx context.Context) (*model.Dataset, error)
	// Save はデータセット全体を保存します。
	Save(ctx context.Context, ds *model.Dataset) error
	// Backend はバックエンド名（csv / sqlite）を返します。
	Backend() string
	// Close はストアを閉じます。
	Close() error
}

// Open は設定に応じたストアを開きます。
func Open(cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "", "csv":
		return NewCSVStore(cfg.DataDir)
	case "sqlite":
		return NewSQLiteStore(cfg.SQLitePath(), db.Migrate)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Backend)
	}
}

// Copy はsrcのデータセットをdstに保存し、コピーしたデータセットを返します。
func Copy(ctx context.Context, dst, src Store) (*model.Dataset, error) {
	ds, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load from %s: %w", src.Backend(), err)
	}
	if err := dst.Save(ctx, ds); err != nil {
		return nil, fmt.Errorf("failed to save to %s: %w", dst.Backend(), err)
	}
	return ds, nil
}
