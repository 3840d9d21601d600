package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/stsysd/gantt/model"
)

// MigrationFunc はスキーマを最新にする関数です。
type MigrationFunc func(conn *sql.DB) error

// SQLiteStore はSQLiteを使用したStoreの実装です。
type SQLiteStore struct {
	db   *sqlx.DB
	path string
}

type resourceRow struct {
	Position int    `db:"position"`
	Name     string `db:"name"`
}

type datesRow struct {
	StartDate string `db:"start_date"`
	EndDate   string `db:"end_date"`
}

type orderRow struct {
	Position    int    `db:"position"`
	OrderCode   string `db:"order_code"`
	DisplayInfo string `db:"display_info"`
	Resource    string `db:"resource"`
	StartTime   string `db:"starttime"`
	EndTime     string `db:"endtime"`
	Color       string `db:"color"`
}

// NewSQLiteStore は新しいSQLiteStoreを作成します。
func NewSQLiteStore(dbPath string, migrate MigrationFunc) (*SQLiteStore, error) {
	// データディレクトリの作成（存在しない場合）
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	conn, err := sqlx.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite database: %w", err)
	}
	// 書き込みを1接続に直列化
	conn.SetMaxOpenConns(1)

	if err := migrate(conn.DB); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize database tables: %w", err)
	}

	return &SQLiteStore{db: conn, path: dbPath}, nil
}

// Backend はバックエンド名を返します。
func (s *SQLiteStore) Backend() string { return "sqlite" }

// Path はデータベースファイルのパスを返します。
func (s *SQLiteStore) Path() string { return s.path }

// Close はデータベース接続を閉じます。
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load はデータセットを読み込みます。
func (s *SQLiteStore) Load(ctx context.Context) (*model.Dataset, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ds := model.NewDataset()

	var resources []resourceRow
	if err := tx.SelectContext(ctx, &resources, `SELECT position, name FROM resources ORDER BY position`); err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	for _, r := range resources {
		ds.Resources = append(ds.Resources, r.Name)
	}

	var dates datesRow
	err = tx.GetContext(ctx, &dates, `SELECT start_date, end_date FROM project_dates WHERE id = 1`)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("failed to get project dates: %w", err)
	default:
		start, err := model.ParseDate(dates.StartDate)
		if err != nil {
			return nil, fmt.Errorf("invalid project start date: %w", err)
		}
		end, err := model.ParseDate(dates.EndDate)
		if err != nil {
			return nil, fmt.Errorf("invalid project end date: %w", err)
		}
		if !start.IsZero() && !end.IsZero() {
			ds.Dates = model.DateRange{Start: start, End: end}
		}
	}

	var orders []orderRow
	if err := tx.SelectContext(ctx, &orders, `
		SELECT position, order_code, display_info, resource, starttime, endtime, color
		FROM orders ORDER BY position`); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	for _, r := range orders {
		start, err := model.ParseDate(r.StartTime)
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", r.OrderCode, err)
		}
		end, err := model.ParseDate(r.EndTime)
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", r.OrderCode, err)
		}
		ds.Orders = append(ds.Orders, model.Order{
			OrderCode:   r.OrderCode,
			DisplayInfo: r.DisplayInfo,
			Resource:    r.Resource,
			StartTime:   start,
			EndTime:     end,
			Color:       r.Color,
		})
	}

	ds.Normalize()
	return ds, nil
}

// Save はデータセット全体を1つのトランザクションで置き換えます。
func (s *SQLiteStore) Save(ctx context.Context, ds *model.Dataset) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"resources", "project_dates", "orders"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for i, name := range ds.Resources {
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO resources (position, name) VALUES (:position, :name)`,
			resourceRow{Position: i, Name: name}); err != nil {
			return fmt.Errorf("failed to insert resource %s: %w", name, err)
		}
	}

	if !ds.Dates.IsZero() {
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO project_dates (id, start_date, end_date) VALUES (1, :start_date, :end_date)`,
			datesRow{StartDate: ds.Dates.Start.String(), EndDate: ds.Dates.End.String()}); err != nil {
			return fmt.Errorf("failed to insert project dates: %w", err)
		}
	}

	for i, o := range ds.Orders {
		row := orderRow{
			Position:    i,
			OrderCode:   o.OrderCode,
			DisplayInfo: o.DisplayInfo,
			Resource:    o.Resource,
			StartTime:   o.StartTime.String(),
			EndTime:     o.EndTime.String(),
			Color:       o.Color,
		}
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO orders (position, order_code, display_info, resource, starttime, endtime, color)
			VALUES (:position, :order_code, :display_info, :resource, :starttime, :endtime, :color)`, row); err != nil {
			return fmt.Errorf("failed to insert order %s: %w", o.OrderCode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
