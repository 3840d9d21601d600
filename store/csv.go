package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/stsysd/gantt/model"
)

// CSVファイル名とヘッダー
const (
	ResourceFile = "resource.csv"
	DatesFile    = "dates.csv"
	OrdersFile   = "orders.csv"
)

var (
	resourceHeader = []string{"resource"}
	datesHeader    = []string{"start_date", "end_date"}
	ordersHeader   = []string{"OrderCode", "starttime", "endtime", "display_info", "resource", "color"}
)

// CSVStore はデータディレクトリ内の3つのCSVファイルにデータセットを保存します。
type CSVStore struct {
	dir string
	mu  sync.Mutex
}

// NewCSVStore は新しいCSVStoreを作成します。
func NewCSVStore(dataDir string) (*CSVStore, error) {
	// データディレクトリの作成（存在しない場合）
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &CSVStore{dir: dataDir}, nil
}

// Backend はバックエンド名を返します。
func (s *CSVStore) Backend() string { return "csv" }

// Dir はデータディレクトリを返します。
func (s *CSVStore) Dir() string { return s.dir }

// Close は何もしません。
func (s *CSVStore) Close() error { return nil }

// Load は3つのCSVファイルを読み込みます。存在しないファイルは空として扱います。
func (s *CSVStore) Load(ctx context.Context) (*model.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds := model.NewDataset()

	resources, err := s.readTable(ResourceFile)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, row := range resources.rows {
		name := resources.get(row, "resource")
		if name == "" || ds.HasResource(name) {
			continue
		}
		ds.Resources = append(ds.Resources, name)
	}

	dates, err := s.readTable(DatesFile)
	if err != nil {
		return nil, err
	}
	if len(dates.rows) > 0 {
		row := dates.rows[0]
		start, err := model.ParseDate(dates.get(row, "start_date"))
		if err != nil {
			return nil, fmt.Errorf("%s line 2: %w", DatesFile, err)
		}
		end, err := model.ParseDate(dates.get(row, "end_date"))
		if err != nil {
			return nil, fmt.Errorf("%s line 2: %w", DatesFile, err)
		}
		// 片方だけの場合は未設定扱い
		if !start.IsZero() && !end.IsZero() {
			ds.Dates = model.DateRange{Start: start, End: end}
		}
	}

	orders, err := s.readTable(OrdersFile)
	if err != nil {
		return nil, err
	}
	for i, row := range orders.rows {
		o, err := orders.order(row)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", OrdersFile, i+2, err)
		}
		ds.Orders = append(ds.Orders, o)
	}

	ds.Normalize()
	return ds, nil
}

// Save はデータセットを3つのCSVファイルに書き込みます。
// 各ファイルは一時ファイルに書いてからリネームするため、途中で失敗しても壊れません。
func (s *CSVStore) Save(ctx context.Context, ds *model.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	resourceRows := make([][]string, 0, len(ds.Resources))
	for _, r := range ds.Resources {
		resourceRows = append(resourceRows, []string{r})
	}

	datesRows := [][]string{}
	if !ds.Dates.IsZero() {
		datesRows = append(datesRows, []string{ds.Dates.Start.String(), ds.Dates.End.String()})
	}

	orderRows := make([][]string, 0, len(ds.Orders))
	for _, o := range ds.Orders {
		orderRows = append(orderRows, []string{
			o.OrderCode,
			o.StartTime.String(),
			o.EndTime.String(),
			o.DisplayInfo,
			o.Resource,
			o.Color,
		})
	}

	files := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{ResourceFile, resourceHeader, resourceRows},
		{DatesFile, datesHeader, datesRows},
		{OrdersFile, ordersHeader, orderRows},
	}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.writeTable(f.name, f.header, f.rows); err != nil {
			return err
		}
	}
	return nil
}

// table はヘッダー名で列を引けるCSVの内容です。
type table struct {
	columns map[string]int
	rows    [][]string
}

func (t *table) get(row []string, column string) string {
	idx, ok := t.columns[strings.ToLower(column)]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func (t *table) order(row []string) (model.Order, error) {
	start, err := model.ParseDate(t.get(row, "starttime"))
	if err != nil {
		return model.Order{}, err
	}
	end, err := model.ParseDate(t.get(row, "endtime"))
	if err != nil {
		return model.Order{}, err
	}
	return model.Order{
		OrderCode:   t.get(row, "OrderCode"),
		DisplayInfo: t.get(row, "display_info"),
		Resource:    t.get(row, "resource"),
		StartTime:   start,
		EndTime:     end,
		Color:       t.get(row, "color"),
	}, nil
}

func (s *CSVStore) readTable(name string) (*table, error) {
	f, err := os.Open(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return &table{columns: map[string]int{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	t := &table{columns: map[string]int{}}
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := t.columns[h]; !dup {
			t.columns[h] = i
		}
	}

	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if blankRow(row) {
			continue
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func (s *CSVStore) writeTable(name string, header []string, rows [][]string) error {
	tmp, err := os.CreateTemp(s.dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod temp file for %s: %w", name, err)
	}
	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}
