package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stsysd/gantt/model"
)

func sampleDataset() *model.Dataset {
	return &model.Dataset{
		Resources: []string{"Lathe-1", "Mill, 2"},
		Dates: model.DateRange{
			Start: model.MustParseDate("2025-03-01"),
			End:   model.MustParseDate("2025-03-10"),
		},
		Orders: []model.Order{
			{
				OrderCode:   "A100",
				DisplayInfo: `Shaft "rev B"`,
				Resource:    "Lathe-1",
				StartTime:   model.MustParseDate("2025-03-02"),
				EndTime:     model.MustParseDate("2025-03-04"),
				Color:       "rgb(16, 185, 129)",
			},
			{
				OrderCode:   "B200",
				DisplayInfo: "Housing",
				Resource:    "Retired",
				StartTime:   model.MustParseDate("2025-03-05"),
				EndTime:     model.MustParseDate("2025-03-05"),
				Color:       "#123456",
			},
		},
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestCSVStoreLoadMissingFiles(t *testing.T) {
	s, err := NewCSVStore(filepath.Join(t.TempDir(), "nested", "data"))
	require.NoError(t, err)

	ds, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ds.Resources)
	assert.Empty(t, ds.Orders)
	assert.True(t, ds.Dates.IsZero())
	assert.NotNil(t, ds.Resources)
	assert.NotNil(t, ds.Orders)
}

func TestCSVStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewCSVStore(t.TempDir())
	require.NoError(t, err)

	want := sampleDataset()
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want.Resources, got.Resources)
	assert.Equal(t, want.Dates, got.Dates)
	assert.Equal(t, want.Orders, got.Orders)

	// 一時ファイルが残っていないこと
	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestCSVStoreFileFormat(t *testing.T) {
	s, err := NewCSVStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), sampleDataset()))

	resources, err := os.ReadFile(filepath.Join(s.Dir(), ResourceFile))
	require.NoError(t, err)
	assert.Equal(t, "resource\nLathe-1\n\"Mill, 2\"\n", string(resources))

	dates, err := os.ReadFile(filepath.Join(s.Dir(), DatesFile))
	require.NoError(t, err)
	assert.Equal(t, "start_date,end_date\n2025-03-01,2025-03-10\n", string(dates))

	orders, err := os.ReadFile(filepath.Join(s.Dir(), OrdersFile))
	require.NoError(t, err)
	assert.Equal(t,
		"OrderCode,starttime,endtime,display_info,resource,color\n"+
			"A100,2025-03-02,2025-03-04,\"Shaft \"\"rev B\"\"\",Lathe-1,\"rgb(16, 185, 129)\"\n"+
			"B200,2025-03-05,2025-03-05,Housing,Retired,#123456\n",
		string(orders))
}

func TestCSVStoreLoadHandWritten(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ResourceFile, "resource\n Press \n\nPress\nOven\n")
	writeFile(t, dir, DatesFile, "start_date,end_date\n2025-01-06,2025-01-12\n")
	// 列の並びが違っても、色が空でもよい
	writeFile(t, dir, OrdersFile, "resource,OrderCode,display_info,starttime,endtime\n"+
		"Press,X1,Bracket,2025-01-06,2025-01-07\n"+
		"Oven,X2,Cure,2025-01-08T00:00:00Z,2025-01-08\n")

	s, err := NewCSVStore(dir)
	require.NoError(t, err)
	ds, err := s.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Press", "Oven"}, ds.Resources)
	assert.Equal(t, 7, ds.Dates.Len())
	require.Len(t, ds.Orders, 2)
	assert.Equal(t, "X1", ds.Orders[0].OrderCode)
	assert.Equal(t, "Bracket", ds.Orders[0].DisplayInfo)
	assert.Equal(t, model.TaskColor("Bracket", "Press", ""), ds.Orders[0].Color)
	assert.Equal(t, "2025-01-08", ds.Orders[1].StartTime.String())
}

func TestCSVStoreLoadInvalidDate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, OrdersFile, "OrderCode,starttime,endtime,display_info,resource,color\nA,soon,2025-01-02,x,y,\n")

	s, err := NewCSVStore(dir)
	require.NoError(t, err)
	_, err = s.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "orders.csv line 2")
}

func TestCSVStoreSaveEmpty(t *testing.T) {
	ctx := context.Background()
	s, err := NewCSVStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, sampleDataset()))
	require.NoError(t, s.Save(ctx, model.NewDataset()))

	ds, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, ds.Resources)
	assert.Empty(t, ds.Orders)
	assert.True(t, ds.Dates.IsZero())
}
