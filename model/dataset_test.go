package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset(t *testing.T) *Dataset {
	t.Helper()
	ds := NewDataset()
	require.NoError(t, ds.AddResource("Lathe-1"))
	require.NoError(t, ds.AddResource("Mill-2"))
	require.NoError(t, ds.SetDateRange(MustParseDate("2025-03-01"), MustParseDate("2025-03-10")))
	_, err := ds.CreateOrder(Order{
		OrderCode:   "A100",
		DisplayInfo: "Shaft",
		Resource:    "Lathe-1",
		StartTime:   MustParseDate("2025-03-02"),
		EndTime:     MustParseDate("2025-03-04"),
	})
	require.NoError(t, err)
	return ds
}

func TestAddResource(t *testing.T) {
	ds := sampleDataset(t)

	require.NoError(t, ds.AddResource("  Press-3 "))
	assert.Equal(t, []string{"Lathe-1", "Mill-2", "Press-3"}, ds.Resources)

	err := ds.AddResource("Mill-2")
	assert.True(t, errors.Is(err, ErrResourceExists))

	err = ds.AddResource("   ")
	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))
	assert.Len(t, ds.Resources, 3)
}

func TestRenameResourceCascadesToOrders(t *testing.T) {
	ds := sampleDataset(t)

	require.NoError(t, ds.RenameResource("Lathe-1", "Lathe-9"))
	assert.Equal(t, []string{"Lathe-9", "Mill-2"}, ds.Resources)
	o, err := ds.Order("A100")
	require.NoError(t, err)
	assert.Equal(t, "Lathe-9", o.Resource)

	assert.True(t, errors.Is(ds.RenameResource("Lathe-9", "Mill-2"), ErrResourceExists))
	assert.True(t, errors.Is(ds.RenameResource("nope", "x"), ErrResourceNotFound))
	assert.NoError(t, ds.RenameResource("Mill-2", "Mill-2"))
}

func TestDeleteResourceOrphansOrders(t *testing.T) {
	ds := sampleDataset(t)

	orphaned, err := ds.DeleteResource("Lathe-1")
	require.NoError(t, err)
	assert.Equal(t, 1, orphaned)
	assert.Equal(t, []string{"Mill-2"}, ds.Resources)

	// オーダーはカスケード削除されない
	assert.Len(t, ds.Orders, 1)
	assert.Len(t, ds.Orphans(), 1)

	_, err = ds.DeleteResource("Lathe-1")
	assert.True(t, errors.Is(err, ErrResourceNotFound))
}

func TestMoveResource(t *testing.T) {
	ds := sampleDataset(t)
	require.NoError(t, ds.AddResource("Press-3"))

	require.NoError(t, ds.MoveResource("Press-3", 0))
	assert.Equal(t, []string{"Press-3", "Lathe-1", "Mill-2"}, ds.Resources)

	require.NoError(t, ds.MoveResource("Press-3", 99))
	assert.Equal(t, []string{"Lathe-1", "Mill-2", "Press-3"}, ds.Resources)
}

func TestCreateOrder(t *testing.T) {
	ds := sampleDataset(t)

	o, err := ds.CreateOrder(Order{
		DisplayInfo: " Gear ",
		Resource:    "Mill-2",
		StartTime:   MustParseDate("2025-03-05"),
		EndTime:     MustParseDate("2025-03-05"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, o.OrderCode, "code should be generated")
	assert.Equal(t, "Gear", o.DisplayInfo)
	assert.Equal(t, TaskColor("Gear", "Mill-2", ""), o.Color)
	assert.Equal(t, 1, o.Duration())

	tests := []struct {
		name  string
		order Order
		is    error
	}{
		{
			name:  "duplicate code",
			order: Order{OrderCode: "A100", DisplayInfo: "x", Resource: "Mill-2", StartTime: MustParseDate("2025-03-01"), EndTime: MustParseDate("2025-03-01")},
			is:    ErrOrderExists,
		},
		{
			name:  "unknown resource",
			order: Order{DisplayInfo: "x", Resource: "Ghost", StartTime: MustParseDate("2025-03-01"), EndTime: MustParseDate("2025-03-01")},
			is:    ErrResourceNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ds.CreateOrder(tt.order)
			assert.True(t, errors.Is(err, tt.is), "got %v", err)
		})
	}

	invalid := []Order{
		{Resource: "Mill-2", StartTime: MustParseDate("2025-03-01"), EndTime: MustParseDate("2025-03-01")},
		{DisplayInfo: "x", Resource: "Mill-2", EndTime: MustParseDate("2025-03-01")},
		{DisplayInfo: "x", Resource: "Mill-2", StartTime: MustParseDate("2025-03-03"), EndTime: MustParseDate("2025-03-01")},
	}
	for _, o := range invalid {
		_, err := ds.CreateOrder(o)
		var vErr *ValidationError
		assert.True(t, errors.As(err, &vErr), "expected validation error for %+v, got %v", o, err)
	}
	assert.Len(t, ds.Orders, 2)
}

func TestSaveOrderKeepsStoredColour(t *testing.T) {
	ds := sampleDataset(t)
	before, err := ds.Order("A100")
	require.NoError(t, err)

	saved, err := ds.SaveOrder(Order{
		OrderCode:   "A100",
		DisplayInfo: "Renamed shaft",
		Resource:    "Mill-2",
		StartTime:   MustParseDate("2025-03-03"),
		EndTime:     MustParseDate("2025-03-06"),
	})
	require.NoError(t, err)
	assert.Equal(t, before.Color, saved.Color)
	assert.Equal(t, "Mill-2", saved.Resource)
	assert.Len(t, ds.Orders, 1)

	added, err := ds.SaveOrder(Order{
		OrderCode:   "B200",
		DisplayInfo: "Bracket",
		Resource:    "Mill-2",
		StartTime:   MustParseDate("2025-03-03"),
		EndTime:     MustParseDate("2025-03-03"),
		Color:       "#123456",
	})
	require.NoError(t, err)
	assert.Equal(t, "#123456", added.Color)
	assert.Len(t, ds.Orders, 2)
}

func TestUpdateOrder(t *testing.T) {
	ds := sampleDataset(t)

	label := "Shaft v2"
	end := MustParseDate("2025-03-08")
	o, err := ds.UpdateOrder("A100", OrderPatch{DisplayInfo: &label, EndTime: &end})
	require.NoError(t, err)
	assert.Equal(t, "Shaft v2", o.DisplayInfo)
	assert.Equal(t, "2025-03-08", o.EndTime.String())
	assert.Equal(t, "2025-03-02", o.StartTime.String())

	early := MustParseDate("2025-03-01")
	_, err = ds.UpdateOrder("A100", OrderPatch{EndTime: &early})
	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))

	stored, _ := ds.Order("A100")
	assert.Equal(t, "2025-03-08", stored.EndTime.String(), "failed update must not change the order")

	_, err = ds.UpdateOrder("missing", OrderPatch{})
	assert.True(t, errors.Is(err, ErrOrderNotFound))
}

func TestDeleteOrder(t *testing.T) {
	ds := sampleDataset(t)
	require.NoError(t, ds.DeleteOrder("A100"))
	assert.Empty(t, ds.Orders)
	assert.True(t, errors.Is(ds.DeleteOrder("A100"), ErrOrderNotFound))
}

func TestMoveOrder(t *testing.T) {
	tests := []struct {
		name      string
		resource  string
		start     string
		wantStart string
		wantEnd   string
		wantErr   bool
	}{
		{name: "same row later", resource: "Lathe-1", start: "2025-03-05", wantStart: "2025-03-05", wantEnd: "2025-03-07"},
		{name: "other row", resource: "Mill-2", start: "2025-03-01", wantStart: "2025-03-01", wantEnd: "2025-03-03"},
		{name: "end clamped to calendar", resource: "Mill-2", start: "2025-03-09", wantStart: "2025-03-09", wantEnd: "2025-03-10"},
		{name: "outside calendar", resource: "Mill-2", start: "2025-04-01", wantErr: true},
		{name: "unknown row", resource: "Ghost", start: "2025-03-02", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := sampleDataset(t)
			o, err := ds.MoveOrder("A100", tt.resource, MustParseDate(tt.start))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.resource, o.Resource)
			assert.Equal(t, tt.wantStart, o.StartTime.String())
			assert.Equal(t, tt.wantEnd, o.EndTime.String())
		})
	}
}

func TestStats(t *testing.T) {
	ds := sampleDataset(t)
	_, err := ds.DeleteResource("Lathe-1")
	require.NoError(t, err)

	st := ds.Stats()
	assert.Equal(t, 1, st.Resources)
	assert.Equal(t, 1, st.Orders)
	assert.Equal(t, 1, st.Orphans)
	assert.Equal(t, 10, st.Days)
	assert.Equal(t, "2025-03-01", st.Start.String())
}

func TestDatasetJSON(t *testing.T) {
	out, err := json.Marshal(&Dataset{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"resources":[],"dates":[],"orders":[]}`, string(out))

	ds := sampleDataset(t)
	out, err = json.Marshal(ds)
	require.NoError(t, err)

	var decoded Dataset
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, ds.Resources, decoded.Resources)
	assert.Equal(t, "2025-03-10", decoded.Dates.End.String())
	require.Len(t, decoded.Orders, 1)
	assert.Equal(t, "A100", decoded.Orders[0].OrderCode)
	assert.Equal(t, "2025-03-04", decoded.Orders[0].EndTime.String())
}
