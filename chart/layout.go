// Package chart lays out and renders a resource × day Gantt chart.
package chart

import (
	"github.com/stsysd/gantt/model"
)

// Options configures rendering parameters.
type Options struct {
	CellWidth    int    // width of one day column (px)
	CellHeight   int    // height of one resource row (px)
	HeaderHeight int    // height of the day header (px)
	LabelWidth   int    // width of the resource label column (px)
	BarInset     int    // gap between a bar and its cell edges (px)
	FontSize     int    // font size for labels (px)
	FontFamily   string // font family for labels
	Theme        Theme  // light or dark colours
	Title        string // optional title above the chart
}

// DefaultOptions returns 80px day columns, 50px rows and a 50px header.
func DefaultOptions() *Options {
	return &Options{
		CellWidth:    80,
		CellHeight:   50,
		HeaderHeight: 50,
		LabelWidth:   140,
		BarInset:     2,
		FontSize:     12,
		FontFamily:   "sans-serif",
		Theme:        ThemeLight,
	}
}

// Bar is a placed order. Coordinates are relative to the date grid, whose
// origin is the top-left corner of the day header.
type Bar struct {
	Order  model.Order
	Row    int
	Column int
	X      int
	Y      int
	Width  int
	Height int
	Color  string
}

// Layout is the computed geometry of a dataset.
type Layout struct {
	opts      Options
	Resources []string
	Days      []model.Date
	Bars      []Bar
	// Hidden lists orders that could not be placed: orphaned, or with a day
	// outside the calendar.
	Hidden []model.Order
}

// NewLayout places every order on the grid.
func NewLayout(ds *model.Dataset, opts *Options) *Layout {
	if opts == nil {
		opts = DefaultOptions()
	}
	l := &Layout{
		opts:      *opts,
		Resources: ds.Resources,
		Days:      ds.Dates.Days(),
	}

	for _, o := range ds.Orders {
		row := ds.ResourceIndex(o.Resource)
		startIdx := ds.Dates.Index(o.StartTime)
		endIdx := ds.Dates.Index(o.EndTime)
		if row < 0 || startIdx < 0 || endIdx < 0 {
			l.Hidden = append(l.Hidden, o)
			continue
		}

		duration := endIdx - startIdx + 1
		minWidth := opts.CellWidth - 2*opts.BarInset
		l.Bars = append(l.Bars, Bar{
			Order:  o,
			Row:    row,
			Column: startIdx,
			X:      startIdx*opts.CellWidth + opts.BarInset,
			Y:      row*opts.CellHeight + opts.HeaderHeight + opts.BarInset,
			Width:  max(duration*opts.CellWidth-2*opts.BarInset, minWidth),
			Height: opts.CellHeight - 2*opts.BarInset,
			Color:  model.TaskColor(o.DisplayInfo, o.Resource, o.Color),
		})
	}
	return l
}

// GridWidth is the width of the date grid.
func (l *Layout) GridWidth() int {
	return len(l.Days) * l.opts.CellWidth
}

// GridHeight is the height of the date grid including its header.
func (l *Layout) GridHeight() int {
	return l.opts.HeaderHeight + len(l.Resources)*l.opts.CellHeight
}

// Empty reports whether there is nothing to draw.
func (l *Layout) Empty() bool {
	return len(l.Resources) == 0 || len(l.Days) == 0
}

// Locate maps a drop point on the date grid to a cell. y includes the header.
func (l *Layout) Locate(x, y int) (row, column int, ok bool) {
	if x < 0 || y < l.opts.HeaderHeight {
		return 0, 0, false
	}
	column = x / l.opts.CellWidth
	row = (y - l.opts.HeaderHeight) / l.opts.CellHeight
	if row >= len(l.Resources) || column >= len(l.Days) {
		return 0, 0, false
	}
	return row, column, true
}

// Cell returns the resource and day at a cell.
func (l *Layout) Cell(row, column int) (string, model.Date) {
	return l.Resources[row], l.Days[column]
}
