package chart

import (
	"strings"
	"testing"

	"github.com/stsysd/gantt/model"
)

func testDataset() *model.Dataset {
	return &model.Dataset{
		Resources: []string{"Lathe-1", "Mill-2"},
		Dates: model.DateRange{
			Start: model.MustParseDate("2025-03-01"),
			End:   model.MustParseDate("2025-03-07"),
		},
		Orders: []model.Order{
			{OrderCode: "A1", DisplayInfo: "Shaft", Resource: "Lathe-1", StartTime: model.MustParseDate("2025-03-02"), EndTime: model.MustParseDate("2025-03-04"), Color: "#ff0000"},
			{OrderCode: "B2", DisplayInfo: "Gear <small>", Resource: "Mill-2", StartTime: model.MustParseDate("2025-03-01"), EndTime: model.MustParseDate("2025-03-01")},
			{OrderCode: "C3", DisplayInfo: "Orphan", Resource: "Ghost", StartTime: model.MustParseDate("2025-03-01"), EndTime: model.MustParseDate("2025-03-02")},
			{OrderCode: "D4", DisplayInfo: "Late", Resource: "Mill-2", StartTime: model.MustParseDate("2025-03-06"), EndTime: model.MustParseDate("2025-03-09")},
		},
	}
}

func TestNewLayoutGeometry(t *testing.T) {
	l := NewLayout(testDataset(), nil)

	if len(l.Days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(l.Days))
	}
	if len(l.Bars) != 2 {
		t.Fatalf("expected 2 placed bars, got %d", len(l.Bars))
	}
	if len(l.Hidden) != 2 {
		t.Errorf("expected orphan and out-of-range orders to be hidden, got %d", len(l.Hidden))
	}

	// 3日間のバー: left = 1*80+2, width = 3*80-4, top = 0*50+50+2
	a := l.Bars[0]
	if a.X != 82 || a.Width != 236 || a.Y != 52 || a.Height != 46 {
		t.Errorf("unexpected geometry for A1: %+v", a)
	}
	if a.Color != "#ff0000" {
		t.Errorf("explicit colour should be kept, got %s", a.Color)
	}

	// 1日のバーは最小幅 80-4
	b := l.Bars[1]
	if b.X != 2 || b.Width != 76 || b.Y != 102 {
		t.Errorf("unexpected geometry for B2: %+v", b)
	}
	if b.Color != model.TaskColor("Gear <small>", "Mill-2", "") {
		t.Errorf("missing colour should be derived, got %s", b.Color)
	}

	if l.GridWidth() != 560 || l.GridHeight() != 150 {
		t.Errorf("unexpected grid size %dx%d", l.GridWidth(), l.GridHeight())
	}
}

func TestLayoutLocate(t *testing.T) {
	l := NewLayout(testDataset(), nil)

	tests := []struct {
		name    string
		x, y    int
		wantRow int
		wantCol int
		wantOK  bool
	}{
		{name: "first cell", x: 0, y: 50, wantRow: 0, wantCol: 0, wantOK: true},
		{name: "second row third day", x: 170, y: 120, wantRow: 1, wantCol: 2, wantOK: true},
		{name: "last cell", x: 559, y: 149, wantRow: 1, wantCol: 6, wantOK: true},
		{name: "header", x: 10, y: 10},
		{name: "right of grid", x: 560, y: 60},
		{name: "below grid", x: 10, y: 150},
		{name: "negative x", x: -1, y: 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, col, ok := l.Locate(tt.x, tt.y)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && (row != tt.wantRow || col != tt.wantCol) {
				t.Errorf("got (%d,%d), want (%d,%d)", row, col, tt.wantRow, tt.wantCol)
			}
		})
	}

	resource, day := l.Cell(1, 2)
	if resource != "Mill-2" || day.String() != "2025-03-03" {
		t.Errorf("Cell(1,2) = %s %s", resource, day)
	}
}

func TestGenerateGanttSVG(t *testing.T) {
	svg := GenerateGanttSVG(testDataset(), nil)

	if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatal("expected a complete SVG document")
	}
	for _, want := range []string{
		`data-date="2025-03-01"`,
		`data-date="2025-03-07"`,
		`data-order="A1"`,
		`data-order="B2"`,
		`<title>Shaft (2025-03-02 - 2025-03-04)</title>`,
		`Gear &lt;small&gt;`,
		`>Lathe<`,
		`Mar 1`,
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("expected SVG to contain %q", want)
		}
	}
	if strings.Contains(svg, `data-date="2025-03-08"`) {
		t.Error("days after the end date should not be drawn")
	}
	if strings.Contains(svg, `data-order="C3"`) || strings.Contains(svg, `data-order="D4"`) {
		t.Error("hidden orders should not be drawn")
	}
	if strings.Contains(svg, "<small>") {
		t.Error("labels must be escaped")
	}
}

func TestGenerateGanttSVGThemes(t *testing.T) {
	opts := DefaultOptions()
	opts.Theme = ParseTheme("DARK")
	dark := GenerateGanttSVG(testDataset(), opts)
	if !strings.Contains(dark, "#1f2937") {
		t.Error("dark theme background expected")
	}

	light := GenerateGanttSVG(testDataset(), nil)
	if strings.Contains(light, "#1f2937") {
		t.Error("light theme should not use dark background")
	}
	if ParseTheme("anything") != ThemeLight {
		t.Error("unknown themes should fall back to light")
	}
}

func TestGenerateGanttSVGEmpty(t *testing.T) {
	svg := GenerateGanttSVG(model.NewDataset(), nil)
	if !strings.Contains(svg, "No data") {
		t.Error("empty dataset should render the placeholder")
	}

	noDates := &model.Dataset{Resources: []string{"A"}}
	if !strings.Contains(GenerateGanttSVG(noDates, nil), "No data") {
		t.Error("dataset without a calendar should render the placeholder")
	}
}

func TestGenerateGanttSVGTitle(t *testing.T) {
	opts := DefaultOptions()
	opts.Title = "Plant & Floor"
	svg := GenerateGanttSVG(testDataset(), opts)
	if !strings.Contains(svg, `class="title">Plant &amp; Floor</text>`) {
		t.Error("expected escaped title")
	}
}
