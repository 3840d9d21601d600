package chart

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/stsysd/gantt/model"
)

// Theme selects the colour scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme returns ThemeDark for "dark" and ThemeLight otherwise.
func ParseTheme(s string) Theme {
	if strings.EqualFold(strings.TrimSpace(s), string(ThemeDark)) {
		return ThemeDark
	}
	return ThemeLight
}

type themeColors struct {
	background string
	header     string
	grid       string
	weekend    string
	text       string
	barText    string
}

func (t Theme) colors() themeColors {
	if t == ThemeDark {
		return themeColors{
			background: "#1f2937",
			header:     "#111827",
			grid:       "#374151",
			weekend:    "#273244",
			text:       "#e5e7eb",
			barText:    "#ffffff",
		}
	}
	return themeColors{
		background: "#ffffff",
		header:     "#f3f4f6",
		grid:       "#e5e7eb",
		weekend:    "#f9fafb",
		text:       "#374151",
		barText:    "#ffffff",
	}
}

// GenerateGanttSVG returns an SVG string representing the chart.
func GenerateGanttSVG(ds *model.Dataset, opts *Options) string {
	if opts == nil {
		opts = DefaultOptions()
	}
	return NewLayout(ds, opts).SVG()
}

// SVG renders the layout.
func (l *Layout) SVG() string {
	opts := l.opts
	colors := opts.Theme.colors()

	if l.Empty() {
		return emptySVG(opts, colors)
	}

	titleHeight := 0
	if opts.Title != "" {
		titleHeight = opts.FontSize + 12
	}

	width := opts.LabelWidth + l.GridWidth()
	height := titleHeight + l.GridHeight()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">`+"\n", width, height))
	sb.WriteString(fmt.Sprintf(`  <style>.label{font-family:%s;font-size:%dpx;fill:%s}.title{font-family:%s;font-size:%dpx;fill:%s;font-weight:bold}.bar-text{font-family:%s;font-size:%dpx;fill:%s}.bar-resource{font-family:%s;font-size:%dpx;fill:%s;opacity:0.8}</style>`+"\n",
		opts.FontFamily, opts.FontSize, colors.text,
		opts.FontFamily, opts.FontSize+2, colors.text,
		opts.FontFamily, opts.FontSize, colors.barText,
		opts.FontFamily, max(opts.FontSize-3, 6), colors.barText))
	sb.WriteString(fmt.Sprintf(`  <rect x="0" y="0" width="%d" height="%d" fill="%s"/>`+"\n", width, height, colors.background))

	if opts.Title != "" {
		sb.WriteString(fmt.Sprintf(`  <text x="4" y="%d" class="title">%s</text>`+"\n", opts.FontSize+4, html.EscapeString(opts.Title)))
	}

	// resource label column
	sb.WriteString(fmt.Sprintf(`  <g transform="translate(0,%d)">`+"\n", titleHeight))
	sb.WriteString(fmt.Sprintf(`    <rect x="0" y="0" width="%d" height="%d" fill="%s"/>`+"\n", opts.LabelWidth, opts.HeaderHeight, colors.header))
	for i, r := range l.Resources {
		y := opts.HeaderHeight + i*opts.CellHeight
		sb.WriteString(fmt.Sprintf(`    <rect x="0" y="%d" width="%d" height="%d" fill="none" stroke="%s"/>`+"\n",
			y, opts.LabelWidth, opts.CellHeight, colors.grid))
		sb.WriteString(fmt.Sprintf(`    <text x="8" y="%d" class="label" data-resource="%s">%s</text>`+"\n",
			y+opts.CellHeight/2+opts.FontSize/3, html.EscapeString(r), html.EscapeString(r)))
	}
	sb.WriteString("  </g>\n")

	// date grid
	sb.WriteString(fmt.Sprintf(`  <g transform="translate(%d,%d)">`+"\n", opts.LabelWidth, titleHeight))
	for c, d := range l.Days {
		x := c * opts.CellWidth
		sb.WriteString(fmt.Sprintf(`    <rect x="%d" y="0" width="%d" height="%d" fill="%s" stroke="%s"/>`+"\n",
			x, opts.CellWidth, opts.HeaderHeight, colors.header, colors.grid))
		sb.WriteString(fmt.Sprintf(`    <text x="%d" y="%d" class="label" text-anchor="middle">%s</text>`+"\n",
			x+opts.CellWidth/2, opts.HeaderHeight/2+opts.FontSize/3, d.Time().Format("Jan 2")))

		fill := colors.background
		if wd := d.Time().Weekday(); wd == time.Saturday || wd == time.Sunday {
			fill = colors.weekend
		}
		for r := range l.Resources {
			y := opts.HeaderHeight + r*opts.CellHeight
			sb.WriteString(fmt.Sprintf(`    <rect x="%d" y="%d" width="%d" height="%d" fill="%s" stroke="%s" data-date="%s" data-row="%d"/>`+"\n",
				x, y, opts.CellWidth, opts.CellHeight, fill, colors.grid, d, r))
		}
	}

	for _, b := range l.Bars {
		writeBar(&sb, b, opts)
	}
	sb.WriteString("  </g>\n")

	sb.WriteString(`</svg>`)
	return sb.String()
}

func writeBar(sb *strings.Builder, b Bar, opts Options) {
	o := b.Order
	sb.WriteString(fmt.Sprintf(`    <g class="bar" data-order="%s">`+"\n", html.EscapeString(o.OrderCode)))
	sb.WriteString(fmt.Sprintf(`      <rect x="%d" y="%d" width="%d" height="%d" rx="4" fill="%s">`+"\n",
		b.X, b.Y, b.Width, b.Height, html.EscapeString(b.Color)))
	sb.WriteString(fmt.Sprintf(`        <title>%s (%s - %s)</title>`+"\n",
		html.EscapeString(o.DisplayInfo), o.StartTime, o.EndTime))
	sb.WriteString("      </rect>\n")

	textY := b.Y + b.Height/2 + opts.FontSize/3
	sb.WriteString(fmt.Sprintf(`      <text x="%d" y="%d" class="bar-text">%s</text>`+"\n",
		b.X+8, textY, html.EscapeString(o.DisplayInfo)))
	if prefix := resourcePrefix(o.Resource); prefix != "" {
		sb.WriteString(fmt.Sprintf(`      <text x="%d" y="%d" class="bar-resource" text-anchor="end">%s</text>`+"\n",
			b.X+b.Width-4, b.Y+b.Height-4, html.EscapeString(prefix)))
	}
	sb.WriteString("    </g>\n")
}

// resourcePrefix is the part of a resource name before the first '-'.
func resourcePrefix(resource string) string {
	prefix, _, _ := strings.Cut(resource, "-")
	return prefix
}

func emptySVG(opts Options, colors themeColors) string {
	width, height := 320, opts.HeaderHeight
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">`+"\n", width, height))
	sb.WriteString(fmt.Sprintf(`  <rect x="0" y="0" width="%d" height="%d" fill="%s"/>`+"\n", width, height, colors.background))
	sb.WriteString(fmt.Sprintf(`  <text x="8" y="%d" font-family="%s" font-size="%dpx" fill="%s">No data: add resources and a project date range</text>`+"\n",
		height/2+opts.FontSize/3, opts.FontFamily, opts.FontSize, colors.text))
	sb.WriteString(`</svg>`)
	return sb.String()
}
