package api

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/stsysd/gantt/chart"
	"github.com/stsysd/gantt/model"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// chartOptions はクエリと設定からSVGの描画オプションを決定します。
func (s *Server) chartOptions(r *http.Request) *chart.Options {
	opts := chart.DefaultOptions()
	query := r.URL.Query()

	theme := s.config.Chart.Theme
	if query.Has("theme") {
		theme = query.Get("theme")
	}
	opts.Theme = chart.ParseTheme(theme)

	opts.Title = s.config.Chart.Title
	if query.Has("title") {
		opts.Title = query.Get("title")
	}
	return opts
}

// handleGetChart はガントチャートのSVGを生成・返却するハンドラーです。
func (s *Server) handleGetChart(w http.ResponseWriter, r *http.Request) {
	ds, err := s.load(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("Error loading dataset")
		http.Error(w, "Failed to load data", http.StatusInternalServerError)
		return
	}

	svg := chart.GenerateGanttSVG(ds, s.chartOptions(r))

	// レスポンスの返却
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write([]byte(svg))
}

type pageData struct {
	Title      string
	Theme      string
	OtherTheme string
	Stats      model.Stats
	Chart      template.HTML
	Resources  []string
	Orders     []model.Order
	Orphans    []model.Order
}

// handleIndex はチャートと集計値を含むHTMLページを返却するハンドラーです。
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ds, err := s.load(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("Error loading dataset")
		http.Error(w, "Failed to load data", http.StatusInternalServerError)
		return
	}

	opts := s.chartOptions(r)
	title := opts.Title
	if title == "" {
		title = "Gantt"
	}
	// ページ見出しと重複するのでSVG内のタイトルは描かない
	opts.Title = ""

	// GenerateGanttSVGはすべてのテキストをエスケープ済み
	svg := template.HTML(chart.GenerateGanttSVG(ds, opts))

	data := pageData{
		Title:      title,
		Theme:      string(opts.Theme),
		OtherTheme: string(chart.ThemeDark),
		Stats:      ds.Stats(),
		Chart:      svg,
		Resources:  ds.Resources,
		Orders:     ds.Orders,
		Orphans:    ds.Orphans(),
	}
	if opts.Theme == chart.ThemeDark {
		data.OtherTheme = string(chart.ThemeLight)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		s.logger.WithError(err).Error("Error rendering page")
	}
}
