package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stsysd/gantt/model"
)

// metrics はサーバーごとのPrometheusメトリクスです。
type metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	resources       prometheus.Gauge
	orders          prometheus.Gauge
	orphans         prometheus.Gauge
	saves           prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		resources: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gantt_resources",
			Help: "Number of resource rows in the last loaded or saved dataset",
		}),
		orders: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gantt_orders",
			Help: "Number of orders in the last loaded or saved dataset",
		}),
		orphans: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gantt_orphaned_orders",
			Help: "Number of orders whose resource row no longer exists",
		}),
		saves: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gantt_dataset_saves_total",
			Help: "Total number of successful dataset saves",
		}),
	}
	m.registry.MustRegister(m.requestsTotal, m.requestDuration, m.resources, m.orders, m.orphans, m.saves)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *metrics) observeDataset(ds *model.Dataset) {
	stats := ds.Stats()
	m.resources.Set(float64(stats.Resources))
	m.orders.Set(float64(stats.Orders))
	m.orphans.Set(float64(stats.Orphans))
}

// metricsMiddleware はリクエスト数と処理時間を記録します。
// パスのラベルにはマッチしたルートのパターンを使います。
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)

		next.ServeHTTP(rec, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		s.metrics.requestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		s.metrics.requestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
