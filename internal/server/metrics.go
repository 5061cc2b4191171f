package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "backoffice"

// Metrics holds all Prometheus metrics for the back office
type Metrics struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Category metrics
	CategoriesCreated prometheus.Counter
	CategoriesUpdated prometheus.Counter
	CategoriesDeleted prometheus.Counter

	// Image metrics
	ImagesStored   prometheus.Counter
	ImageBytes     prometheus.Counter
	ImagesRemoved  prometheus.Counter
	ImagesRejected *prometheus.CounterVec
}

// NewMetrics creates a collector with its own registry. countCategories,
// when set, backs a gauge of stored categories.
func NewMetrics(countCategories func(ctx context.Context) (int, error)) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		CategoriesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "categories_created_total",
			Help:      "Total number of categories created",
		}),
		CategoriesUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "categories_updated_total",
			Help:      "Total number of categories updated",
		}),
		CategoriesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "categories_deleted_total",
			Help:      "Total number of categories deleted",
		}),
		ImagesStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "images_stored_total",
			Help:      "Total number of category images written to disk",
		}),
		ImageBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "image_bytes_stored_total",
			Help:      "Total bytes of category images written to disk",
		}),
		ImagesRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "images_removed_total",
			Help:      "Total number of stored category image files deleted from disk",
		}),
		ImagesRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "images_rejected_total",
				Help:      "Total number of rejected image uploads",
			},
			[]string{"reason"},
		),
	}

	registry.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.CategoriesCreated,
		m.CategoriesUpdated,
		m.CategoriesDeleted,
		m.ImagesStored,
		m.ImageBytes,
		m.ImagesRemoved,
		m.ImagesRejected,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if countCategories != nil {
		registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "categories",
				Help:      "Number of stored categories",
			},
			func() float64 {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				count, err := countCategories(ctx)
				if err != nil {
					return -1
				}
				return float64(count)
			},
		))
	}

	return m
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per chi route pattern
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) CategoryCreated() { m.CategoriesCreated.Inc() }
func (m *Metrics) CategoryUpdated() { m.CategoriesUpdated.Inc() }
func (m *Metrics) CategoryDeleted() { m.CategoriesDeleted.Inc() }
func (m *Metrics) ImageRemoved()    { m.ImagesRemoved.Inc() }

func (m *Metrics) ImageStored(bytes int64) {
	m.ImagesStored.Inc()
	m.ImageBytes.Add(float64(bytes))
}

func (m *Metrics) ImageRejected(reason string) {
	m.ImagesRejected.WithLabelValues(reason).Inc()
}
