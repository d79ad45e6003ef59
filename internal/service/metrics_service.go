package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/curriculum-tools/dataeditor/internal/events"
)

// MetricsService encapsulates Prometheus instrumentation for the editor: the
// HTTP surface, dataset loads and the size of the loaded graph.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	loadDuration    prometheus.Histogram
	loadTotal       prometheus.Counter
	entityCount     *prometheus.GaugeVec
	changeTotal     *prometheus.CounterVec
}

// NewMetricsService registers the editor's Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	loadDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dataset_load_duration_seconds",
		Help:    "Duration of full dataset loads",
		Buckets: prometheus.DefBuckets,
	})

	loadTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dataset_loads_total",
		Help: "Total number of dataset loads",
	})

	entityCount := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dataset_entities",
		Help: "Number of loaded entities per kind",
	}, []string{"kind"})

	changeTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "data_change_events_total",
		Help: "Total number of data change events by type",
	}, []string{"type"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, loadDuration, loadTotal, entityCount, changeTotal, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		loadDuration:    loadDuration,
		loadTotal:       loadTotal,
		entityCount:     entityCount,
		changeTotal:     changeTotal,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// Observe wires the metrics to the data service: every change event is
// counted and a reload refreshes the per-kind entity gauges.
func (m *MetricsService) Observe(data *DataService) {
	if m == nil || data == nil {
		return
	}
	data.ChangeEventSource().Subscribe(func(event events.DataChangeEvent) {
		switch event.Type {
		case events.ReloadDb:
			m.changeTotal.WithLabelValues("reload").Inc()
			m.loadTotal.Inc()
			m.refreshEntityCounts(data)
		case events.StoreEntity:
			m.changeTotal.WithLabelValues("store").Inc()
		case events.DeleteEntity:
			m.changeTotal.WithLabelValues("delete").Inc()
			m.refreshEntityCounts(data)
		case events.InsertNewEntity:
			m.changeTotal.WithLabelValues("insert").Inc()
			m.refreshEntityCounts(data)
		}
	})
}

// ObserveDatasetLoad records the wall time of one full load.
func (m *MetricsService) ObserveDatasetLoad(duration time.Duration) {
	if m == nil {
		return
	}
	m.loadDuration.Observe(duration.Seconds())
}

func (m *MetricsService) refreshEntityCounts(data *DataService) {
	m.entityCount.WithLabelValues("course").Set(float64(len(data.CourseWrappers())))
	m.entityCount.WithLabelValues("level").Set(float64(len(data.LevelWrappers())))
	m.entityCount.WithLabelValues("module").Set(float64(len(data.ModuleWrappers())))
	m.entityCount.WithLabelValues("module_level").Set(float64(len(data.ModuleLevelWrappers())))
	m.entityCount.WithLabelValues("abstract_unit").Set(float64(len(data.AbstractUnitWrappers())))
	m.entityCount.WithLabelValues("unit").Set(float64(len(data.UnitWrappers())))
	m.entityCount.WithLabelValues("group").Set(float64(len(data.GroupWrappers())))
	m.entityCount.WithLabelValues("session").Set(float64(len(data.SessionWrappers())))
}
