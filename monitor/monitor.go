// monitor/monitor.go
package monitor

import (
	"expvar"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wfunc/gamingpool/logger"
	"github.com/wfunc/gamingpool/models"
)

type Metrics struct {
	QueriesTotal        *prometheus.CounterVec
	QueryLatency        *prometheus.HistogramVec
	KeysScanned         prometheus.Counter
	CollectionOverflows prometheus.Counter
	OpenSessions        prometheus.Gauge
}

func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		QueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Total number of queries by name and outcome",
		}, []string{"query", "outcome"}),
		QueryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_latency_seconds",
			Help:      "Query processing latency",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"query"}),
		KeysScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keys_scanned_total",
			Help:      "Store keys enumerated by aggregation scans",
		}),
		CollectionOverflows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collection_overflows_total",
			Help:      "Pool collection computations that overflowed and were reported as zero",
		}),
		OpenSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_sessions",
			Help:      "Number of open websocket sessions",
		}),
	}

	reg.MustRegister(
		m.QueriesTotal,
		m.QueryLatency,
		m.KeysScanned,
		m.CollectionOverflows,
		m.OpenSessions,
	)

	return m
}

// Monitor is safe to use as a nil pointer; every method is then a no-op.
type Monitor struct {
	metrics      *Metrics
	registry     *prometheus.Registry
	startTime    time.Time
	requestCount int64
	mutex        sync.Mutex
	server       *http.Server
}

func NewMonitor(namespace string, registry *prometheus.Registry) *Monitor {
	return &Monitor{
		metrics:   NewMetrics(namespace, registry),
		registry:  registry,
		startTime: time.Now(),
	}
}

func (m *Monitor) Metrics() *Metrics {
	if m == nil {
		return nil
	}
	return m.metrics
}

// Handler serves the registry in the prometheus text format.
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Monitor) StartServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.Handle("/debug/vars", expvar.Handler())

	// 添加expvar指标
	expvar.Publish("uptime", expvar.Func(func() interface{} {
		return time.Since(m.startTime).Seconds()
	}))

	expvar.Publish("requests", expvar.Func(func() interface{} {
		m.mutex.Lock()
		defer m.mutex.Unlock()
		return m.requestCount
	}))

	m.server = &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Errorf("Metrics server failed: %v", err)
		}
	}()
}

func (m *Monitor) StopServer() {
	if m == nil || m.server == nil {
		return
	}
	m.server.Close()
}

func (m *Monitor) ObserveQuery(query string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.metrics.QueriesTotal.WithLabelValues(query, models.ErrorCode(err)).Inc()
	m.metrics.QueryLatency.WithLabelValues(query).Observe(duration.Seconds())
	m.mutex.Lock()
	m.requestCount++
	m.mutex.Unlock()
}

func (m *Monitor) AddKeysScanned(n int) {
	if m == nil {
		return
	}
	m.metrics.KeysScanned.Add(float64(n))
}

func (m *Monitor) IncCollectionOverflows() {
	if m == nil {
		return
	}
	m.metrics.CollectionOverflows.Inc()
}

func (m *Monitor) IncOpenSessions() {
	if m == nil {
		return
	}
	m.metrics.OpenSessions.Inc()
}

func (m *Monitor) DecOpenSessions() {
	if m == nil {
		return
	}
	m.metrics.OpenSessions.Dec()
}
