package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "github.com/w22j/find-friends-backend/pkg/errors"
)

const namespace = "find_friends"

var (
	histogramBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}
)

// Metrics 服务指标，nil 接收者上的调用均为空操作
type Metrics struct {
	registry *prometheus.Registry

	teamOperations *prometheus.CounterVec
	lockWait       *prometheus.HistogramVec
	requestTotal   *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// New 创建独立 registry 的指标集合
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		teamOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "team",
			Name:      "operations_total",
			Help:      "Count of team operations by result code",
		}, []string{"op", "code"}),
		lockWait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "lock",
			Name:      "wait_duration_seconds",
			Help:      "Time spent waiting for a cluster lock",
			Buckets:   histogramBuckets,
		}, []string{"name", "acquired"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Count of processed HTTP requests",
		}, []string{"method", "route", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency distribution of HTTP handlers",
			Buckets:   histogramBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.teamOperations,
		m.lockWait,
		m.requestTotal,
		m.requestLatency,
	)
	return m
}

// Registry 底层 registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveOperation 记录一次队伍操作的结果，成功时 code 为 0
func (m *Metrics) ObserveOperation(op string, err error) {
	if m == nil {
		return
	}
	code := apperrors.CodeSuccess
	if err != nil {
		code = apperrors.GetCode(err)
	}
	m.teamOperations.WithLabelValues(op, strconv.Itoa(code)).Inc()
}

// ObserveLockWait 记录等锁耗时
func (m *Metrics) ObserveLockWait(name string, acquired bool, d time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.WithLabelValues(name, strconv.FormatBool(acquired)).Observe(d.Seconds())
}

// ObserveRequest 记录 HTTP 请求
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"route":  route,
		"status": strconv.Itoa(status),
	}
	m.requestTotal.With(labels).Inc()
	m.requestLatency.With(labels).Observe(d.Seconds())
}
