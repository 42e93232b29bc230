package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests served by the local API",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests served by the local API",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"method", "endpoint"},
	)

	RemoteRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remote_requests_total",
			Help: "Requests sent to the course backend",
		},
		[]string{"operation", "status"},
	)

	RemoteRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "remote_request_duration_seconds",
			Help:    "Duration of requests sent to the course backend",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"operation"},
	)

	SyncRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_runs_total",
			Help: "Sync runs by kind (course, all, certificates_push, certificates_pull) and result",
		},
		[]string{"kind", "result"},
	)

	SyncSectionsPulled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sync_sections_pulled_total",
		Help: "Section completions copied from the backend into the local store",
	})

	SyncSectionsPushed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sync_sections_pushed_total",
		Help: "Section completions pushed to the backend",
	})
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			RemoteRequestCounter,
			RemoteRequestDuration,
			SyncRuns,
			SyncSectionsPulled,
			SyncSectionsPushed,
		)
	})
}

// ObserveRemote 记录一次后端调用，status 为 0 表示网络错误
func ObserveRemote(operation string, status int, started time.Time) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	RemoteRequestCounter.WithLabelValues(operation, label).Inc()
	RemoteRequestDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func ObserveSync(kind string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	SyncRuns.WithLabelValues(kind, result).Inc()
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
