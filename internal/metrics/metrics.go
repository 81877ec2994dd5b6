package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yukikurage/manufacturing-backoffice/internal/config"
)

type Metrics struct {
	registry      *prometheus.Registry
	httpReqCnt    *prometheus.CounterVec
	httpDur       *prometheus.HistogramVec
	httpInfl      *prometheus.GaugeVec
	notifications *prometheus.CounterVec
	lowStock      prometheus.Gauge
	documents     *prometheus.CounterVec
}

func New(cfg config.MetricsConfig) *Metrics {
	ns := cfg.Namespace
	r := prometheus.NewRegistry()
	r.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.MustRegister(collectors.NewGoCollector())

	httpReqCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "http_requests_total"}, []string{"method", "route", "status"})
	httpDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: ns, Name: "http_request_duration_seconds", Buckets: prometheus.DefBuckets}, []string{"method", "route", "status"})
	httpInfl := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: ns, Name: "http_requests_inflight"}, []string{"route"})
	r.MustRegister(httpReqCnt, httpDur, httpInfl)

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "stock_notifications_total"}, []string{"status"})
	lowStock := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: ns, Name: "low_stock_materials"})
	documents := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "documents_numbered_total"}, []string{"scope"})
	r.MustRegister(notifications, lowStock, documents)

	return &Metrics{
		registry:      r,
		httpReqCnt:    httpReqCnt,
		httpDur:       httpDur,
		httpInfl:      httpInfl,
		notifications: notifications,
		lowStock:      lowStock,
		documents:     documents,
	}
}

// StockNotified counts one delivery attempt. status is "sent" or "failed".
// A nil *Metrics ignores the call.
func (m *Metrics) StockNotified(status string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(status).Inc()
}

// LowStockMaterials records how many materials the last scan found.
func (m *Metrics) LowStockMaterials(n int) {
	if m == nil {
		return
	}
	m.lowStock.Set(float64(n))
}

// DocumentNumbered counts a number handed out for scope.
func (m *Metrics) DocumentNumbered(scope string) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(scope).Inc()
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpInfl.WithLabelValues(route).Inc()
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		m.httpReqCnt.WithLabelValues(c.Request.Method, route, status).Inc()
		m.httpDur.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpInfl.WithLabelValues(route).Dec()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
