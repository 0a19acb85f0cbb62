package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var defaultMetricPath = "/metrics"

// HistogramBuckets covers fast dev-mock responses through webhook-timeout
// territory, in milliseconds.
var HistogramBuckets = []float64{
	5, 10, 25, 50, 75, 100, 150, 200, 300, 400, 500,
	750, 1000, 1500, 2000,
	3000, 5000, 7500, 10000,
}

type Logger interface {
	Error(v ...interface{})
	Errorf(format string, v ...interface{})
}

// RequestCounterURLLabelMappingFn controls the cardinality of the "url"
// label; pass gin's FullPath so "/v1/payments/123" collapses to the route
// template.
type RequestCounterURLLabelMappingFn func(c *gin.Context) string

// Prometheus instruments a gin engine with request count and latency
// metrics, optionally served from a side listener.
type Prometheus struct {
	reqCnt *prometheus.CounterVec
	reqDur *prometheus.HistogramVec

	router        *gin.Engine
	listenAddress string

	MetricsPath string

	ReqCntURLLabelMappingFn RequestCounterURLLabelMappingFn

	logger Logger
}

type NewPrometheusOptions struct {
	Subsystem               string
	ReqCntURLLabelMappingFn func(c *gin.Context) string
	Logger                  Logger
}

func NewPrometheus(options NewPrometheusOptions) *Prometheus {
	subsystem := options.Subsystem
	if subsystem == "" {
		subsystem = "mpmock"
	}
	p := &Prometheus{
		MetricsPath:             defaultMetricPath,
		ReqCntURLLabelMappingFn: options.ReqCntURLLabelMappingFn,
		logger:                  options.Logger,
	}
	p.reqCnt = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "req_total",
			Help:      "How many HTTP requests processed, partitioned by status code, method and URL.",
		},
		[]string{"code", "method", "url"},
	)
	p.reqDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Subsystem: subsystem,
			Name:      "req_dur_ms",
			Help:      "The HTTP request latencies in milliseconds.",
			Buckets:   HistogramBuckets,
		},
		[]string{"code", "method", "url"},
	)
	for _, c := range []prometheus.Collector{p.reqCnt, p.reqDur} {
		if err := prometheus.Register(c); err != nil && p.logger != nil {
			p.logger.Errorf("metric registration failed: %v", err)
		}
	}
	return p
}

// SetListenAddress serves /metrics from a dedicated listener instead of the
// instrumented engine.
func (p *Prometheus) SetListenAddress(address string) {
	p.listenAddress = address
	if p.listenAddress != "" {
		p.router = gin.New()
	}
}

// Use attaches the middleware and mounts the metrics endpoint.
func (p *Prometheus) Use(e *gin.Engine) {
	e.Use(p.HandlerFunc())
	if p.router != nil {
		p.router.GET(p.MetricsPath, gin.WrapH(promhttp.Handler()))
		go func() {
			if err := p.router.Run(p.listenAddress); err != nil && p.logger != nil {
				p.logger.Errorf("metrics listener error: %v", err)
			}
		}()
		return
	}
	e.GET(p.MetricsPath, gin.WrapH(promhttp.Handler()))
}

func (p *Prometheus) HandlerFunc() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == p.MetricsPath {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		url := c.Request.URL.Path
		if p.ReqCntURLLabelMappingFn != nil {
			url = p.ReqCntURLLabelMappingFn(c)
		}
		elapsed := float64(time.Since(start)) / float64(time.Millisecond)
		p.reqDur.WithLabelValues(status, c.Request.Method, url).Observe(elapsed)
		p.reqCnt.WithLabelValues(status, c.Request.Method, url).Inc()
	}
}
