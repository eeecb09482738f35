package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "c2rcc_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "c2rcc_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	pixelsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "c2rcc_pixels_processed_total",
			Help: "Pixels run through the processor, by sensor and validity.",
		},
		[]string{"sensor", "valid"},
	)

	flagsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "c2rcc_pixel_flags_total",
			Help: "Raised quality flags, by sensor and flag name.",
		},
		[]string{"sensor", "flag"},
	)

	sceneDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "c2rcc_scene_duration_seconds",
			Help:    "Wall time of a scene run in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		},
		[]string{"sensor", "status"},
	)

	netLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "c2rcc_net_loads_total",
			Help: "Network set loads, by outcome.",
		},
		[]string{"status"},
	)

	jobsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "c2rcc_jobs_in_flight",
			Help: "Asynchronous processing jobs queued or running.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(pixelsTotal)
	prometheus.MustRegister(flagsTotal)
	prometheus.MustRegister(sceneDurationSeconds)
	prometheus.MustRegister(netLoadsTotal)
	prometheus.MustRegister(jobsInFlight)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and duration for each request. Routes
// are labelled by their registered pattern so job IDs do not create new
// series.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "other"
		}
		code := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(path, c.Request.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(path, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// ObservePixels counts processed pixels of a sensor
func ObservePixels(sensor string, valid, invalid int) {
	pixelsTotal.WithLabelValues(sensor, "true").Add(float64(valid))
	pixelsTotal.WithLabelValues(sensor, "false").Add(float64(invalid))
}

// ObserveFlags adds per-flag counts of one scene
func ObserveFlags(sensor string, counts map[string]int) {
	for name, n := range counts {
		if n > 0 {
			flagsTotal.WithLabelValues(sensor, name).Add(float64(n))
		}
	}
}

func ObserveScene(sensor, status string, d time.Duration) {
	sceneDurationSeconds.WithLabelValues(sensor, status).Observe(d.Seconds())
}

func ObserveNetLoad(status string) {
	netLoadsTotal.WithLabelValues(status).Inc()
}

func JobQueued()   { jobsInFlight.Inc() }
func JobFinished() { jobsInFlight.Dec() }
