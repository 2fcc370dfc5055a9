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
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// FriendshipOutcomes 好友状态机每次调用的结果
	FriendshipOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friendship_outcomes_total",
			Help: "Friendship state engine results by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	AssistanceOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistance_outcomes_total",
			Help: "Assistance lifecycle results by outcome",
		},
		[]string{"outcome"},
	)

	UpcomingEvents = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "upcoming_events",
		Help: "Number of events that have not started yet",
	})

	PendingFriendRequests = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pending_friend_requests",
		Help: "Number of friend requests waiting for an answer",
	})
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			FriendshipOutcomes,
			AssistanceOutcomes,
			UpcomingEvents,
			PendingFriendRequests,
		)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
