package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pvRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pv_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	pvRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pv_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	pvLoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pv_logins_total",
		Help: "Total login attempts by method and outcome.",
	}, []string{"method", "outcome"})

	pvRegistrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pv_registrations_total",
		Help: "Total registration attempts by outcome.",
	}, []string{"outcome"})

	pvGamesIngestedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pv_games_ingested_total",
		Help: "Total game rows accepted from Steam refreshes.",
	})

	pvSteamUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pv_steam_up",
		Help: "Whether the Steam Web API answered the last probe (1) or not (0).",
	})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		pvRequestsTotal.WithLabelValues(method, path, status).Inc()
		pvRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordLogin records a login attempt. method is "password" or "steam".
func RecordLogin(method string, success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	pvLoginsTotal.WithLabelValues(method, outcome).Inc()
}

// RecordRegistration records a registration attempt.
func RecordRegistration(success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	pvRegistrationsTotal.WithLabelValues(outcome).Inc()
}

// RecordIngest records the number of games returned by a refresh.
func RecordIngest(n int) {
	pvGamesIngestedTotal.Add(float64(n))
}

// SetSteamUp sets the provider reachability gauge.
func SetSteamUp(up bool) {
	if up {
		pvSteamUp.Set(1)
	} else {
		pvSteamUp.Set(0)
	}
}
