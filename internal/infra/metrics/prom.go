// Package metrics exposes Prometheus collectors for the HTTP surface and authentication outcomes.
package metrics

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	domainerrors "authservice/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "authservice"

// Outcome labels for authentication counters
const (
	ResultSuccess            = "success"
	ResultUserNotFound       = "user_not_found"
	ResultInvalidCredentials = "invalid_credentials"
	ResultDuplicate          = "duplicate"
	ResultError              = "error"
)

// Prom groups the service's collectors. A nil *Prom records nothing.
type Prom struct {
	registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec

	LoginsTotal        *prometheus.CounterVec
	RegistrationsTotal *prometheus.CounterVec
}

// NewProm creates the collectors and registers them, plus Go runtime and process collectors, on a fresh registry.
func NewProm() *Prom {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return newProm(reg)
}

func newProm(reg *prometheus.Registry) *Prom {
	p := &Prom{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				// bcrypt dominates login latency, so the upper buckets matter here.
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "logins_total",
				Help:      "Login attempts by provider and result.",
			},
			[]string{"provider", "result"},
		),
		RegistrationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "registrations_total",
				Help:      "Account registrations by provider and result.",
			},
			[]string{"provider", "result"},
		),
	}
	reg.MustRegister(p.RequestsTotal, p.RequestsDuration, p.InFlight, p.LoginsTotal, p.RegistrationsTotal)

	return p
}

// ObserveLogin counts one login attempt.
func (p *Prom) ObserveLogin(provider, result string) {
	if p == nil {
		return
	}
	p.LoginsTotal.WithLabelValues(provider, result).Inc()
}

// ObserveRegistration counts one registration attempt.
func (p *Prom) ObserveRegistration(provider, result string) {
	if p == nil {
		return
	}
	p.RegistrationsTotal.WithLabelValues(provider, result).Inc()
}

// RegisterDBStats exports connection pool statistics for db under the given name.
func (p *Prom) RegisterDBStats(db *sql.DB, dbName string) error {
	if p == nil || db == nil {
		return nil
	}

	return errors.WithStack(p.registry.Register(collectors.NewDBStatsCollector(db, dbName)))
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prom) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// EchoMiddleware records request count, latency and in-flight gauge per route template.
func (p *Prom) EchoMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		// route template is only available after routing
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}

		method := c.Request().Method
		p.InFlight.WithLabelValues(method, route).Inc()
		defer p.InFlight.WithLabelValues(method, route).Dec()

		err := next(c)

		status := strconv.Itoa(statusCode(c, err))
		secs := time.Since(start).Seconds()

		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(secs)

		return err
	}
}

// statusCode predicts the status the error handler will write, since it runs after the middleware chain.
func statusCode(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}

	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPCode()
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}

	return http.StatusInternalServerError
}
