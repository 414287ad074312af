package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domainerrors "authservice/internal/domain/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEcho(p *Prom) *echo.Echo {
	e := echo.New()
	e.Use(p.EchoMiddleware)
	e.GET("/users/:email", func(c echo.Context) error {
		return c.String(http.StatusOK, c.Param("email"))
	})
	e.GET("/missing", func(echo.Context) error {
		return domainerrors.ErrUserNotFound
	})
	e.GET("/boom", func(echo.Context) error {
		return errors.New("boom")
	})

	return e
}

func serve(e *echo.Echo, path string) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	e.ServeHTTP(httptest.NewRecorder(), req)
}

func TestEchoMiddleware_RecordsRouteTemplate(t *testing.T) {
	p := newProm(prometheus.NewRegistry())
	e := newTestEcho(p)

	serve(e, "/users/a@x.com")
	serve(e, "/users/b@x.com")

	assert.InDelta(t, 2, testutil.ToFloat64(p.RequestsTotal.WithLabelValues(http.MethodGet, "/users/:email", "200")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(p.InFlight.WithLabelValues(http.MethodGet, "/users/:email")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(p.RequestsDuration))
}

func TestEchoMiddleware_ErrorStatus(t *testing.T) {
	p := newProm(prometheus.NewRegistry())
	e := newTestEcho(p)

	serve(e, "/missing")
	serve(e, "/boom")
	serve(e, "/nowhere")

	assert.InDelta(t, 1, testutil.ToFloat64(p.RequestsTotal.WithLabelValues(http.MethodGet, "/missing", "404")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.RequestsTotal.WithLabelValues(http.MethodGet, "/boom", "500")), 0)
	assert.Equal(t, 3, testutil.CollectAndCount(p.RequestsTotal))
}

func TestProm_AuthCounters(t *testing.T) {
	p := newProm(prometheus.NewRegistry())

	p.ObserveLogin("LOCAL", ResultSuccess)
	p.ObserveLogin("LOCAL", ResultInvalidCredentials)
	p.ObserveLogin("LOCAL", ResultInvalidCredentials)
	p.ObserveRegistration("GOOGLE", ResultSuccess)

	assert.InDelta(t, 1, testutil.ToFloat64(p.LoginsTotal.WithLabelValues("LOCAL", ResultSuccess)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(p.LoginsTotal.WithLabelValues("LOCAL", ResultInvalidCredentials)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.RegistrationsTotal.WithLabelValues("GOOGLE", ResultSuccess)), 0)
}

func TestProm_NilIsNoop(t *testing.T) {
	var p *Prom

	assert.NotPanics(t, func() {
		p.ObserveLogin("LOCAL", ResultSuccess)
		p.ObserveRegistration("LOCAL", ResultError)
	})
}

func TestProm_Handler(t *testing.T) {
	p := NewProm()
	p.ObserveLogin("LOCAL", ResultSuccess)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `authservice_auth_logins_total{provider="LOCAL",result="success"} 1`))
	assert.Contains(t, body, "go_goroutines")
}

func TestProm_GatherTypes(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := newProm(reg)
	p.ObserveRegistration("LOCAL", ResultDuplicate)

	families, err := reg.Gather()
	require.NoError(t, err)

	types := map[string]dto.MetricType{}
	for _, mf := range families {
		types[mf.GetName()] = mf.GetType()
	}
	assert.Equal(t, dto.MetricType_COUNTER, types["authservice_auth_registrations_total"])
}

func TestRegisterDBStats(t *testing.T) {
	p := newProm(prometheus.NewRegistry())

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, p.RegisterDBStats(db, "primary"))
	assert.Error(t, p.RegisterDBStats(db, "primary"), "second registration collides")

	var nilProm *Prom
	assert.NoError(t, nilProm.RegisterDBStats(db, "primary"))
}
