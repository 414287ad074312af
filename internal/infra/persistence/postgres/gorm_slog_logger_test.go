package postgres

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"authservice/config"
	deliverycontext "authservice/internal/delivery/context"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newBufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func sqlFn() (string, int64) {
	return `SELECT * FROM "users"`, 1
}

func TestGormSlogLogger_TraceError(t *testing.T) {
	var buf bytes.Buffer
	l := newGormSlogLogger(newBufferLogger(&buf), &config.Config{})

	l.Trace(context.Background(), time.Now(), sqlFn, errors.New("db down"))

	assert.Contains(t, buf.String(), "GORM query failed")
	assert.Contains(t, buf.String(), "db down")
}

func TestGormSlogLogger_IgnoresRecordNotFound(t *testing.T) {
	var buf bytes.Buffer
	l := newGormSlogLogger(newBufferLogger(&buf), &config.Config{})

	l.Trace(context.Background(), time.Now(), sqlFn, gorm.ErrRecordNotFound)

	assert.Empty(t, buf.String())
}

func TestGormSlogLogger_SlowQuery(t *testing.T) {
	var buf bytes.Buffer
	l := newGormSlogLogger(newBufferLogger(&buf), &config.Config{})

	l.Trace(context.Background(), time.Now().Add(-time.Second), sqlFn, nil)

	assert.Contains(t, buf.String(), "GORM slow query")
}

func TestGormSlogLogger_DebugLogsEveryQuery(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{}
	cfg.Env.Debug = true
	l := newGormSlogLogger(newBufferLogger(&buf), cfg)

	l.Trace(context.Background(), time.Now(), sqlFn, nil)

	assert.Contains(t, buf.String(), "GORM query")
	assert.Contains(t, buf.String(), `rows=1`)
}

func TestGormSlogLogger_Silent(t *testing.T) {
	var buf bytes.Buffer
	l := newGormSlogLogger(newBufferLogger(&buf), &config.Config{}).LogMode(logger.Silent)

	l.Trace(context.Background(), time.Now(), sqlFn, errors.New("db down"))
	l.Error(context.Background(), "failed %s", "x")

	assert.Empty(t, buf.String())
}

func TestGormSlogLogger_UsesRequestLogger(t *testing.T) {
	var base, scoped bytes.Buffer
	l := newGormSlogLogger(newBufferLogger(&base), &config.Config{})

	ctx := deliverycontext.WithLogger(context.Background(), newBufferLogger(&scoped).With("request_id", "req-1"))
	l.Warn(ctx, "pool %s", "busy")

	assert.Empty(t, base.String())
	assert.Contains(t, scoped.String(), "request_id=req-1")
	assert.Contains(t, scoped.String(), "pool busy")
}
