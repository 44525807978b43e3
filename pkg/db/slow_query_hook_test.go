package db

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"hmadashboard/pkg/config"
)

func TestOperationOf(t *testing.T) {
	assert.Equal(t, "select", operationOf("  SELECT value FROM kv_store WHERE key = $1"))
	assert.Equal(t, "insert", operationOf("\n        INSERT INTO kv_store (key, value)"))
	assert.Equal(t, "unknown", operationOf("   "))
}

func TestSlowQueryTracer_LogsOnlySlowQueries(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	tracer := NewSlowQueryTracer(zap.New(core), time.Nanosecond)

	ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "SELECT 1"})
	time.Sleep(time.Millisecond)
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{})

	assert.Equal(t, 1, logs.FilterMessage("slow-query").Len())

	fast := NewSlowQueryTracer(zap.New(core), time.Hour)
	ctx = fast.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "SELECT 1"})
	fast.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{})

	assert.Equal(t, 1, logs.Len())
}

func TestSlowQueryTracer_IgnoresUntracedContext(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	tracer := NewSlowQueryTracer(zap.New(core), 0)

	tracer.TraceQueryEnd(context.Background(), nil, pgx.TraceQueryEndData{})

	assert.Equal(t, 0, logs.Len())
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.DBConfig{Host: "db", Port: 5432, User: "hma", Password: "pw", Name: "tracker"})
	assert.Equal(t, "postgres://hma:pw@db:5432/tracker?sslmode=disable", dsn)
}
