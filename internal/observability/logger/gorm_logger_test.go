package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestClassifySQL(t *testing.T) {
	cases := []struct {
		sql       string
		operation string
		table     string
	}{
		{"SELECT * FROM `invoices` WHERE id = ?", "SELECT", "invoices"},
		{`SELECT * FROM "invoices" WHERE id = $1 LIMIT 1 FOR UPDATE`, "SELECT", "invoices"},
		{"SELECT COALESCE(MAX(sequence), 0) + 1 FROM invoices", "SELECT", "invoices"},
		{`INSERT INTO "customers" ("id") VALUES (1) ON CONFLICT ("tax_id") DO UPDATE SET "address"="excluded"."address"`, "INSERT", "customers"},
		{"WITH x AS (SELECT 1 FROM seq) INSERT INTO invoices VALUES (1)", "INSERT", "invoices"},
		{"UPDATE `invoices` SET `status`=? WHERE id = ?", "UPDATE", "invoices"},
		{"DELETE FROM public.cart_states WHERE cart_key = ?", "DELETE", "cart_states"},
		{"", "UNKNOWN", ""},
	}
	for _, tc := range cases {
		op, table := classifySQL(tc.sql)
		assert.Equal(t, tc.operation, op, tc.sql)
		assert.Equal(t, tc.table, table, tc.sql)
	}
}

func TestGormLoggerTrace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewGormLogger(zap.New(core), GormLoggerConfig{
		Level:                gormlogger.Warn,
		SlowThreshold:        500 * time.Millisecond,
		IgnoreRecordNotFound: true,
	})
	query := func() (string, int64) { return "UPDATE invoices SET status = ?", 1 }

	l.Trace(context.Background(), time.Now(), query, errors.New("boom"))
	l.Trace(context.Background(), time.Now(), query, gormlogger.ErrRecordNotFound)
	l.Trace(context.Background(), time.Now().Add(-time.Second), query, nil)

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
		assert.Equal(t, "UPDATE", entries[0].ContextMap()["operation"])
		assert.Equal(t, "invoices", entries[0].ContextMap()["table"])
		assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
		assert.Equal(t, true, entries[1].ContextMap()["slow"])
	}

	silent := l.LogMode(gormlogger.Silent)
	silent.Trace(context.Background(), time.Now(), query, errors.New("ignored"))
	assert.Len(t, logs.All(), 2)
}

func TestGormLoggerIgnoredNotFoundFallsThroughToDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewGormLogger(zap.New(core), GormLoggerConfig{Level: gormlogger.Info, IgnoreRecordNotFound: true})

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT * FROM invoices", 0 }, gormlogger.ErrRecordNotFound)

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	}
}

func TestGormLoggerFormatsMessages(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewGormLogger(zap.New(core), GormLoggerConfig{Level: gormlogger.Warn})

	l.Info(context.Background(), "skipped %s", "info")
	l.Warn(context.Background(), "column %s type changed", "status")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "column status type changed", entries[0].Message)
		assert.Equal(t, "gorm", entries[0].LoggerName)
	}
}
