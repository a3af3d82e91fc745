package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"community-points/pkg/config"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm/logger"
)

func TestDialect(t *testing.T) {
	cfg := &config.Config{}

	cfg.Database.Type = "sqlite"
	cfg.Database.Path = ":memory:"
	d, err := Dialect(cfg)
	require.NoError(t, err)
	require.Equal(t, "sqlite", d.Name())

	cfg.Database.Type = "postgres"
	d, err = Dialect(cfg)
	require.NoError(t, err)
	require.Equal(t, "postgres", d.Name())

	cfg.Database.Type = "mysql"
	d, err = Dialect(cfg)
	require.NoError(t, err)
	require.Equal(t, "mysql", d.Name())

	cfg.Database.Type = "oracle"
	_, err = Dialect(cfg)
	require.Error(t, err)
}

func TestNewSqlite(t *testing.T) {
	cfg := &config.Config{AppEnv: "production"}
	cfg.Database.Type = "sqlite"
	cfg.Database.Path = ":memory:"

	d, err := Dialect(cfg)
	require.NoError(t, err)

	gdb, err := New(cfg, d)
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Ping())
	require.NoError(t, sqlDB.Close())
}

func TestZapGormLoggerTrace(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewZapGormLogger(zap.New(core), logger.Info, true)

	sql := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(context.Background(), time.Now(), sql, errors.New("boom"))
	l.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)
	l.Trace(context.Background(), time.Now(), sql, logger.ErrRecordNotFound)

	entries := logs.AllUntimed()
	require.Len(t, entries, 3)
	require.Equal(t, "gorm.query", entries[0].Message)
	require.Equal(t, zap.ErrorLevel, entries[0].Level)
	require.Equal(t, "gorm.slow_query", entries[1].Message)
	require.Equal(t, zap.DebugLevel, entries[2].Level)

	silent := l.LogMode(logger.Silent)
	silent.Trace(context.Background(), time.Now(), sql, errors.New("boom"))
	require.Len(t, logs.AllUntimed(), 3)
}
