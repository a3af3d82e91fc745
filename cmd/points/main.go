package main

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"community-points/pkg/config"
	"community-points/pkg/db"
	"community-points/pkg/gen"
	"community-points/pkg/health"
	"community-points/pkg/logger"
	"community-points/pkg/otelcol"
	"community-points/pkg/profiling"
	"community-points/pkg/redis"
	"community-points/pkg/server"
	"community-points/pkg/task"
	"community-points/services/award"
	"community-points/services/cooldown"
	"community-points/services/leaderboard"
	"community-points/services/ledger"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		otelcol.Module,
		profiling.Module,
		db.Module,
		redis.Module,
		gen.Module,
		task.Client,
		task.Server,
		fx.Provide(provideRegisterer),
		server.ProvideHTTPServer,
		server.ProvideGRPCServer,
		health.Module,
		ledger.Module,
		cooldown.Module,
		award.Module,
		leaderboard.Module,
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	fx.New(opts...).Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	if cfg.AppEnv == "production" {
		return fxevent.NopLogger
	}
	return &fxevent.ZapLogger{Logger: logger.Named("fx")}
})

func provideRegisterer() prometheus.Registerer {
	return prometheus.DefaultRegisterer
}
