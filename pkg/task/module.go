package task

import (
	"context"

	"community-points/pkg/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// QueueDefault is the only queue; every activity task is routed to it.
const QueueDefault = "default"

var Client = fx.Module("asynq:client",
	fx.Provide(registerClient, NewEnqueuer),
)

// registerClient shares the application redis connection; asynq refuses to
// close a shared client, so the redis module owns shutdown.
func registerClient(rdb *redis.Client) *asynq.Client {
	return asynq.NewClientFromRedisClient(rdb)
}

var Server = fx.Module("asynq:server",
	fx.Provide(registerServerMux),
	fx.Invoke(registerAsynqServer),
)

func registerServerMux() *asynq.ServeMux {
	return asynq.NewServeMux()
}

type serverParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Mux       *asynq.ServeMux
}

// registerAsynqServer starts the worker only when the activity queue is
// enabled; otherwise activities are handled inline by the HTTP endpoint.
func registerAsynqServer(p serverParams) {
	cfg := p.Config
	if !cfg.Points.Queue.Enable {
		zap.L().Info("[Asynq] activity queue disabled")
		return
	}

	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		serverConfig(cfg),
	)

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := server.Start(p.Mux); err != nil {
				zap.L().Error("[Asynq] Failed to start Asynq server", zap.Error(err))
				return err
			}
			zap.L().Info("[Asynq] Asynq server started", zap.String("addr", cfg.Redis.Addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			server.Shutdown()
			return nil
		},
	})
}

func serverConfig(cfg *config.Config) asynq.Config {
	return asynq.Config{
		Concurrency: cfg.Points.Queue.Concurrency,
		Queues:      map[string]int{QueueDefault: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			zap.L().Error("asynq task failed", zap.String("task_type", task.Type()), zap.Error(err))
		}),
	}
}
