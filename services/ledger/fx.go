package ledger

import (
	"context"
	"fmt"

	"community-points/pkg/config"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"
	"gorm.io/gorm"
)

var Module = fx.Module("ledger.store",
	fx.Provide(NewStore, NewHealthServer),
	fx.Invoke(registerMigration, registerHealthServer),
)

type StoreParams struct {
	fx.In

	Config *config.Config
	DB     *gorm.DB        `optional:"true"`
	Node   *snowflake.Node `optional:"true"`
	Redis  *redis.Client   `optional:"true"`
}

// NewStore selects the score backend named by POINTS.STORE.
func NewStore(p StoreParams) (Store, error) {
	timeout := p.Config.Points.StorageTimeout

	switch p.Config.Points.Store {
	case config.StoreSQL:
		if p.DB == nil || p.Node == nil {
			return nil, fmt.Errorf("sql store requires a database and a snowflake node")
		}
		zap.L().Info("using sql score store", zap.String("dialect", p.DB.Dialector.Name()))
		return NewSQLStore(p.DB, p.Node, timeout), nil
	case config.StoreRedis:
		if p.Redis == nil {
			return nil, fmt.Errorf("redis store requires a redis client")
		}
		zap.L().Info("using redis score store")
		return NewRedisStore(p.Redis, timeout), nil
	default:
		return nil, fmt.Errorf("unsupported score store %q", p.Config.Points.Store)
	}
}

func registerMigration(lc fx.Lifecycle, store Store) {
	sqlStore, ok := store.(*SQLStore)
	if !ok {
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return sqlStore.Migrate(ctx)
		},
	})
}

func registerHealthServer(server *grpc.Server, health *HealthServer) {
	grpc_health_v1.RegisterHealthServer(server, health)
}
