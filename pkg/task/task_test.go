package task

import (
	"context"
	"testing"
	"time"

	"community-points/pkg/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func TestEnqueueWrapsClientError(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	enq := NewEnqueuer(registerClient(rdb))

	_, err := enq.Enqueue(context.Background(), asynq.NewTask("points:activity", []byte(`{}`)))
	require.ErrorContains(t, err, "failed to enqueue task")
}

func TestAsynqServerDisabled(t *testing.T) {
	lc := fxtest.NewLifecycle(t)

	registerAsynqServer(serverParams{
		Lifecycle: lc,
		Config:    &config.Config{},
		Mux:       registerServerMux(),
	})

	lc.RequireStart()
	lc.RequireStop()
}

func TestServerConfigPollsOnlyDefaultQueue(t *testing.T) {
	cfg := &config.Config{}
	cfg.Points.Queue.Concurrency = 4

	sc := serverConfig(cfg)
	require.Equal(t, 4, sc.Concurrency)
	require.Equal(t, map[string]int{QueueDefault: 1}, sc.Queues)
	require.NotNil(t, sc.ErrorHandler)
}
