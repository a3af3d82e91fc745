package award

import (
	"community-points/pkg/config"
	"community-points/pkg/task"
	"community-points/services/cooldown"
	"community-points/services/ledger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

var Module = fx.Module("award",
	fx.Provide(ProvideEngine, NewTask, ProvideHandler),
	fx.Invoke(registerTaskHandlers, registerRoutes),
)

type EngineParams struct {
	fx.In

	Config     *config.Config
	Store      ledger.Store
	Tracker    *cooldown.Tracker
	Registerer prometheus.Registerer `optional:"true"`
}

func ProvideEngine(p EngineParams) *Engine {
	return NewEngine(p.Store, p.Tracker, Options{
		Ranges: map[cooldown.Kind]Range{
			cooldown.Message:  {Min: p.Config.Points.Message.Min, Max: p.Config.Points.Message.Max},
			cooldown.Reaction: {Min: p.Config.Points.Reaction.Min, Max: p.Config.Points.Reaction.Max},
		},
		Registerer: p.Registerer,
	})
}

type HandlerParams struct {
	fx.In

	Config   *config.Config
	Engine   *Engine
	Enqueuer task.Enqueuer `optional:"true"`
}

// ProvideHandler only routes through the queue when POINTS.QUEUE.ENABLE is set.
func ProvideHandler(p HandlerParams) *Handler {
	var enqueuer task.Enqueuer
	if p.Config.Points.Queue.Enable {
		enqueuer = p.Enqueuer
	}
	return NewHandler(p.Engine, enqueuer)
}

func registerRoutes(r *gin.Engine, h *Handler) {
	h.RegisterRoutes(r)
}
