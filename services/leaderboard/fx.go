package leaderboard

import (
	"community-points/pkg/config"
	"community-points/services/ledger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

var Module = fx.Module("leaderboard",
	fx.Provide(ProvideService, ProvideHandler),
	fx.Invoke(registerRoutes),
)

type ServiceParams struct {
	fx.In

	Store      ledger.Store
	Registerer prometheus.Registerer `optional:"true"`
}

func ProvideService(p ServiceParams) *Service {
	return NewService(p.Store, p.Registerer)
}

func ProvideHandler(cfg *config.Config, service *Service) *Handler {
	return NewHandler(service, cfg.Points.BoardLimit, cfg.Points.MaxBoardLimit)
}

func registerRoutes(r *gin.Engine, h *Handler) {
	h.RegisterRoutes(r)
}
