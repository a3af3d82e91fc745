package award

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"community-points/pkg/errutil"
	"community-points/pkg/task"
	"community-points/services/cooldown"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type activityRequest struct {
	Kind       string     `json:"kind" binding:"required"`
	UserID     int64      `json:"user_id" binding:"required"`
	Bot        bool       `json:"bot"`
	Direct     bool       `json:"direct"`
	OccurredAt *time.Time `json:"occurred_at"`
}

type queuedResponse struct {
	Queued bool   `json:"queued"`
	TaskID string `json:"task_id"`
}

// Handler accepts activity from the chat transport. With a queue configured
// the activity is enqueued and acknowledged; otherwise it is awarded inline.
type Handler struct {
	engine   *Engine
	enqueuer task.Enqueuer
}

func NewHandler(engine *Engine, enqueuer task.Enqueuer) *Handler {
	return &Handler{engine: engine, enqueuer: enqueuer}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/communities/:community_id/activities", h.PostActivity)
}

func (h *Handler) PostActivity(c *gin.Context) {
	communityID, err := strconv.ParseInt(c.Param("community_id"), 10, 64)
	if err != nil {
		c.Error(errutil.BadRequest("community_id must be an integer", err))
		return
	}

	var req activityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid activity body", err))
		return
	}

	kind, err := cooldown.ParseKind(req.Kind)
	if err != nil {
		c.Error(err)
		return
	}

	a := Activity{
		Kind:        kind,
		CommunityID: communityID,
		UserID:      req.UserID,
		Bot:         req.Bot,
		Direct:      req.Direct,
	}
	if req.OccurredAt != nil {
		a.OccurredAt = *req.OccurredAt
	}

	ctx := c.Request.Context()
	if h.enqueuer != nil {
		// stamp now so the cooldown is measured from arrival, not from when a worker picks it up
		if a.OccurredAt.IsZero() {
			a.OccurredAt = h.engine.clock()
		}
		t, err := NewActivityTask(ctx, a)
		if err != nil {
			c.Error(errutil.Internal("failed to encode activity", err))
			return
		}
		info, err := h.enqueuer.Enqueue(ctx, t)
		if err != nil {
			zap.L().Error("failed to enqueue activity", zap.Int64("community_id", communityID), zap.Error(err))
			c.Error(errutil.ServiceUnavailable("activity queue unavailable", err))
			return
		}
		c.JSON(http.StatusAccepted, queuedResponse{Queued: true, TaskID: info.ID})
		return
	}

	res, err := h.engine.HandleActivity(ctx, a)
	if err != nil {
		var be errutil.BaseError
		if !errors.As(err, &be) {
			err = errutil.Internal("failed to handle activity", err)
		}
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, res)
}
