package leaderboard

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"community-points/pkg/db/pagination"
	"community-points/pkg/errutil"
	"community-points/services/ledger"

	"github.com/gin-gonic/gin"
)

type boardQuery struct {
	pagination.Pagination
	ViewerID *int64 `form:"viewer_id"`
}

type boardResponse struct {
	*Page
	Viewer *Standing `json:"viewer,omitempty"`
}

type Handler struct {
	service      *Service
	defaultLimit int
	maxLimit     int
}

func NewHandler(service *Service, defaultLimit, maxLimit int) *Handler {
	return &Handler{service: service, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/v1/communities/:community_id")
	g.GET("/members/:user_id/score", h.GetScore)
	g.GET("/leaderboard", h.GetPage)
}

func (h *Handler) GetScore(c *gin.Context) {
	communityID, err := pathID(c, "community_id")
	if err != nil {
		c.Error(err)
		return
	}
	userID, err := pathID(c, "user_id")
	if err != nil {
		c.Error(err)
		return
	}

	standing, err := h.service.GetScore(c.Request.Context(), communityID, userID)
	if err != nil {
		c.Error(asBaseError(err))
		return
	}

	c.JSON(http.StatusOK, standing)
}

func (h *Handler) GetPage(c *gin.Context) {
	communityID, err := pathID(c, "community_id")
	if err != nil {
		c.Error(err)
		return
	}

	var q boardQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.Error(errutil.BadRequest("invalid leaderboard query", err))
		return
	}

	order, err := ledger.ParseOrder(q.Order)
	if err != nil {
		c.Error(err)
		return
	}

	p, err := q.Pagination.Normalize(h.defaultLimit, h.maxLimit)
	if err != nil {
		c.Error(errutil.BadRequest("invalid page bounds", fmt.Errorf("%w: %w", ledger.ErrInvalidPage, err)))
		return
	}

	p, ok := p.Apply()
	if !ok {
		c.Error(errutil.BadRequest("cannot move there from the current page",
			fmt.Errorf("%w: move %q from offset %d", ledger.ErrInvalidPage, q.Move, p.Offset)))
		return
	}

	ctx := c.Request.Context()
	page, err := h.service.TopOrBottom(ctx, communityID, order, p.Limit, p.Offset)
	if err != nil {
		c.Error(asBaseError(err))
		return
	}

	res := boardResponse{Page: page}
	if q.ViewerID != nil && !page.contains(*q.ViewerID) {
		standing, err := h.service.GetScore(ctx, communityID, *q.ViewerID)
		if err != nil {
			c.Error(asBaseError(err))
			return
		}
		res.Viewer = standing
	}

	c.JSON(http.StatusOK, res)
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, errutil.BadRequest(name+" must be an integer", err,
			errutil.WithDetails(errutil.Detail{Field: name, Message: "must be an integer"}))
	}
	return id, nil
}

func asBaseError(err error) error {
	var be errutil.BaseError
	if errors.As(err, &be) {
		return err
	}
	return errutil.Internal("leaderboard query failed", err)
}
