package http

import (
	"context"
	"net/http"

	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/adapter/http/middleware"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/usecase"
	"github.com/gin-gonic/gin"
)

type PointsHandler struct {
	rewards *usecase.Rewards
}

func NewPointsHandler(rewards *usecase.Rewards) *PointsHandler {
	return &PointsHandler{rewards: rewards}
}

type redeemReq struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

type pointsResp struct {
	Points   int64 `json:"points"`
	Credited bool  `json:"credited"`
}

func (h *PointsHandler) Balance(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), defaultTimeout)
	defer cancel()

	p, err := h.rewards.Balance(ctx, middleware.SessionID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pointsResp{Points: p})
}

// DailyVisit POST /v1/points/daily-visit; credited is false after the first call of the day.
func (h *PointsHandler) DailyVisit(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), defaultTimeout)
	defer cancel()

	credited, p, err := h.rewards.DailyVisit(ctx, middleware.SessionID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pointsResp{Points: p, Credited: credited})
}

func (h *PointsHandler) ClaimGame(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), defaultTimeout)
	defer cancel()

	p, err := h.rewards.ClaimGame(ctx, middleware.SessionID(c), c.Param("game"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pointsResp{Points: p, Credited: true})
}

// Redeem POST /v1/points/redeem spends points; the balance floors at zero.
func (h *PointsHandler) Redeem(c *gin.Context) {
	var req redeemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), defaultTimeout)
	defer cancel()

	p, err := h.rewards.Debit(ctx, middleware.SessionID(c), req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pointsResp{Points: p})
}
