package http

import (
	"context"
	"net/http"

	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/adapter/http/middleware"
	domain "github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/entity"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/usecase"
	"github.com/gin-gonic/gin"
)

type WholesaleHandler struct {
	gate *usecase.WholesaleGate
}

func NewWholesaleHandler(gate *usecase.WholesaleGate) *WholesaleHandler {
	return &WholesaleHandler{gate: gate}
}

type wholesaleAuthReq struct {
	Code  string `json:"code" binding:"required"`
	Email string `json:"email" binding:"required"`
}

type wholesaleAuthResp struct {
	User      domain.User `json:"user"`
	Wholesale bool        `json:"wholesale"`
}

// Authenticate POST /v1/wholesale/auth. Lines already in the cart keep the
// price they were added at.
func (h *WholesaleHandler) Authenticate(c *gin.Context) {
	var req wholesaleAuthReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), defaultTimeout)
	defer cancel()

	u, err := h.gate.Activate(ctx, middleware.SessionID(c), req.Code, req.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, wholesaleAuthResp{User: u, Wholesale: true})
}
