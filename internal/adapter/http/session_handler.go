package http

import (
	"context"
	"net/http"
	"time"

	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/usecase"
	"github.com/gin-gonic/gin"
)

const defaultTimeout = 3 * time.Second

type TokenIssuer interface {
	Issue(sid string) (string, error)
	TTL() time.Duration
}

type SessionHandler struct {
	sessions *usecase.Sessions
	rewards  *usecase.Rewards
	tokens   TokenIssuer
}

func NewSessionHandler(sessions *usecase.Sessions, rewards *usecase.Rewards, tokens TokenIssuer) *SessionHandler {
	return &SessionHandler{sessions: sessions, rewards: rewards, tokens: tokens}
}

type sessionResp struct {
	SessionID   string `json:"sessionId"`
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int64  `json:"expiresIn"` // seconds
	Points      int64  `json:"points"`
}

// StartSession POST /v1/sessions: new session, bearer token and the first
// daily visit credit.
func (h *SessionHandler) StartSession(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), defaultTimeout)
	defer cancel()

	s, err := h.sessions.Start(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	signed, err := h.tokens.Issue(s.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	_, points, err := h.rewards.DailyVisit(ctx, s.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sessionResp{
		SessionID:   s.ID,
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.tokens.TTL().Seconds()),
		Points:      points,
	})
}
