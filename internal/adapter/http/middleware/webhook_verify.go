package middleware

import (
	"bytes"
	"encoding/base64"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	SignatureHeader  = "X-Signature"
	webhookBodyLimit = 64 * 1024
)

// Verifier checks a detached signature over a raw body.
type Verifier interface {
	Verify(payload, signature []byte) error
}

type WebhookVerify struct {
	v Verifier
}

func NewWebhookVerify(v Verifier) *WebhookVerify {
	return &WebhookVerify{v: v}
}

// Verify rejects webhook calls whose body does not match the base64
// RSA-SHA256 signature in X-Signature. The body is restored for the handler.
func (wv *WebhookVerify) Verify() gin.HandlerFunc {
	return func(c *gin.Context) {
		sig, err := base64.StdEncoding.DecodeString(c.GetHeader(SignatureHeader))
		if err != nil || len(sig) == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature encoding"})
			return
		}

		rawBody, err := io.ReadAll(io.LimitReader(c.Request.Body, webhookBodyLimit))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
			return
		}
		_ = c.Request.Body.Close()

		if err := wv.v.Verify(rawBody, sig); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "signature verification failed"})
			return
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(rawBody))
		c.Request.ContentLength = int64(len(rawBody))
		c.Next()
	}
}
