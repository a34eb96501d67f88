package middleware

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

type stubTokens map[string]string

func (s stubTokens) Parse(raw string) (string, error) {
	if sid, ok := s[raw]; ok {
		return sid, nil
	}
	return "", errors.New("bad token")
}

func TestAuthz_Require(t *testing.T) {
	r := gin.New()
	r.GET("/me", NewAuthz(stubTokens{"good": "s-1"}).Require(), func(c *gin.Context) {
		c.String(http.StatusOK, SessionID(c))
	})

	cases := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid", "Bearer good", http.StatusOK, "s-1"},
		{"missing", "", http.StatusUnauthorized, "invalid_request"},
		{"wrong scheme", "Basic good", http.StatusUnauthorized, "invalid_request"},
		{"bad token", "Bearer nope", http.StatusUnauthorized, "invalid_token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			assert.Contains(t, w.Body.String(), tc.body)
		})
	}
}

func TestWebhookVerify(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	signer, err := security.NewRSASigner(&security.KeyMaterial{RSAPub: &key.PublicKey, RSAPri: key})
	require.NoError(t, err)

	r := gin.New()
	r.POST("/hook", NewWebhookVerify(signer).Verify(), func(c *gin.Context) {
		b, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, string(b))
	})

	body := []byte(`{"type":"payment_intent.succeeded"}`)
	sig, err := signer.Sign(body)
	require.NoError(t, err)

	send := func(payload []byte, signature string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/hook", bytes.NewReader(payload))
		req.Header.Set(SignatureHeader, signature)
		r.ServeHTTP(w, req)
		return w
	}

	w := send(body, base64.StdEncoding.EncodeToString(sig))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(body), w.Body.String())

	w = send([]byte(`{"type":"payment_intent.payment_failed"}`), base64.StdEncoding.EncodeToString(sig))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = send(body, "%%%")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = send(body, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogging_RedactsButForwardsOriginalBody(t *testing.T) {
	var logs bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&logs, nil))

	r := gin.New()
	r.Use(Logging(l))
	r.POST("/v1/wholesale/auth", func(c *gin.Context) {
		var in struct {
			Code string `json:"code"`
		}
		require.NoError(t, c.ShouldBindJSON(&in))
		c.JSON(http.StatusOK, gin.H{"accessToken": "tok-123", "echo": in.Code == "MAYOREO-1"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/wholesale/auth", strings.NewReader(`{"code":"MAYOREO-1","email":"a@b.mx"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"echo":true`)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	out := logs.String()
	assert.NotContains(t, out, "MAYOREO-1")
	assert.NotContains(t, out, "tok-123")
	assert.Contains(t, out, "a@b.mx")
}

func TestReadCapped_ReplaysFullBody(t *testing.T) {
	payload := strings.Repeat("x", reqBodyLimit+10)
	head, rest, truncated := readCapped(io.NopCloser(strings.NewReader(payload)), reqBodyLimit)
	assert.True(t, truncated)
	assert.Len(t, head, reqBodyLimit)

	all, err := io.ReadAll(io.MultiReader(bytes.NewReader(head), rest))
	require.NoError(t, err)
	assert.Equal(t, payload, string(all))
}

func TestHTTPMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/v1/cart", func(c *gin.Context) { c.Status(http.StatusOK) })

	for range 2 {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/cart", nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/v1/cart", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "unmatched", "404")))
}
