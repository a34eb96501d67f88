package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	domain "github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/entity"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/logging"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/usecase"
)

const maxResponseBytes = 64 * 1024

// HostedClient creates payment intents on the hosted card processor.
type HostedClient struct {
	baseURL   string
	secretKey string
	hc        *http.Client
}

var _ usecase.PaymentIntents = (*HostedClient)(nil)

func NewHostedClient(baseURL, secretKey string, timeout time.Duration) *HostedClient {
	return &HostedClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		hc:        &http.Client{Timeout: timeout},
	}
}

type createIntentReq struct {
	Amount   int64             `json:"amount"` // minor units
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type createIntentResp struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

type processorError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *HostedClient) Create(ctx context.Context, in usecase.PaymentIntentRequest) (usecase.PaymentIntent, error) {
	body, err := json.Marshal(createIntentReq{
		Amount:   domain.MinorUnits(in.Amount),
		Currency: strings.ToLower(in.Currency),
		Metadata: in.Metadata,
	})
	if err != nil {
		return usecase.PaymentIntent{}, fmt.Errorf("marshal intent: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payment_intents", bytes.NewReader(body))
	if err != nil {
		return usecase.PaymentIntent{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if in.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", in.IdempotencyKey)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return usecase.PaymentIntent{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return usecase.PaymentIntent{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var pe processorError
		_ = json.Unmarshal(raw, &pe)
		logging.FromCtx(ctx).Warn("payment intent rejected",
			"status", resp.StatusCode, "type", pe.Error.Type, "message", pe.Error.Message)
		// 4xx with a message is a decline the buyer can read; the rest is transport trouble.
		if resp.StatusCode < http.StatusInternalServerError && pe.Error.Message != "" {
			return usecase.PaymentIntent{}, &usecase.PaymentFailure{Message: pe.Error.Message}
		}
		return usecase.PaymentIntent{}, fmt.Errorf("processor status %d", resp.StatusCode)
	}

	var out createIntentResp
	if err := json.Unmarshal(raw, &out); err != nil {
		return usecase.PaymentIntent{}, fmt.Errorf("decode intent: %w", err)
	}
	if out.ID == "" || out.ClientSecret == "" {
		return usecase.PaymentIntent{}, fmt.Errorf("processor returned incomplete intent")
	}
	return usecase.PaymentIntent{ID: out.ID, ClientSecret: out.ClientSecret}, nil
}
