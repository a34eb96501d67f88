package usecase

import (
	"context"
	"time"

	domain "github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/entity"
	"github.com/shopspring/decimal"
)

// Persistence shape (kept out of domain).
type OrderRecord struct {
	ID, SessionID, UserID, Status, Method, PaymentRef string
	Currency, ItemsJSON, IdempotencyKey               string
	Subtotal, Shipping, Total                         decimal.Decimal
	PointsEarned                                      int64
	CreatedAt                                         time.Time
}

// OrderRepo writes the order row and its outbox row in one transaction.
type OrderRepo interface {
	CreateWithOutbox(ctx context.Context, o *OrderRecord, channel string, payload []byte) error
	GetByID(ctx context.Context, id string) (*OrderRecord, error)
	UpdateStatusIf(ctx context.Context, id string, fromStatus, toStatus string) (bool, error)
}

type OutboxRow struct {
	ID         int64
	Channel    string
	Payload    []byte
	RetryCount int
}

type OutboxRepo interface {
	FetchPending(ctx context.Context, channel string, limit int) ([]OutboxRow, error)
	MarkSent(ctx context.Context, id int64) error
	MarkRetry(ctx context.Context, id int64, nextAttempt time.Time) error
}

type OrderEvents interface {
	PublishCreated(ctx context.Context, msg CreatedMsg) error
}

type OrderCache interface {
	SetStatus(ctx context.Context, orderID string, status string) error
	GetStatus(ctx context.Context, orderID string) (string, bool, error)
}

type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Release(ctx context.Context, scope, key string) error
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}

// SessionStore persists shopper sessions. Load returns ErrSessionNotFound for
// unknown or expired ids.
type SessionStore interface {
	Load(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, s *domain.Session) error
}

type ProductFilter struct {
	Category domain.Category
	Search   string
	Limit    int
}

// ProductRepo returns ErrProductNotFound from Get for unknown ids.
type ProductRepo interface {
	List(ctx context.Context, f ProductFilter) ([]domain.Product, error)
	Get(ctx context.Context, id string) (domain.Product, error)
}

// OrderService is the order-creation boundary the checkout talks to.
type OrderService interface {
	Submit(ctx context.Context, in OrderSubmission) (OrderReceipt, error)
}

type PaymentIntentRequest struct {
	Amount         decimal.Decimal
	Currency       string
	IdempotencyKey string
	Metadata       map[string]string
}

type PaymentIntent struct {
	ID           string
	ClientSecret string
}

type PaymentIntents interface {
	Create(ctx context.Context, req PaymentIntentRequest) (PaymentIntent, error)
}

// WholesaleAuthenticator checks a wholesale access code for an email.
type WholesaleAuthenticator interface {
	Authenticate(ctx context.Context, code, email string) (domain.User, error)
}

type Metrics interface {
	OrderPlaced(method string)
	CheckoutFailed(reason string)
	PointsCredited(reason string, amount int64)
}

type NopMetrics struct{}

func (NopMetrics) OrderPlaced(string)           {}
func (NopMetrics) CheckoutFailed(string)        {}
func (NopMetrics) PointsCredited(string, int64) {}
