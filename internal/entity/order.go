package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrNoItems       = errors.New("order has no items")
	ErrBadQuantity   = errors.New("item quantity must be positive")
)

// CanTransition reports whether an order may move from s to next.
// Only pending orders change status.
func (s Status) CanTransition(next Status) bool {
	if s != StatusPending {
		return false
	}
	return next == StatusCompleted || next == StatusFailed
}

type Order struct {
	ID             string
	SessionID      string
	UserID         string
	Status         Status
	Method         PaymentMethod
	PaymentRef     string
	Currency       string
	Items          []LineItem
	Totals         Totals
	PointsEarned   int64
	IdempotencyKey string
	CreatedAt      time.Time
}

func (o *Order) Validate() error {
	if len(o.Items) == 0 {
		return ErrNoItems
	}
	for _, it := range o.Items {
		if it.Quantity < 1 {
			return ErrBadQuantity
		}
		if it.UnitPrice.IsNegative() {
			return ErrInvalidAmount
		}
	}
	if o.Currency == "" || o.Totals.Total.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	return nil
}
