package usecase

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrInvalidInput    = errors.New("invalid input")

	ErrEmptyCart            = errors.New("cart is empty")
	ErrNoPaymentMethod      = errors.New("no payment method selected")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidTransition    = errors.New("checkout transition not allowed")
	ErrCheckoutInProgress   = errors.New("checkout already in progress")
	ErrOrderSubmission      = errors.New("order submission failed")
	ErrPaymentIntent        = errors.New("payment intent creation failed")
	ErrPaymentMismatch      = errors.New("payment does not match pending intent")
	ErrHostedPaymentFailed  = errors.New("hosted payment failed")

	ErrDuplicate      = errors.New("duplicate idempotency key")
	ErrInvalidOrder   = errors.New("invalid order")
	ErrPriceMismatch  = errors.New("unit price does not match catalog")
	ErrTotalMismatch  = errors.New("total does not match recomputed total")
	ErrRewardRedeemed = errors.New("reward already claimed")

	ErrInvalidWholesaleCredentials = errors.New("invalid wholesale credentials")
)

// PaymentFailure carries the processor's message for a declined hosted payment.
type PaymentFailure struct {
	Message string
}

func (e *PaymentFailure) Error() string { return "hosted payment failed: " + e.Message }

func (e *PaymentFailure) Is(target error) bool { return target == ErrHostedPaymentFailed }
