package domain

import "github.com/shopspring/decimal"

type Stage string

const (
	StageIdle                    Stage = "idle"
	StageMethodSelection         Stage = "method_selection"
	StageRedirectToHostedPayment Stage = "redirect_to_hosted_payment"
	StageSubmittingOrder         Stage = "submitting_order"
	StageCompleted               Stage = "completed"
)

// stageTransitions lists the allowed moves. A card order that fails after the
// processor captured the payment goes back to the redirect stage, so the
// redelivered confirmation can retry it.
var stageTransitions = map[Stage][]Stage{
	StageIdle:                    {StageMethodSelection},
	StageMethodSelection:         {StageMethodSelection, StageRedirectToHostedPayment, StageSubmittingOrder},
	StageRedirectToHostedPayment: {StageSubmittingOrder, StageMethodSelection},
	StageSubmittingOrder:         {StageCompleted, StageMethodSelection, StageRedirectToHostedPayment},
	StageCompleted:               {StageMethodSelection},
}

func (s Stage) CanTransition(next Stage) bool {
	from := s
	if from == "" {
		from = StageIdle
	}
	for _, to := range stageTransitions[from] {
		if to == next {
			return true
		}
	}
	return false
}

// PendingPayment tracks a hosted payment intent awaiting the processor's callback.
type PendingPayment struct {
	IntentID     string          `json:"intentId"`
	ClientSecret string          `json:"clientSecret"`
	Amount       decimal.Decimal `json:"amount"`
}

type CheckoutState struct {
	Stage       Stage           `json:"stage"`
	Method      PaymentMethod   `json:"method,omitempty"`
	Pending     *PendingPayment `json:"pending,omitempty"`
	Cycle       int             `json:"cycle"`
	LastOrderID string          `json:"lastOrderId,omitempty"`
	LastError   string          `json:"lastError,omitempty"`
}

func (c CheckoutState) CurrentStage() Stage {
	if c.Stage == "" {
		return StageIdle
	}
	return c.Stage
}

// CartLocked reports whether the cart is frozen: a payment intent was
// created for its current contents, or an order is being placed from it.
func (c CheckoutState) CartLocked() bool {
	st := c.CurrentStage()
	return st == StageRedirectToHostedPayment || st == StageSubmittingOrder
}
