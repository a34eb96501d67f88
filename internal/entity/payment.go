package domain

import (
	"errors"
	"strings"
)

type PaymentMethod string

const (
	PaymentNone           PaymentMethod = ""
	PaymentCard           PaymentMethod = "card"
	PaymentPeerTransfer   PaymentMethod = "peer_transfer"
	PaymentHostedWallet   PaymentMethod = "hosted_wallet"
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
)

var ErrUnknownPaymentMethod = errors.New("unknown payment method")

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return PaymentNone, ErrUnknownPaymentMethod
	}
	return m, nil
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCard, PaymentPeerTransfer, PaymentHostedWallet, PaymentCashOnDelivery:
		return true
	case PaymentNone:
		return false
	default:
		return false
	}
}

// RequiresHostedFlow is true for methods collected by the external processor
// before any order exists.
func (m PaymentMethod) RequiresHostedFlow() bool {
	switch m {
	case PaymentCard:
		return true
	case PaymentPeerTransfer, PaymentHostedWallet, PaymentCashOnDelivery, PaymentNone:
		return false
	default:
		return false
	}
}

// InitialStatus is the status an order is created with for this method.
func (m PaymentMethod) InitialStatus() Status {
	switch m {
	case PaymentCard:
		return StatusPending
	case PaymentPeerTransfer, PaymentHostedWallet, PaymentCashOnDelivery:
		return StatusCompleted
	case PaymentNone:
		return ""
	default:
		return ""
	}
}
