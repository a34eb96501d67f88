package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	domain "github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/entity"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/logging"
	"github.com/shopspring/decimal"
)

const checkoutLockScope = "checkout"

// CheckoutView is what the storefront needs to render the checkout step.
type CheckoutView struct {
	Stage           domain.Stage         `json:"stage"`
	Method          domain.PaymentMethod `json:"method,omitempty"`
	Cart            CartView             `json:"cart"`
	PaymentIntentID string               `json:"paymentIntentId,omitempty"`
	ClientSecret    string               `json:"clientSecret,omitempty"`
	LastOrderID     string               `json:"lastOrderId,omitempty"`
	LastError       string               `json:"lastError,omitempty"`
	Points          int64                `json:"points"`
	CanSubmit       bool                 `json:"canSubmit"`
}

type SubmitResult struct {
	CheckoutView
	Receipt *OrderReceipt `json:"receipt,omitempty"`
}

// Checkout drives a session through method selection, the hosted payment
// redirect and order submission.
type Checkout struct {
	sessions SessionStore
	orders   OrderService
	payments PaymentIntents
	ledger   *Ledger
	locks    IdempotencyStore
	currency string
	timeout  time.Duration
	metrics  Metrics
	now      func() time.Time
}

func NewCheckout(sessions SessionStore, orders OrderService, payments PaymentIntents, ledger *Ledger, locks IdempotencyStore, currency string, opts ...Option) *Checkout {
	o := resolve(opts)
	return &Checkout{
		sessions: sessions,
		orders:   orders,
		payments: payments,
		ledger:   ledger,
		locks:    locks,
		currency: currency,
		timeout:  o.callTimeout,
		metrics:  o.metrics,
		now:      o.now,
	}
}

func (uc *Checkout) View(ctx context.Context, sid string) (CheckoutView, error) {
	s, err := uc.sessions.Load(ctx, sid)
	if err != nil {
		return CheckoutView{}, err
	}
	return viewOf(s), nil
}

// Open enters method selection. Reopening while already selecting is a no-op.
func (uc *Checkout) Open(ctx context.Context, sid string) (CheckoutView, error) {
	s, err := update(ctx, uc.sessions, sid, uc.now, func(s *domain.Session) error {
		if s.Cart.IsEmpty() {
			return ErrEmptyCart
		}
		st := s.Checkout.CurrentStage()
		if st == domain.StageMethodSelection {
			return nil
		}
		if s.Checkout.CartLocked() {
			return fmt.Errorf("%w: open from %s", ErrInvalidTransition, st)
		}
		if err := transition(s, domain.StageMethodSelection); err != nil {
			return err
		}
		s.Checkout.Method = domain.PaymentNone
		s.Checkout.Pending = nil
		s.Checkout.LastError = ""
		return nil
	})
	if err != nil {
		return CheckoutView{}, err
	}
	return viewOf(s), nil
}

func (uc *Checkout) SelectMethod(ctx context.Context, sid, method string) (CheckoutView, error) {
	m, err := domain.ParsePaymentMethod(method)
	if err != nil {
		return CheckoutView{}, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, method)
	}
	s, err := update(ctx, uc.sessions, sid, uc.now, func(s *domain.Session) error {
		if st := s.Checkout.CurrentStage(); st != domain.StageMethodSelection {
			return fmt.Errorf("%w: select method in %s", ErrInvalidTransition, st)
		}
		s.Checkout.Method = m
		s.Checkout.LastError = ""
		return nil
	})
	if err != nil {
		return CheckoutView{}, err
	}
	return viewOf(s), nil
}

// Submit places the order for non-card methods, or opens a hosted payment
// intent for card and waits for the processor callback.
func (uc *Checkout) Submit(ctx context.Context, sid string) (SubmitResult, error) {
	unlock, err := uc.lock(ctx, sid)
	if err != nil {
		return SubmitResult{}, err
	}
	defer unlock()

	s, err := uc.sessions.Load(ctx, sid)
	if err != nil {
		return SubmitResult{}, err
	}
	if err := ready(s); err != nil {
		return SubmitResult{}, err
	}

	switch s.Checkout.Method {
	case domain.PaymentCard:
		return uc.startHostedPayment(ctx, s)
	case domain.PaymentPeerTransfer, domain.PaymentHostedWallet, domain.PaymentCashOnDelivery:
		total := s.Cart.Totals().Total
		res, err := uc.submitOrder(ctx, s, total, "")
		if err != nil {
			return res, uc.submissionFailed(ctx, s, domain.StageMethodSelection, err)
		}
		return res, nil
	default:
		return SubmitResult{}, ErrNoPaymentMethod
	}
}

// ConfirmHostedPayment is called when the processor reports a captured card
// payment. The order is created pending with the confirmed amount, which must
// equal the amount the intent was created for.
func (uc *Checkout) ConfirmHostedPayment(ctx context.Context, sid, intentID string, amount decimal.Decimal) (SubmitResult, error) {
	unlock, err := uc.lock(ctx, sid)
	if err != nil {
		return SubmitResult{}, err
	}
	defer unlock()

	s, err := uc.sessions.Load(ctx, sid)
	if err != nil {
		return SubmitResult{}, err
	}
	if err := awaitingPayment(s, intentID); err != nil {
		return SubmitResult{}, err
	}
	if expected := s.Checkout.Pending.Amount; !amount.Equal(expected) {
		uc.metrics.CheckoutFailed("amount_mismatch")
		logging.FromCtx(ctx).Error("confirmed amount differs from payment intent",
			"session", sid, "intent", intentID, "confirmed", amount.String(), "expected", expected.String())
		return SubmitResult{}, fmt.Errorf("%w: confirmed %s, expected %s", ErrPaymentMismatch, amount, expected)
	}

	res, err := uc.submitOrder(ctx, s, amount, intentID)
	if err != nil {
		// Back to the redirect stage so a redelivered confirmation retries.
		return res, uc.submissionFailed(ctx, s, domain.StageRedirectToHostedPayment, err)
	}
	return res, nil
}

// FailHostedPayment returns to method selection and reports the processor's
// message as a *PaymentFailure.
func (uc *Checkout) FailHostedPayment(ctx context.Context, sid, intentID, message string) error {
	_, err := update(ctx, uc.sessions, sid, uc.now, func(s *domain.Session) error {
		if err := awaitingPayment(s, intentID); err != nil {
			return err
		}
		if err := transition(s, domain.StageMethodSelection); err != nil {
			return err
		}
		s.Checkout.Pending = nil
		s.Checkout.LastError = message
		return nil
	})
	if err != nil {
		return err
	}
	uc.metrics.CheckoutFailed("hosted_payment")
	return &PaymentFailure{Message: message}
}

// Cancel abandons a hosted payment and returns to method selection.
func (uc *Checkout) Cancel(ctx context.Context, sid string) (CheckoutView, error) {
	s, err := update(ctx, uc.sessions, sid, uc.now, func(s *domain.Session) error {
		if st := s.Checkout.CurrentStage(); st != domain.StageRedirectToHostedPayment {
			return fmt.Errorf("%w: cancel in %s", ErrInvalidTransition, st)
		}
		if err := transition(s, domain.StageMethodSelection); err != nil {
			return err
		}
		s.Checkout.Pending = nil
		return nil
	})
	if err != nil {
		return CheckoutView{}, err
	}
	return viewOf(s), nil
}

func (uc *Checkout) startHostedPayment(ctx context.Context, s *domain.Session) (SubmitResult, error) {
	total := s.Cart.Totals().Total
	callCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	intent, err := uc.payments.Create(callCtx, PaymentIntentRequest{
		Amount:         total,
		Currency:       uc.currency,
		IdempotencyKey: checkoutKey(s),
		Metadata: map[string]string{
			"sessionId": s.ID,
			"cycle":     strconv.Itoa(s.Checkout.Cycle),
		},
	})
	cancel()
	if err != nil {
		s.Checkout.LastError = err.Error()
		uc.save(ctx, s)
		uc.metrics.CheckoutFailed("payment_intent")
		return SubmitResult{CheckoutView: viewOf(s)}, fmt.Errorf("%w: %w", ErrPaymentIntent, err)
	}

	if err := transition(s, domain.StageRedirectToHostedPayment); err != nil {
		return SubmitResult{}, err
	}
	s.Checkout.Pending = &domain.PendingPayment{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       total,
	}
	s.Checkout.LastError = ""
	s.UpdatedAt = uc.now()
	if err := uc.sessions.Save(ctx, s); err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{CheckoutView: viewOf(s)}, nil
}

// submitOrder calls the order service and applies the completed transition on
// acknowledgment. On error the session is left for the caller to roll back.
func (uc *Checkout) submitOrder(ctx context.Context, s *domain.Session, total decimal.Decimal, paymentRef string) (SubmitResult, error) {
	method := s.Checkout.Method
	if err := transition(s, domain.StageSubmittingOrder); err != nil {
		return SubmitResult{}, err
	}

	callCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	receipt, err := uc.orders.Submit(callCtx, OrderSubmission{
		SessionID:      s.ID,
		Buyer:          s.User,
		Wholesale:      s.Wholesale,
		Items:          append([]domain.LineItem(nil), s.Cart.Items...),
		Total:          total,
		Method:         method,
		Status:         method.InitialStatus(),
		PaymentRef:     paymentRef,
		PointsEarned:   domain.PointsFor(total),
		IdempotencyKey: checkoutKey(s),
	})
	cancel()
	if err != nil {
		return SubmitResult{}, err
	}

	// Work on a copy so a failed save leaves s as it was before submission.
	done := *s
	if err := transition(&done, domain.StageCompleted); err != nil {
		return SubmitResult{}, err
	}
	key := "order:" + receipt.OrderID
	credited, err := uc.ledger.CreditOnce(ctx, &done, key, receipt.PointsEarned, "order")
	if err != nil {
		return SubmitResult{}, err
	}
	done.Cart.Clear()
	done.Checkout = domain.CheckoutState{
		Stage:       done.Checkout.Stage,
		Cycle:       s.Checkout.Cycle + 1,
		LastOrderID: receipt.OrderID,
	}
	done.UpdatedAt = uc.now()
	if err := uc.sessions.Save(ctx, &done); err != nil {
		if credited {
			uc.ledger.Forget(ctx, key)
		}
		return SubmitResult{}, err
	}
	*s = done
	return SubmitResult{CheckoutView: viewOf(s), Receipt: &receipt}, nil
}

// submissionFailed moves the session back to the given stage, persists it
// with cart and points untouched, and wraps err for the caller.
func (uc *Checkout) submissionFailed(ctx context.Context, s *domain.Session, back domain.Stage, err error) error {
	if s.Checkout.CurrentStage() != back {
		if terr := transition(s, back); terr != nil {
			return fmt.Errorf("%w: %w", terr, err)
		}
	}
	s.Checkout.LastError = err.Error()
	uc.save(ctx, s)
	uc.metrics.CheckoutFailed("order_submission")
	logging.FromCtx(ctx).Warn("order submission failed", "session", s.ID, "method", s.Checkout.Method, "err", err)
	return fmt.Errorf("%w: %w", ErrOrderSubmission, err)
}

func (uc *Checkout) save(ctx context.Context, s *domain.Session) {
	s.UpdatedAt = uc.now()
	if err := uc.sessions.Save(context.WithoutCancel(ctx), s); err != nil {
		logging.FromCtx(ctx).Error("save session", "session", s.ID, "err", err)
	}
}

func (uc *Checkout) lock(ctx context.Context, sid string) (func(), error) {
	ok, err := uc.locks.TryLock(ctx, checkoutLockScope, sid)
	if err != nil {
		return nil, fmt.Errorf("checkout lock: %w", err)
	}
	if !ok {
		return nil, ErrCheckoutInProgress
	}
	return func() {
		_ = uc.locks.Release(context.WithoutCancel(ctx), checkoutLockScope, sid)
	}, nil
}

// transition moves the checkout to next when the stage table allows it.
func transition(s *domain.Session, next domain.Stage) error {
	from := s.Checkout.CurrentStage()
	if !from.CanTransition(next) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, next)
	}
	s.Checkout.Stage = next
	return nil
}

func ready(s *domain.Session) error {
	if s.Cart.IsEmpty() {
		return ErrEmptyCart
	}
	if !s.Checkout.Method.Valid() {
		return ErrNoPaymentMethod
	}
	if st := s.Checkout.CurrentStage(); st != domain.StageMethodSelection {
		return fmt.Errorf("%w: submit in %s", ErrInvalidTransition, st)
	}
	return nil
}

func awaitingPayment(s *domain.Session, intentID string) error {
	if st := s.Checkout.CurrentStage(); st != domain.StageRedirectToHostedPayment || s.Checkout.Pending == nil {
		return fmt.Errorf("%w: payment callback in %s", ErrInvalidTransition, st)
	}
	if s.Checkout.Pending.IntentID != intentID {
		return ErrPaymentMismatch
	}
	return nil
}

// checkoutKey is stable for one checkout attempt over the same cart. A new
// attempt starts after each completed order.
func checkoutKey(s *domain.Session) string {
	h := sha256.New()
	for _, it := range s.Cart.Items {
		fmt.Fprintf(h, "%s|%s|%d;", it.ProductID, it.UnitPrice.String(), it.Quantity)
	}
	return s.ID + ":" + strconv.Itoa(s.Checkout.Cycle) + ":" + hex.EncodeToString(h.Sum(nil))[:16]
}

func viewOf(s *domain.Session) CheckoutView {
	v := CheckoutView{
		Stage:       s.Checkout.CurrentStage(),
		Method:      s.Checkout.Method,
		Cart:        NewCartView(s.Cart),
		LastOrderID: s.Checkout.LastOrderID,
		LastError:   s.Checkout.LastError,
		Points:      int64(s.Points),
	}
	if p := s.Checkout.Pending; p != nil {
		v.PaymentIntentID = p.IntentID
		v.ClientSecret = p.ClientSecret
	}
	v.CanSubmit = ready(s) == nil
	return v
}
