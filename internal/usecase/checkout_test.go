package usecase_test

import (
	"context"
	"errors"
	"testing"

	domain "github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/entity"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/usecase"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/usecase/usecasetest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readyCheckout returns a session holding two units of a 120 product, in
// method selection with method selected.
func readyCheckout(t *testing.T, e *usecasetest.Env, method string) string {
	t.Helper()
	ctx := context.Background()
	sid := e.NewSession()
	for i := 0; i < 2; i++ {
		_, err := e.Cart.AddItem(ctx, sid, "p1")
		require.NoError(t, err)
	}
	_, err := e.Checkout.Open(ctx, sid)
	require.NoError(t, err)
	if method != "" {
		_, err = e.Checkout.SelectMethod(ctx, sid, method)
		require.NoError(t, err)
	}
	return sid
}

func newEnv() *usecasetest.Env {
	return usecasetest.NewEnv(
		usecasetest.Product("p1", "120", ""),
		usecasetest.Product("p2", "100", "70"),
		usecasetest.Product("p3", "600", ""),
	)
}

func TestCheckout_CashOnDelivery_CompletesOrder(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	sid := readyCheckout(t, e, "cash_on_delivery")

	res, err := e.Checkout.Submit(ctx, sid)
	require.NoError(t, err)
	require.NotNil(t, res.Receipt)
	assert.Equal(t, int64(290), res.Receipt.PointsEarned)
	assert.Equal(t, domain.StatusCompleted, res.Receipt.Status)
	assert.Equal(t, domain.StageCompleted, res.Stage)

	s := e.Sessions.Get(sid)
	assert.True(t, s.Cart.IsEmpty())
	assert.Equal(t, domain.Points(10+290), s.Points, "two add-to-cart rewards plus the order")
	assert.Equal(t, domain.PaymentNone, s.Checkout.Method)
	assert.Equal(t, res.Receipt.OrderID, s.Checkout.LastOrderID)

	require.Len(t, e.OrderSvc.Calls, 1)
	call := e.OrderSvc.Calls[0]
	assert.True(t, decimal.RequireFromString("290").Equal(call.Total))
	assert.Equal(t, int64(290), call.PointsEarned)
	assert.Equal(t, domain.StatusCompleted, call.Status)

	orders := e.Orders.All()
	require.Len(t, orders, 1)
	assert.Equal(t, "completed", orders[0].Status)
	assert.True(t, decimal.RequireFromString("50").Equal(orders[0].Shipping))
	assert.Len(t, e.Orders.Outbox(), 1)
	assert.Equal(t, 1, e.Metrics.Placed["cash_on_delivery"])
}

func TestCheckout_SubmissionFailure_KeepsCartAndPoints(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	sid := readyCheckout(t, e, "peer_transfer")
	e.OrderSvc.Err = errors.New("connection reset")

	_, err := e.Checkout.Submit(ctx, sid)
	require.ErrorIs(t, err, usecase.ErrOrderSubmission)

	s := e.Sessions.Get(sid)
	assert.Equal(t, domain.StageMethodSelection, s.Checkout.Stage)
	assert.Equal(t, domain.PaymentPeerTransfer, s.Checkout.Method)
	require.Len(t, s.Cart.Items, 1)
	assert.Equal(t, 2, s.Cart.Items[0].Quantity)
	assert.Equal(t, domain.Points(10), s.Points)
	assert.NotEmpty(t, s.Checkout.LastError)
	assert.Empty(t, e.Orders.All())

	// the shopper retries once the service is back
	e.OrderSvc.Err = nil
	res, err := e.Checkout.Submit(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, domain.StageCompleted, res.Stage)
	assert.Equal(t, domain.Points(300), e.Sessions.Get(sid).Points)
}

func TestCheckout_RejectedServerSide_ReturnsToMethodSelection(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	sid := readyCheckout(t, e, "hosted_wallet")

	// catalog price changed after the item was added
	e.Products = usecasetest.NewProducts(usecasetest.Product("p1", "125", ""))
	e.OrderSvc.Next = usecase.NewPlaceOrder(e.Orders, e.Products, e.Idem, e.Cache, "MXN")

	_, err := e.Checkout.Submit(ctx, sid)
	require.ErrorIs(t, err, usecase.ErrOrderSubmission)
	assert.ErrorIs(t, err, usecase.ErrPriceMismatch)
	s := e.Sessions.Get(sid)
	assert.Equal(t, domain.StageMethodSelection, s.Checkout.Stage)
	assert.Len(t, s.Cart.Items, 1)
}

func TestCheckout_Preconditions(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	sid := e.NewSession()
	_, err := e.Checkout.Open(ctx, sid)
	assert.ErrorIs(t, err, usecase.ErrEmptyCart)

	_, err = e.Checkout.Submit(ctx, sid)
	assert.ErrorIs(t, err, usecase.ErrEmptyCart)

	sid = readyCheckout(t, e, "")
	_, err = e.Checkout.Submit(ctx, sid)
	assert.ErrorIs(t, err, usecase.ErrNoPaymentMethod)

	_, err = e.Checkout.SelectMethod(ctx, sid, "crypto")
	assert.ErrorIs(t, err, usecase.ErrInvalidPaymentMethod)

	assert.Empty(t, e.OrderSvc.Calls)
	assert.Empty(t, e.Intents.Requests)

	v, err := e.Checkout.View(ctx, sid)
	require.NoError(t, err)
	assert.False(t, v.CanSubmit)
}

func TestCheckout_SelectMethodOutsideSelection(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	sid := e.NewSession()
	_, err := e.Cart.AddItem(ctx, sid, "p1")
	require.NoError(t, err)

	_, err = e.Checkout.SelectMethod(ctx, sid, "card")
	assert.ErrorIs(t, err, usecase.ErrInvalidTransition)
}

func TestCheckout_CardFlow(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	sid := readyCheckout(t, e, "card")

	res, err := e.Checkout.Submit(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, domain.StageRedirectToHostedPayment, res.Stage)
	assert.NotEmpty(t, res.ClientSecret)
	assert.Nil(t, res.Receipt)
	assert.Empty(t, e.OrderSvc.Calls, "no order before the processor confirms")

	require.Len(t, e.Intents.Requests, 1)
	req := e.Intents.Requests[0]
	assert.True(t, decimal.RequireFromString("290").Equal(req.Amount))
	assert.Equal(t, sid, req.Metadata["sessionId"])

	_, err = e.Checkout.ConfirmHostedPayment(ctx, sid, "pi_other", decimal.RequireFromString("290"))
	assert.ErrorIs(t, err, usecase.ErrPaymentMismatch)

	done, err := e.Checkout.ConfirmHostedPayment(ctx, sid, res.PaymentIntentID, decimal.RequireFromString("290"))
	require.NoError(t, err)
	require.NotNil(t, done.Receipt)
	assert.Equal(t, domain.StatusPending, done.Receipt.Status)
	assert.Equal(t, domain.Points(300), e.Sessions.Get(sid).Points)

	rec, err := e.Orders.GetByID(ctx, done.Receipt.OrderID)
	require.NoError(t, err)
	assert.Equal(t, res.PaymentIntentID, rec.PaymentRef)

	// redelivered confirmation is refused and credits nothing
	_, err = e.Checkout.ConfirmHostedPayment(ctx, sid, res.PaymentIntentID, decimal.RequireFromString("290"))
	assert.ErrorIs(t, err, usecase.ErrInvalidTransition)
	assert.Equal(t, domain.Points(300), e.Sessions.Get(sid).Points)

	require.NoError(t, e.PlaceOrder.MarkPaymentResult(ctx, done.Receipt.OrderID, true))
	v, err := e.PlaceOrder.Get(ctx, sid, done.Receipt.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, v.Status)
}

func TestCheckout_CardFailureAndCancel(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	sid := readyCheckout(t, e, "card")

	res, err := e.Checkout.Submit(ctx, sid)
	require.NoError(t, err)

	err = e.Checkout.FailHostedPayment(ctx, sid, res.PaymentIntentID, "Tarjeta rechazada")
	require.ErrorIs(t, err, usecase.ErrHostedPaymentFailed)
	var pf *usecase.PaymentFailure
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, "Tarjeta rechazada", pf.Message)

	s := e.Sessions.Get(sid)
	assert.Equal(t, domain.StageMethodSelection, s.Checkout.Stage)
	assert.Nil(t, s.Checkout.Pending)
	assert.Len(t, s.Cart.Items, 1)
	assert.Equal(t, domain.Points(10), s.Points)

	_, err = e.Checkout.Submit(ctx, sid)
	require.NoError(t, err)
	v, err := e.Checkout.Cancel(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, domain.StageMethodSelection, v.Stage)
	assert.Empty(t, v.ClientSecret)

	_, err = e.Checkout.Cancel(ctx, sid)
	assert.ErrorIs(t, err, usecase.ErrInvalidTransition)
	assert.Empty(t, e.Orders.All())
}

func TestCheckout_PaymentIntentError(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	sid := readyCheckout(t, e, "card")
	e.Intents.Err = &usecase.PaymentFailure{Message: "fondos insuficientes"}

	_, err := e.Checkout.Submit(ctx, sid)
	assert.ErrorIs(t, err, usecase.ErrPaymentIntent)
	assert.ErrorIs(t, err, usecase.ErrHostedPaymentFailed)
	assert.Equal(t, domain.StageMethodSelection, e.Sessions.Get(sid).Checkout.Stage)
	assert.Equal(t, 1, e.Metrics.Failed["payment_intent"])
}

func TestCheckout_ConcurrentSubmitIsRejected(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	sid := readyCheckout(t, e, "cash_on_delivery")

	ok, err := e.Locks.TryLock(ctx, "checkout", sid)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = e.Checkout.Submit(ctx, sid)
	assert.ErrorIs(t, err, usecase.ErrCheckoutInProgress)
	assert.Empty(t, e.OrderSvc.Calls)

	require.NoError(t, e.Locks.Release(ctx, "checkout", sid))
	_, err = e.Checkout.Submit(ctx, sid)
	require.NoError(t, err)
	assert.False(t, e.Locks.Locked("checkout", sid), "lock released after submit")
}

func TestCheckout_LostSaveReplaysWithoutDoubleCredit(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	sid := readyCheckout(t, e, "cash_on_delivery")

	e.Sessions.SaveErr = errors.New("redis down")
	_, err := e.Checkout.Submit(ctx, sid)
	require.Error(t, err)
	e.Sessions.SaveErr = nil

	s := e.Sessions.Get(sid)
	assert.Len(t, s.Cart.Items, 1)
	assert.Equal(t, domain.Points(10), s.Points)

	res, err := e.Checkout.Submit(ctx, sid)
	require.NoError(t, err)
	assert.Len(t, e.Orders.All(), 1, "replay returns the stored receipt")
	assert.Equal(t, res.Receipt.OrderID, e.Orders.All()[0].ID)
	assert.Equal(t, domain.Points(300), e.Sessions.Get(sid).Points)
}

func TestCheckout_OpenAfterCompletionStartsNewCycle(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	sid := readyCheckout(t, e, "cash_on_delivery")
	_, err := e.Checkout.Submit(ctx, sid)
	require.NoError(t, err)

	_, err = e.Cart.AddItem(ctx, sid, "p1")
	require.NoError(t, err)
	_, err = e.Cart.AddItem(ctx, sid, "p1")
	require.NoError(t, err)
	v, err := e.Checkout.Open(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, domain.StageMethodSelection, v.Stage)
	_, err = e.Checkout.SelectMethod(ctx, sid, "cash_on_delivery")
	require.NoError(t, err)

	_, err = e.Checkout.Submit(ctx, sid)
	require.NoError(t, err)
	assert.Len(t, e.Orders.All(), 2, "same cart in a new cycle is a new order")
}

func TestCheckout_CartLockedWhileHostedPaymentOpen(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	sid := readyCheckout(t, e, "card")

	res, err := e.Checkout.Submit(ctx, sid)
	require.NoError(t, err)

	_, err = e.Cart.AddItem(ctx, sid, "p3")
	assert.ErrorIs(t, err, usecase.ErrInvalidTransition)
	_, err = e.Cart.SetQuantity(ctx, sid, "p1", 5)
	assert.ErrorIs(t, err, usecase.ErrInvalidTransition)
	_, err = e.Cart.RemoveItem(ctx, sid, "p1")
	assert.ErrorIs(t, err, usecase.ErrInvalidTransition)
	_, err = e.Cart.Clear(ctx, sid)
	assert.ErrorIs(t, err, usecase.ErrInvalidTransition)
	_, err = e.Checkout.Open(ctx, sid)
	assert.ErrorIs(t, err, usecase.ErrInvalidTransition)

	s := e.Sessions.Get(sid)
	require.Len(t, s.Cart.Items, 1)
	assert.Equal(t, 2, s.Cart.Items[0].Quantity)
	assert.Equal(t, domain.Points(10), s.Points, "refused add pays no reward")

	done, err := e.Checkout.ConfirmHostedPayment(ctx, sid, res.PaymentIntentID, decimal.RequireFromString("290"))
	require.NoError(t, err)
	require.NotNil(t, done.Receipt)
	orders := e.Orders.All()
	require.Len(t, orders, 1)
	assert.True(t, decimal.RequireFromString("290").Equal(orders[0].Total))
	assert.Equal(t, 1, e.Metrics.Placed["card"])

	_, err = e.Cart.AddItem(ctx, sid, "p3")
	assert.NoError(t, err, "a completed checkout unlocks the cart")
}

func TestCheckout_CancelUnlocksCart(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	sid := readyCheckout(t, e, "card")

	first, err := e.Checkout.Submit(ctx, sid)
	require.NoError(t, err)
	_, err = e.Checkout.Cancel(ctx, sid)
	require.NoError(t, err)

	v, err := e.Cart.AddItem(ctx, sid, "p3")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("840").Equal(v.Total))

	_, err = e.Checkout.SelectMethod(ctx, sid, "card")
	require.NoError(t, err)
	second, err := e.Checkout.Submit(ctx, sid)
	require.NoError(t, err)
	require.Len(t, e.Intents.Requests, 2)
	assert.True(t, decimal.RequireFromString("840").Equal(e.Intents.Requests[1].Amount))
	assert.NotEqual(t, first.PaymentIntentID, second.PaymentIntentID, "edited cart gets a new intent")

	_, err = e.Checkout.ConfirmHostedPayment(ctx, sid, first.PaymentIntentID, decimal.RequireFromString("290"))
	assert.ErrorIs(t, err, usecase.ErrPaymentMismatch)
	_, err = e.Checkout.ConfirmHostedPayment(ctx, sid, second.PaymentIntentID, decimal.RequireFromString("840"))
	require.NoError(t, err)
}

func TestCheckout_ConfirmedAmountMustMatchIntent(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	sid := readyCheckout(t, e, "card")

	res, err := e.Checkout.Submit(ctx, sid)
	require.NoError(t, err)

	_, err = e.Checkout.ConfirmHostedPayment(ctx, sid, res.PaymentIntentID, decimal.RequireFromString("250"))
	require.ErrorIs(t, err, usecase.ErrPaymentMismatch)
	assert.Empty(t, e.OrderSvc.Calls)
	assert.Equal(t, 1, e.Metrics.Failed["amount_mismatch"])
	assert.Equal(t, domain.StageRedirectToHostedPayment, e.Sessions.Get(sid).Checkout.Stage)

	_, err = e.Checkout.ConfirmHostedPayment(ctx, sid, res.PaymentIntentID, decimal.RequireFromString("290.00"))
	require.NoError(t, err)
	assert.Len(t, e.Orders.All(), 1)
}

func TestCheckout_ConfirmedPaymentRetriesFailedOrder(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	sid := readyCheckout(t, e, "card")

	res, err := e.Checkout.Submit(ctx, sid)
	require.NoError(t, err)

	e.OrderSvc.Err = errors.New("connection reset")
	_, err = e.Checkout.ConfirmHostedPayment(ctx, sid, res.PaymentIntentID, decimal.RequireFromString("290"))
	require.ErrorIs(t, err, usecase.ErrOrderSubmission)

	s := e.Sessions.Get(sid)
	assert.Equal(t, domain.StageRedirectToHostedPayment, s.Checkout.Stage)
	require.NotNil(t, s.Checkout.Pending)
	assert.Equal(t, res.PaymentIntentID, s.Checkout.Pending.IntentID)
	assert.Len(t, s.Cart.Items, 1)

	e.OrderSvc.Err = nil
	done, err := e.Checkout.ConfirmHostedPayment(ctx, sid, res.PaymentIntentID, decimal.RequireFromString("290"))
	require.NoError(t, err)
	assert.Equal(t, domain.StageCompleted, done.Stage)
	assert.Equal(t, domain.Points(300), e.Sessions.Get(sid).Points)
}
