package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/logging"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/usecase"
	"github.com/gin-gonic/gin"
)

type errorResp struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

type errorRule struct {
	target    error
	status    int
	code      string
	message   string
	retryable bool
}

// errorRules is matched in order; the first errors.Is hit wins. Price and
// total mismatches come before ErrOrderSubmission, which wraps them.
var errorRules = []errorRule{
	{usecase.ErrSessionNotFound, http.StatusUnauthorized, "session_expired", "Tu sesión expiró. Vuelve a cargar la página.", false},
	{usecase.ErrInvalidWholesaleCredentials, http.StatusUnauthorized, "invalid_wholesale_credentials", "Código o correo de mayoreo incorrectos.", false},
	{usecase.ErrProductNotFound, http.StatusNotFound, "product_not_found", "El producto no existe o ya no está disponible.", false},
	{usecase.ErrOrderNotFound, http.StatusNotFound, "order_not_found", "No encontramos ese pedido.", false},
	{usecase.ErrInvalidInput, http.StatusBadRequest, "invalid_input", "Revisa los datos enviados.", false},
	{usecase.ErrEmptyCart, http.StatusConflict, "empty_cart", "Tu carrito está vacío.", false},
	{usecase.ErrNoPaymentMethod, http.StatusUnprocessableEntity, "no_payment_method", "Selecciona un método de pago.", false},
	{usecase.ErrInvalidPaymentMethod, http.StatusUnprocessableEntity, "invalid_payment_method", "Ese método de pago no está disponible.", false},
	{usecase.ErrInvalidTransition, http.StatusConflict, "invalid_checkout_step", "Este paso del pago ya no es válido. Actualiza la página.", false},
	{usecase.ErrCheckoutInProgress, http.StatusConflict, "checkout_in_progress", "Ya estamos procesando tu pedido.", true},
	{usecase.ErrPaymentMismatch, http.StatusConflict, "payment_mismatch", "El pago no corresponde a tu pedido.", false},
	{usecase.ErrPriceMismatch, http.StatusConflict, "price_changed", "Los precios cambiaron. Revisa tu carrito.", false},
	{usecase.ErrTotalMismatch, http.StatusConflict, "price_changed", "Los precios cambiaron. Revisa tu carrito.", false},
	{usecase.ErrDuplicate, http.StatusConflict, "duplicate_order", "Ese pedido ya se está procesando.", false},
	{usecase.ErrInvalidOrder, http.StatusUnprocessableEntity, "invalid_order", "El pedido no es válido.", false},
	{usecase.ErrRewardRedeemed, http.StatusConflict, "reward_already_claimed", "Ya reclamaste esta recompensa hoy.", false},
	{usecase.ErrPaymentIntent, http.StatusBadGateway, "payment_unavailable", "No pudimos iniciar el pago. Intenta de nuevo.", true},
	{usecase.ErrOrderSubmission, http.StatusBadGateway, "order_failed", "No pudimos registrar tu pedido. Intenta de nuevo.", true},
}

// writeError maps a use case error to a status, a stable code and a message
// the storefront can show as is.
func writeError(c *gin.Context, err error) {
	resp, status := describe(err)
	if status >= http.StatusInternalServerError {
		logging.From(c).Error("request failed", "code", resp.Error, "err", err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

func describe(err error) (errorResp, int) {
	// a decline carries the processor's own words
	var pf *usecase.PaymentFailure
	if errors.As(err, &pf) {
		return errorResp{
			Error:   "payment_failed",
			Message: "El pago no se pudo completar: " + pf.Message,
		}, http.StatusPaymentRequired
	}

	for _, r := range errorRules {
		if !errors.Is(err, r.target) {
			continue
		}
		status := r.status
		if r.retryable && errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		return errorResp{Error: r.code, Message: r.message, Retryable: r.retryable}, status
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return errorResp{Error: "timeout", Message: "El servicio tardó demasiado. Intenta de nuevo.", Retryable: true}, http.StatusGatewayTimeout
	}
	return errorResp{Error: "internal", Message: "Ocurrió un error inesperado."}, http.StatusInternalServerError
}

func badRequest(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResp{Error: "bad_request", Message: "Revisa los datos enviados."})
}
