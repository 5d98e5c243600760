package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/auth"
	"github.com/fjod/storefront/internal/checkout"
	d "github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/logging"
	"github.com/fjod/storefront/internal/session"
)

type CheckoutHandler struct {
	sessions *session.Manager
	timeout  time.Duration
}

func NewCheckoutHandler(sessions *session.Manager, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		sessions: sessions,
		timeout:  timeout,
	}
}

type SelectPaymentMethodRequestDTO struct {
	Method d.PaymentMethod `json:"method"`
}

type SubmitResponseDTO struct {
	Checkout checkout.View             `json:"checkout"`
	Errors   checkout.ValidationErrors `json:"errors,omitempty"`
}

type ConfirmResponseDTO struct {
	Result   d.SettlementResult `json:"result"`
	Checkout *checkout.View     `json:"checkout,omitempty"`
}

func (h *CheckoutHandler) Begin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := getIdentityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}
	machine, err := h.sessions.BeginCheckout(ctx, id)
	if err != nil {
		handleCheckoutError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, machine.View().Redacted())
}

// current resolves the caller's checkout, writing the error response itself
// when there is none.
func (h *CheckoutHandler) current(w http.ResponseWriter, r *http.Request) (*checkout.Machine, auth.Identity, bool) {
	id, ok := getIdentityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return nil, auth.Identity{}, false
	}
	machine, err := h.sessions.Checkout(id)
	if err != nil {
		handleCheckoutError(w, r, err)
		return nil, auth.Identity{}, false
	}
	return machine, id, true
}

func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	machine, _, ok := h.current(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, machine.View().Redacted())
}

func (h *CheckoutHandler) SelectPaymentMethod(w http.ResponseWriter, r *http.Request) {
	machine, _, ok := h.current(w, r)
	if !ok {
		return
	}
	var req SelectPaymentMethodRequestDTO
	if _, err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if err := machine.SelectPaymentMethod(req.Method); err != nil {
		handleCheckoutError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, machine.View().Redacted())
}

// Submit validates the posted form. An empty body resubmits the form the
// checkout already holds, e.g. after Cancel or a failed payment.
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	machine, _, ok := h.current(w, r)
	if !ok {
		return
	}

	var form checkout.Form
	hasBody, err := decodeJSON(r, &form)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	var errs checkout.ValidationErrors
	if hasBody {
		errs, err = machine.Submit(form)
	} else {
		errs, err = machine.Resubmit()
	}
	if err != nil {
		handleCheckoutError(w, r, err)
		return
	}

	status := http.StatusOK
	if !errs.Empty() {
		status = http.StatusUnprocessableEntity
	}
	respondJSON(w, status, SubmitResponseDTO{Checkout: machine.View().Redacted(), Errors: errs})
}

func (h *CheckoutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	machine, _, ok := h.current(w, r)
	if !ok {
		return
	}
	if err := machine.Cancel(); err != nil {
		handleCheckoutError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, machine.View().Redacted())
}

// Confirm runs the payment. It answers 200 with the order on success and 402
// with the failure message and the checkout, back in Details, otherwise.
func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	machine, id, ok := h.current(w, r)
	if !ok {
		return
	}

	result, err := h.sessions.ConfirmPayment(r.Context(), id)
	if err != nil {
		handleCheckoutError(w, r, err)
		return
	}
	if result.Success {
		respondJSON(w, http.StatusOK, ConfirmResponseDTO{Result: result})
		return
	}
	view := machine.View().Redacted()
	respondJSON(w, http.StatusPaymentRequired, ConfirmResponseDTO{Result: result, Checkout: &view})
}

func (h *CheckoutHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	id, ok := getIdentityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}
	if err := h.sessions.Abandon(id); err != nil {
		handleCheckoutError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func handleCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, checkout.ErrUnauthenticated):
		respondError(w, http.StatusUnauthorized, "unauthenticated", "sign in to checkout")
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", err.Error())
	case errors.Is(err, session.ErrNoCheckout):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, checkout.ErrAlreadyProcessing):
		respondError(w, http.StatusConflict, "already_processing", err.Error())
	case errors.Is(err, checkout.IllegalTransitionError):
		respondError(w, http.StatusConflict, "illegal_transition", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		logging.FromCtx(r.Context()).Error("checkout operation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
