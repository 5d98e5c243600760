package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/cart"
	d "github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/logging"
	"github.com/fjod/storefront/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type CartHandler struct {
	sessions *session.Manager
	timeout  time.Duration
}

func NewCartHandler(sessions *session.Manager, timeout time.Duration) *CartHandler {
	return &CartHandler{
		sessions: sessions,
		timeout:  timeout,
	}
}

type AddItemRequestDTO struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image,omitempty"`
	Quantity int             `json:"quantity"`
	Size     string          `json:"size,omitempty"`
	Color    string          `json:"color,omitempty"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

// openCart resolves the caller's cart store, writing the error response
// itself when it cannot.
func (h *CartHandler) openCart(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, *cart.Store, bool) {
	id, ok := getIdentityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return "", nil, false
	}
	store, err := h.sessions.Cart(ctx, id.SessionID)
	if err != nil {
		handleCartError(w, r, err)
		return "", nil, false
	}
	return id.SessionID, store, true
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	_, store, ok := h.openCart(ctx, w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, store.Summary(h.sessions.DeliveryFee()))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID, store, ok := h.openCart(ctx, w, r)
	if !ok {
		return
	}

	var req AddItemRequestDTO
	if _, err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "id is required")
		return
	}
	if req.Quantity < 1 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be at least 1")
		return
	}
	if req.Price.IsNegative() {
		respondError(w, http.StatusBadRequest, "invalid_price", "price must not be negative")
		return
	}

	err := store.AddItem(ctx, d.LineItem{
		ID:        req.ID,
		Name:      req.Name,
		UnitPrice: req.Price,
		Image:     req.Image,
		Quantity:  req.Quantity,
		Size:      req.Size,
		Color:     req.Color,
	})
	if err != nil {
		handleCartError(w, r, err)
		return
	}
	h.sessions.CartChanged(sessionID, store)
	respondJSON(w, http.StatusCreated, store.Summary(h.sessions.DeliveryFee()))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID, store, ok := h.openCart(ctx, w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if _, err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity < 1 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be at least 1")
		return
	}

	if err := store.UpdateQuantity(ctx, chi.URLParam(r, "id"), req.Quantity); err != nil {
		handleCartError(w, r, err)
		return
	}
	h.sessions.CartChanged(sessionID, store)
	respondJSON(w, http.StatusOK, store.Summary(h.sessions.DeliveryFee()))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID, store, ok := h.openCart(ctx, w, r)
	if !ok {
		return
	}
	if err := store.RemoveItem(ctx, chi.URLParam(r, "id")); err != nil {
		handleCartError(w, r, err)
		return
	}
	h.sessions.CartChanged(sessionID, store)
	respondJSON(w, http.StatusOK, store.Summary(h.sessions.DeliveryFee()))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID, store, ok := h.openCart(ctx, w, r)
	if !ok {
		return
	}
	if err := store.Clear(ctx); err != nil {
		handleCartError(w, r, err)
		return
	}
	h.sessions.CartChanged(sessionID, store)
	respondJSON(w, http.StatusOK, store.Summary(h.sessions.DeliveryFee()))
}

func handleCartError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, cart.ErrInvalidItem):
		respondError(w, http.StatusBadRequest, "invalid_item_id", err.Error())
	case errors.Is(err, cart.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, cart.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "cart storage timed out")
	default:
		logging.FromCtx(r.Context()).Error("cart operation failed", "error", err)
		respondError(w, http.StatusServiceUnavailable, "storage_unavailable", "cart could not be saved, please try again")
	}
}
