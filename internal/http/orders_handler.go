package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/events"
	"github.com/fjod/storefront/internal/logging"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/settlement"
)

const (
	idempotencyScope = "orders"
	replayHeader     = "Idempotent-Replayed"
)

type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Release(ctx context.Context, scope, key string) error
	Remember(ctx context.Context, scope, key string, value []byte) error
	Recall(ctx context.Context, scope, key string) ([]byte, bool, error)
}

// OrdersHandler serves the order endpoint the checkout settles against.
type OrdersHandler struct {
	orders    settlement.Client
	idem      IdempotencyStore
	publisher events.Publisher
	timeout   time.Duration
	now       func() time.Time
}

func NewOrdersHandler(orders settlement.Client, idem IdempotencyStore, publisher events.Publisher, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:    orders,
		idem:      idem,
		publisher: publisher,
		timeout:   timeout,
		now:       time.Now,
	}
}

func (h *OrdersHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	log := logging.FromCtx(ctx)

	var req settlement.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, settlement.OrderReceipt{Message: "Invalid request body"})
		return
	}

	key := r.Header.Get(settlement.IdempotencyHeader)
	if h.idem == nil {
		key = ""
	}
	if key != "" {
		stored, found, err := h.idem.Recall(ctx, idempotencyScope, key)
		switch {
		case err != nil:
			log.Warn("idempotency recall failed, processing without it", "error", err)
			key = ""
		case found:
			log.Info("duplicate order request replayed", "idempotency_key", key)
			w.Header().Set(replayHeader, "true")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(stored)
			return
		}
	}
	if key != "" {
		locked, err := h.idem.TryLock(ctx, idempotencyScope, key)
		switch {
		case err != nil:
			log.Warn("idempotency lock failed, processing without it", "error", err)
			key = ""
		case !locked:
			respondJSON(w, http.StatusConflict, settlement.OrderReceipt{Message: "Order is already being processed"})
			return
		}
	}

	receipt, err := h.orders.SubmitOrder(ctx, req)
	if err != nil {
		h.release(ctx, key)
		var serr *settlement.Error
		if errors.As(err, &serr) && errors.Is(err, settlement.ErrInvalidRequest) {
			metrics.OrdersAccepted.WithLabelValues(req.PaymentMethod, "rejected").Inc()
			respondJSON(w, http.StatusBadRequest, settlement.OrderReceipt{Message: serr.Message})
			return
		}
		metrics.OrdersAccepted.WithLabelValues(req.PaymentMethod, "error").Inc()
		log.Error("order processing failed", "error", err)
		respondJSON(w, http.StatusInternalServerError, settlement.OrderReceipt{Message: settlement.MessageFailure})
		return
	}

	body, err := json.Marshal(receipt)
	if err != nil {
		h.release(ctx, key)
		log.Error("failed to encode receipt", "error", err)
		respondJSON(w, http.StatusInternalServerError, settlement.OrderReceipt{Message: settlement.MessageFailure})
		return
	}
	if key != "" {
		if err := h.idem.Remember(ctx, idempotencyScope, key, body); err != nil {
			log.Warn("failed to remember order receipt", "order_id", receipt.OrderID, "error", err)
		}
	}

	// A lost event never fails an accepted order.
	if err := h.publisher.PublishOrderPlaced(ctx, events.NewOrderPlaced(req, receipt, h.now())); err != nil {
		log.Error("failed to publish order event", "order_id", receipt.OrderID, "error", err)
	}
	metrics.OrdersAccepted.WithLabelValues(req.PaymentMethod, "accepted").Inc()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *OrdersHandler) release(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := h.idem.Release(context.WithoutCancel(ctx), idempotencyScope, key); err != nil {
		logging.FromCtx(ctx).Warn("failed to release idempotency lock", "idempotency_key", key, "error", err)
	}
}
