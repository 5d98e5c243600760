package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/repository"
	"github.com/shopspring/decimal"
)

// Store owns the line items of one session. Every mutation is written
// through to the session's slot before it becomes visible; a failed write
// leaves the store unchanged.
type Store struct {
	mu        sync.RWMutex
	sessionID string
	items     []domain.LineItem
	repo      repository.CartRepository
	log       *slog.Logger
}

// Summary is the priced view of a cart shown next to the item list.
type Summary struct {
	Items       []domain.LineItem `json:"items"`
	ItemCount   int               `json:"itemCount"`
	Subtotal    decimal.Decimal   `json:"subtotal"`
	DeliveryFee decimal.Decimal   `json:"deliveryFee"`
	Total       decimal.Decimal   `json:"total"`
}

// Open rehydrates the store for sessionID. A missing, unreadable or corrupt
// slot yields an empty cart; only context errors are returned.
func Open(ctx context.Context, sessionID string, repo repository.CartRepository, log *slog.Logger) (*Store, error) {
	s := &Store{
		sessionID: sessionID,
		repo:      repo,
		log:       log.With("session_id", sessionID),
	}

	payload, err := repo.GetCart(ctx, sessionID)
	switch {
	case err == nil:
		s.items = s.decode(payload)
	case errors.Is(err, repository.ErrCartNotFound):
	case ctx.Err() != nil:
		return nil, fmt.Errorf("load cart: %w", ctx.Err())
	default:
		metrics.CartLoadFailures.Inc()
		s.log.Warn("cart storage unreadable, starting empty", "error", err)
	}
	return s, nil
}

func (s *Store) decode(payload []byte) []domain.LineItem {
	var items []domain.LineItem
	if err := json.Unmarshal(payload, &items); err != nil {
		metrics.CartLoadFailures.Inc()
		s.log.Warn("stored cart is corrupt, starting empty", "error", err)
		return nil
	}

	kept := items[:0]
	for _, item := range items {
		if item.ID == "" || item.Quantity < 1 {
			s.log.Warn("dropping invalid stored cart row", "item_id", item.ID, "quantity", item.Quantity)
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

func (s *Store) SessionID() string {
	return s.sessionID
}

// AddItem merges item into the row with the same (id, size, color), adding
// quantities, or appends a new row.
func (s *Store) AddItem(ctx context.Context, item domain.LineItem) error {
	if strings.TrimSpace(item.ID) == "" {
		return ErrInvalidItem
	}
	if item.Quantity < 1 {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := domain.CopyItems(s.items)
	merged := false
	for i := range next {
		if next[i].SameLine(item) {
			next[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		next = append(next, item)
	}
	return s.commit(ctx, "add", next)
}

// UpdateQuantity sets the quantity of every row with id. Quantities below one
// are rejected rather than clamped.
func (s *Store) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := domain.CopyItems(s.items)
	found := false
	for i := range next {
		if next[i].ID == id {
			next[i].Quantity = quantity
			found = true
		}
	}
	if !found {
		return ErrItemNotFound
	}
	return s.commit(ctx, "update", next)
}

// RemoveItem drops every row with id regardless of size and color.
// Removing an id that is not in the cart is a no-op.
func (s *Store) RemoveItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]domain.LineItem, 0, len(s.items))
	for _, item := range s.items {
		if item.ID != id {
			next = append(next, item)
		}
	}
	if len(next) == len(s.items) {
		return nil
	}
	return s.commit(ctx, "remove", next)
}

// Clear empties the cart. Clearing an empty cart succeeds.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, "clear", nil)
}

// commit persists next and swaps it in. Callers hold s.mu.
func (s *Store) commit(ctx context.Context, op string, next []domain.LineItem) error {
	if next == nil {
		next = []domain.LineItem{}
	}
	payload, err := json.Marshal(next)
	if err != nil {
		metrics.CartMutations.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	if err := s.repo.UpsertCart(ctx, s.sessionID, payload); err != nil {
		metrics.CartMutations.WithLabelValues(op, "error").Inc()
		s.log.Error("cart persist failed", "op", op, "error", err)
		return fmt.Errorf("persist cart: %w", err)
	}
	s.items = next
	metrics.CartMutations.WithLabelValues(op, "ok").Inc()
	return nil
}

// Items returns a copy of the current rows in insertion order.
func (s *Store) Items() []domain.LineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CopyItems(s.items)
}

// Snapshot is the cart copy a checkout session starts from.
func (s *Store) Snapshot() domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Cart{SessionID: s.sessionID, Items: domain.CopyItems(s.items)}
}

func (s *Store) Subtotal() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Subtotal(s.items)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) IsEmpty() bool {
	return s.Len() == 0
}

// Summary prices the cart. No delivery fee is charged on an empty cart.
func (s *Store) Summary(deliveryFee decimal.Decimal) Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, item := range s.items {
		count += item.Quantity
	}
	subtotal := domain.Subtotal(s.items)
	fee := decimal.Zero
	if len(s.items) > 0 {
		fee = deliveryFee
	}
	items := domain.CopyItems(s.items)
	if items == nil {
		items = []domain.LineItem{}
	}
	return Summary{
		Items:       items,
		ItemCount:   count,
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Total:       subtotal.Add(fee),
	}
}
