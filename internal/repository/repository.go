package repository

import (
	"context"
	"errors"
)

var ErrCartNotFound = errors.New("cart not found")

// CartRepository is the per-session storage slot holding the serialized item
// collection. It does not interpret the payload.
type CartRepository interface {
	GetCart(ctx context.Context, sessionID string) ([]byte, error)
	UpsertCart(ctx context.Context, sessionID string, payload []byte) error
	DeleteCart(ctx context.Context, sessionID string) error
}
