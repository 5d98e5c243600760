package cart

import "errors"

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrInvalidItem     = errors.New("item id is required")
	ErrItemNotFound    = errors.New("item not found in cart")
)
