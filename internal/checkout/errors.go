package checkout

import "errors"

var (
	ErrEmptyCart           = errors.New("cart is empty, nothing to checkout")
	ErrUnauthenticated     = errors.New("checkout requires an authenticated user")
	ErrAlreadyProcessing   = errors.New("checkout is already processing a payment")
	IllegalTransitionError = errors.New("illegal transition of checkout state")
)
