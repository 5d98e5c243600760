package domain

type CheckoutState string

const (
	CheckoutStateDetails    CheckoutState = "DETAILS"
	CheckoutStateConfirm    CheckoutState = "CONFIRM"
	CheckoutStateProcessing CheckoutState = "PROCESSING"
	CheckoutStateSuccess    CheckoutState = "SUCCESS"
	CheckoutStateFailed     CheckoutState = "FAILED"
)

// Failed is transient: the machine passes through it back to Details.
var checkoutTransitions = map[CheckoutState][]CheckoutState{
	CheckoutStateDetails:    {CheckoutStateConfirm},
	CheckoutStateConfirm:    {CheckoutStateDetails, CheckoutStateProcessing},
	CheckoutStateProcessing: {CheckoutStateSuccess, CheckoutStateFailed},
	CheckoutStateFailed:     {CheckoutStateDetails},
	CheckoutStateSuccess:    {},
}

func CanTransitionTo(from, to CheckoutState) bool {
	for _, s := range checkoutTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutStateSuccess
}

// IsBusy reports whether a settlement call is outstanding.
func (s CheckoutState) IsBusy() bool {
	return s == CheckoutStateProcessing
}

// String representation (for logging)
func (s CheckoutState) String() string {
	return string(s)
}
