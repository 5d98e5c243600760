package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	d "github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const timeoutMessage = "Payment is taking too long to confirm. Please try again."

// Dispatcher settles a confirmed checkout session. When it returns an error
// alongside a result carrying a message, that message is shown to the user.
type Dispatcher interface {
	Dispatch(ctx context.Context, session d.CheckoutSession) (d.SettlementResult, error)
}

// CartClearer empties the cart the session was started from.
type CartClearer interface {
	Clear(ctx context.Context) error
}

// Form is everything the user fills in on the details step.
type Form struct {
	Shipping d.ShippingDetails  `json:"shippingDetails"`
	Payment  d.PaymentSelection `json:"payment"`
}

type Options struct {
	DeliveryFee decimal.Decimal
	// SettlementTimeout bounds one Processing round-trip. Zero waits forever.
	SettlementTimeout time.Duration
	Log               *slog.Logger
	Now               func() time.Time
}

// Machine drives one checkout session through
// Details -> Confirm -> Processing -> Success | Failed -> Details.
type Machine struct {
	mu         sync.Mutex
	session    d.CheckoutSession
	errors     ValidationErrors
	failure    string
	result     *d.SettlementResult
	dispatcher Dispatcher
	cart       CartClearer
	timeout    time.Duration
	log        *slog.Logger
}

// New starts a session in Details from a copy of the cart. The form is
// prefilled with whatever is already known about the user.
func New(userID string, snapshot d.Cart, prefill Form, dispatcher Dispatcher, cart CartClearer, opts Options) (*Machine, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if snapshot.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}

	id := uuid.NewString()
	m := &Machine{
		session: d.CheckoutSession{
			ID:          id,
			UserID:      userID,
			Items:       d.CopyItems(snapshot.Items),
			Shipping:    prefill.Shipping,
			Payment:     prefill.Payment,
			DeliveryFee: opts.DeliveryFee,
			State:       d.CheckoutStateDetails,
			CreatedAt:   opts.Now().UTC(),
		},
		dispatcher: dispatcher,
		cart:       cart,
		timeout:    opts.SettlementTimeout,
		log:        opts.Log.With("checkout_id", id, "user_id", userID),
	}
	m.log.Info("checkout started", "items", len(m.session.Items), "total", m.session.Total().StringFixed(2))
	return m, nil
}

func (m *Machine) ID() string {
	return m.session.ID
}

// UserID is the account the checkout was started for.
func (m *Machine) UserID() string {
	return m.session.UserID
}

func (m *Machine) State() d.CheckoutState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.State
}

// transition moves the session to `to`. Callers hold m.mu.
func (m *Machine) transition(to d.CheckoutState) error {
	from := m.session.State
	if !d.CanTransitionTo(from, to) {
		if from.IsBusy() {
			return ErrAlreadyProcessing
		}
		return fmt.Errorf("%w: %s -> %s", IllegalTransitionError, from, to)
	}
	m.session.State = to
	metrics.CheckoutTransitions.WithLabelValues(from.String(), to.String()).Inc()
	m.log.Debug("checkout transition", "from", from, "to", to)
	return nil
}

// Submit stores the form and validates it. Valid input moves the session to
// Confirm; otherwise it stays in Details and the field errors are returned.
func (m *Machine) Submit(form Form) (ValidationErrors, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.State != d.CheckoutStateDetails {
		return nil, m.transition(d.CheckoutStateConfirm)
	}

	m.session.Shipping = form.Shipping
	m.session.Payment = form.Payment
	return m.submitLocked()
}

// Resubmit validates the form already held by the session. After Cancel or a
// failed payment this reaches Confirm again without re-entering anything.
func (m *Machine) Resubmit() (ValidationErrors, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.State != d.CheckoutStateDetails {
		return nil, m.transition(d.CheckoutStateConfirm)
	}
	return m.submitLocked()
}

func (m *Machine) submitLocked() (ValidationErrors, error) {
	errs := Validate(Form{Shipping: m.session.Shipping, Payment: m.session.Payment})
	if !errs.Empty() {
		m.errors = errs
		return errs.clone(), nil
	}
	m.errors = nil
	m.failure = ""
	return nil, m.transition(d.CheckoutStateConfirm)
}

// SelectPaymentMethod switches the active payment variant. Entered values of
// both variants are kept; errors of the inactive one are dropped.
func (m *Machine) SelectPaymentMethod(method d.PaymentMethod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.State != d.CheckoutStateDetails {
		return fmt.Errorf("%w: payment method can only change in %s", IllegalTransitionError, d.CheckoutStateDetails)
	}

	m.session.Payment.Method = method
	var inactive []string
	switch method {
	case d.PaymentMethodMobileMoney:
		inactive = cardFields
	case d.PaymentMethodCard:
		inactive = mobileMoneyFields
	default:
		inactive = append(slices.Clone(cardFields), mobileMoneyFields...)
	}
	for _, field := range inactive {
		delete(m.errors, field)
	}
	return nil
}

// Cancel returns from Confirm to Details keeping every entered value.
func (m *Machine) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transition(d.CheckoutStateDetails)
}

// ConfirmPayment runs the settlement round-trip. Only one call can be in
// flight; a second one gets ErrAlreadyProcessing. Payment or settlement
// failures are not returned as errors: the session goes back to Details
// with a failure message and the cart stays as it was.
func (m *Machine) ConfirmPayment(ctx context.Context) (d.SettlementResult, error) {
	m.mu.Lock()
	if err := m.transition(d.CheckoutStateProcessing); err != nil {
		m.mu.Unlock()
		return d.SettlementResult{}, err
	}
	session := m.snapshotLocked()
	m.mu.Unlock()

	// The caller going away must not abandon a charge half way.
	callCtx := context.WithoutCancel(ctx)
	if m.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(callCtx, m.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := m.dispatcher.Dispatch(callCtx, session)
	outcome := "success"
	switch {
	case err != nil:
		outcome = "error"
		result = d.SettlementResult{Success: false, Message: failureMessage(err, result.Message)}
	case !result.Success:
		outcome = "failed"
		if result.Message == "" {
			result.Message = "Payment failed"
		}
	}
	metrics.SettlementDuration.WithLabelValues(session.Payment.WireMethod(), outcome).
		Observe(float64(time.Since(start).Milliseconds()))

	if result.Success {
		if cerr := m.cart.Clear(context.WithoutCancel(ctx)); cerr != nil {
			m.log.Error("order placed but cart could not be cleared", "order_id", result.OrderID, "error", cerr)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if result.Success {
		_ = m.transition(d.CheckoutStateSuccess)
		m.result = &result
		m.log.Info("order placed", "order_id", result.OrderID, "transaction_id", result.TransactionID)
		return result, nil
	}

	_ = m.transition(d.CheckoutStateFailed)
	m.failure = result.Message
	m.log.Warn("payment failed", "reason", result.Message, "error", err)
	_ = m.transition(d.CheckoutStateDetails)
	return result, nil
}

func failureMessage(err error, message string) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return timeoutMessage
	case message != "":
		return message
	default:
		return err.Error()
	}
}

func (m *Machine) snapshotLocked() d.CheckoutSession {
	s := m.session
	s.Items = d.CopyItems(m.session.Items)
	return s
}

// View is a read-only copy of the session for display.
type View struct {
	Session       d.CheckoutSession   `json:"session"`
	Errors        ValidationErrors    `json:"errors,omitempty"`
	FailureReason string              `json:"failureReason,omitempty"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	Total         decimal.Decimal     `json:"total"`
	Result        *d.SettlementResult `json:"result,omitempty"`
}

func (m *Machine) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := View{
		Session:       m.snapshotLocked(),
		Errors:        m.errors.clone(),
		FailureReason: m.failure,
		Subtotal:      m.session.Subtotal(),
		Total:         m.session.Total(),
	}
	if m.result != nil {
		r := *m.result
		v.Result = &r
	}
	return v
}

// Redacted is the view with card data masked, for responses and logs.
func (v View) Redacted() View {
	v.Session.Payment.Card = v.Session.Payment.Card.Masked()
	return v
}
