package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/auth"
	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/checkout"
	d "github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

var ErrNoCheckout = errors.New("no checkout in progress")

// Manager owns the per-session state: the cart store and at most one
// checkout started from it.
type Manager struct {
	carts      *cart.Registry
	dispatcher checkout.Dispatcher
	opts       checkout.Options
	log        *slog.Logger

	mu        sync.Mutex
	checkouts map[string]*checkout.Machine
	settling  map[string]bool // confirm calls in flight, set before the machine is reached
}

func NewManager(carts *cart.Registry, dispatcher checkout.Dispatcher, opts checkout.Options, log *slog.Logger) *Manager {
	if opts.Log == nil {
		opts.Log = log
	}
	return &Manager{
		carts:      carts,
		dispatcher: dispatcher,
		opts:       opts,
		log:        log,
		checkouts:  make(map[string]*checkout.Machine),
		settling:   make(map[string]bool),
	}
}

func (m *Manager) DeliveryFee() decimal.Decimal {
	return m.opts.DeliveryFee
}

func (m *Manager) Cart(ctx context.Context, sessionID string) (*cart.Store, error) {
	return m.carts.Open(ctx, sessionID)
}

// BeginCheckout starts checkout from the session's current cart. An
// unfinished checkout of the same user is returned as is so a page reload
// keeps the form; one left behind by another user is replaced.
func (m *Manager) BeginCheckout(ctx context.Context, id auth.Identity) (*checkout.Machine, error) {
	if id.User.ID == "" {
		return nil, checkout.ErrUnauthenticated
	}
	store, err := m.carts.Open(ctx, id.SessionID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.checkouts[id.SessionID]; ok {
		if m.busyLocked(id.SessionID, existing) {
			return nil, checkout.ErrAlreadyProcessing
		}
		if existing.UserID() == id.User.ID && !existing.State().IsTerminal() {
			return existing, nil
		}
	}

	machine, err := checkout.New(id.User.ID, store.Snapshot(), prefill(id.User), m.dispatcher, store, m.opts)
	if err != nil {
		return nil, err
	}
	m.checkouts[id.SessionID] = machine
	return machine, nil
}

// prefill copies what the account already knows into the shipping form.
func prefill(u d.User) checkout.Form {
	return checkout.Form{
		Shipping: d.ShippingDetails{
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Email:     u.Email,
			Phone:     u.Phone,
		},
		Payment: d.PaymentSelection{
			Method:      d.PaymentMethodMobileMoney,
			MobileMoney: d.MobileMoneyDetails{Provider: d.ProviderPrimary},
		},
	}
}

// Checkout returns the caller's checkout. A checkout started by another
// user on the same session is not visible.
func (m *Manager) Checkout(id auth.Identity) (*checkout.Machine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkoutLocked(id)
}

func (m *Manager) checkoutLocked(id auth.Identity) (*checkout.Machine, error) {
	machine, ok := m.checkouts[id.SessionID]
	if !ok || id.User.ID == "" || machine.UserID() != id.User.ID {
		return nil, ErrNoCheckout
	}
	return machine, nil
}

func (m *Manager) busyLocked(sessionID string, machine *checkout.Machine) bool {
	return m.settling[sessionID] || machine.State().IsBusy()
}

// ConfirmPayment settles the caller's checkout. The session is marked as
// settling before the manager lock is released, so it cannot be abandoned
// or replaced until the call returns. A successful checkout is destroyed
// once its result has been handed back.
func (m *Manager) ConfirmPayment(ctx context.Context, id auth.Identity) (d.SettlementResult, error) {
	m.mu.Lock()
	machine, err := m.checkoutLocked(id)
	if err != nil {
		m.mu.Unlock()
		return d.SettlementResult{}, err
	}
	if m.settling[id.SessionID] {
		m.mu.Unlock()
		return d.SettlementResult{}, checkout.ErrAlreadyProcessing
	}
	m.settling[id.SessionID] = true
	m.mu.Unlock()

	result, err := machine.ConfirmPayment(ctx)

	m.mu.Lock()
	delete(m.settling, id.SessionID)
	succeeded := err == nil && result.Success && m.checkouts[id.SessionID] == machine
	if succeeded {
		delete(m.checkouts, id.SessionID)
	}
	m.mu.Unlock()

	if err != nil {
		return result, err
	}
	if succeeded {
		m.carts.Forget(id.SessionID)
	}
	return result, nil
}

// Abandon destroys the caller's checkout. A checkout waiting on settlement
// cannot be abandoned.
func (m *Manager) Abandon(id auth.Identity) error {
	m.mu.Lock()
	machine, err := m.checkoutLocked(id)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if m.busyLocked(id.SessionID, machine) {
		m.mu.Unlock()
		return checkout.ErrAlreadyProcessing
	}
	delete(m.checkouts, id.SessionID)
	m.mu.Unlock()

	m.carts.Forget(id.SessionID)
	m.log.Info("checkout abandoned", "session_id", id.SessionID, "checkout_id", machine.ID())
	return nil
}

// CartChanged drops an idle checkout once its cart has been emptied.
func (m *Manager) CartChanged(sessionID string, store *cart.Store) {
	if !store.IsEmpty() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	machine, ok := m.checkouts[sessionID]
	if !ok || m.busyLocked(sessionID, machine) {
		return
	}
	delete(m.checkouts, sessionID)
	m.log.Info("checkout dropped, cart is empty", "session_id", sessionID, "checkout_id", machine.ID())
}

func (m *Manager) hasCheckout(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.checkouts[sessionID]
	return ok || m.settling[sessionID]
}

// Sweep forgets cart stores not used for idle. Sessions with a checkout
// keep theirs, the checkout holds a reference to it.
func (m *Manager) Sweep(idle time.Duration) int {
	return m.carts.EvictIdle(time.Now().Add(-idle), m.hasCheckout)
}

// RunJanitor sweeps idle cart stores every interval until ctx is done.
func (m *Manager) RunJanitor(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.Sweep(idle); n > 0 {
				m.log.Debug("evicted idle carts", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
