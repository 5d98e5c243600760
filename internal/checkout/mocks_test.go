package checkout

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	d "github.com/fjod/storefront/internal/domain"
)

type mockDispatcher struct {
	result  d.SettlementResult
	err     error
	calls   atomic.Int32
	release chan struct{} // when set, Dispatch blocks until closed
	entered chan struct{}

	mu   sync.Mutex
	seen []d.CheckoutSession
}

func (m *mockDispatcher) Dispatch(ctx context.Context, session d.CheckoutSession) (d.SettlementResult, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.seen = append(m.seen, session)
	m.mu.Unlock()

	if m.entered != nil {
		m.entered <- struct{}{}
	}
	if m.release != nil {
		select {
		case <-m.release:
		case <-ctx.Done():
			return d.SettlementResult{}, ctx.Err()
		}
	}
	return m.result, m.err
}

type mockCart struct {
	clears atomic.Int32
	err    error
}

func (m *mockCart) Clear(ctx context.Context) error {
	m.clears.Add(1)
	return m.err
}

var errSettlementDown = errors.New("settlement service unavailable")

func validForm() Form {
	return Form{
		Shipping: d.ShippingDetails{
			FirstName: "Kwame",
			LastName:  "Mensah",
			Email:     "kwame@example.com",
			Phone:     "0241234567",
			Address:   "12 Ring Road",
			City:      "Accra",
			Region:    "Greater Accra",
		},
		Payment: d.PaymentSelection{
			Method: d.PaymentMethodMobileMoney,
			MobileMoney: d.MobileMoneyDetails{
				Provider:    d.ProviderPrimary,
				PhoneNumber: "0241234567",
			},
		},
	}
}

func validCard() d.CardDetails {
	return d.CardDetails{
		Number:     "4111 1111 1111 1111",
		HolderName: "Kwame Mensah",
		Expiry:     "12/27",
		CVC:        "123",
	}
}
