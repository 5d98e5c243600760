package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/fjod/storefront/internal/auth"
	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/checkout"
	d "github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/events"
	"github.com/fjod/storefront/internal/logging"
	"github.com/fjod/storefront/internal/payment"
	"github.com/fjod/storefront/internal/repository"
	"github.com/fjod/storefront/internal/session"
	"github.com/fjod/storefront/internal/settlement"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	mu     sync.Mutex
	events []events.OrderPlaced
	err    error
}

func (m *mockPublisher) PublishOrderPlaced(ctx context.Context, ev events.OrderPlaced) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, ev)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

var _ events.Publisher = (*mockPublisher)(nil)

func (m *mockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

type mockOrderClient struct {
	err error
}

func (m mockOrderClient) SubmitOrder(ctx context.Context, req settlement.OrderRequest) (*settlement.OrderReceipt, error) {
	return nil, m.err
}

type testStorefront struct {
	handler http.Handler
	tokens  *auth.Tokens
}

// newTestStorefront wires the storefront router against orders, with no
// payment latency.
func newTestStorefront(t *testing.T, orders settlement.Client) *testStorefront {
	t.Helper()
	log := logging.Discard()
	tokens := auth.NewTokens("test-secret", "storefront", time.Hour)
	dispatcher := payment.NewDispatcher(
		payment.NewMobileMoney(0, log),
		payment.NewCard(0, payment.AlwaysApprove{}, log),
		orders,
		log,
	)
	sessions := session.NewManager(
		cart.NewRegistry(repository.NewMemoryRepository(), log),
		dispatcher,
		checkout.Options{DeliveryFee: d.DefaultDeliveryFee},
		log,
	)
	handler := NewStorefrontRouter(StorefrontDeps{
		Cart:           NewCartHandler(sessions, 5*time.Second),
		Checkout:       NewCheckoutHandler(sessions, 5*time.Second),
		Session:        NewSessionHandler(tokens, time.Hour),
		Tokens:         tokens,
		RequestTimeout: 10 * time.Second,
		MaxBodySize:    1 << 20,
	})
	return &testStorefront{handler: handler, tokens: tokens}
}

func (s *testStorefront) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testStorefront) signIn(t *testing.T, token string) SessionResponseDTO {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/session", token, SessionRequestDTO{
		FirstName: "Kwame",
		LastName:  "Mensah",
		Email:     "Kwame@Example.com",
		Phone:     "0241234567",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp SessionResponseDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func validCheckoutForm() checkout.Form {
	return checkout.Form{
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
			Method:      d.PaymentMethodMobileMoney,
			MobileMoney: d.MobileMoneyDetails{Provider: d.ProviderPrimary, PhoneNumber: "0241234567"},
		},
	}
}
