package http

import (
	"net/http"
	"testing"

	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/logging"
	"github.com/fjod/storefront/internal/settlement"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kente(qty int) AddItemRequestDTO {
	return AddItemRequestDTO{
		ID:       "kente-1",
		Name:     "Kente Scarf",
		Price:    decimal.NewFromInt(40),
		Quantity: qty,
		Size:     "M",
		Color:    "gold",
	}
}

func TestCart_Unauthorized(t *testing.T) {
	s := newTestStorefront(t, settlement.NewProcessor(logging.Discard()))

	rec := s.do(t, http.MethodGet, "/api/v1/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decode[ErrorResponse](t, rec).Code)

	rec = s.do(t, http.MethodGet, "/api/v1/cart", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCart_GuestLifecycle(t *testing.T) {
	s := newTestStorefront(t, settlement.NewProcessor(logging.Discard()))
	guest := decode[SessionResponseDTO](t, s.do(t, http.MethodPost, "/api/v1/session", "", nil))
	require.NotEmpty(t, guest.Token)
	assert.Nil(t, guest.User)

	rec := s.do(t, http.MethodGet, "/api/v1/cart", guest.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	empty := decode[cart.Summary](t, rec)
	assert.Empty(t, empty.Items)
	assert.True(t, empty.DeliveryFee.IsZero())

	rec = s.do(t, http.MethodPost, "/api/v1/cart/items", guest.Token, kente(1))
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/v1/cart/items", guest.Token, kente(2))
	require.Equal(t, http.StatusCreated, rec.Code)

	summary := decode[cart.Summary](t, rec)
	require.Len(t, summary.Items, 1)
	assert.Equal(t, 3, summary.Items[0].Quantity)
	assert.Equal(t, 3, summary.ItemCount)
	assert.True(t, decimal.NewFromInt(120).Equal(summary.Subtotal))
	assert.True(t, decimal.NewFromInt(135).Equal(summary.Total))

	rec = s.do(t, http.MethodPut, "/api/v1/cart/items/kente-1", guest.Token, UpdateQuantityRequestDTO{Quantity: 5})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, decode[cart.Summary](t, rec).Items[0].Quantity)

	rec = s.do(t, http.MethodDelete, "/api/v1/cart/items/kente-1", guest.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[cart.Summary](t, rec).Items)

	rec = s.do(t, http.MethodDelete, "/api/v1/cart", guest.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCart_BadRequests(t *testing.T) {
	s := newTestStorefront(t, settlement.NewProcessor(logging.Discard()))
	token := s.signIn(t, "").Token

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"zero quantity", http.MethodPost, "/api/v1/cart/items", kente(0), http.StatusBadRequest, "invalid_quantity"},
		{"negative quantity", http.MethodPost, "/api/v1/cart/items", kente(-3), http.StatusBadRequest, "invalid_quantity"},
		{"missing id", http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{Quantity: 1}, http.StatusBadRequest, "invalid_item_id"},
		{"negative price", http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ID: "x", Quantity: 1, Price: decimal.NewFromInt(-1)}, http.StatusBadRequest, "invalid_price"},
		{"bad json", http.MethodPost, "/api/v1/cart/items", "not an object", http.StatusBadRequest, "invalid_request"},
		{"update unknown", http.MethodPut, "/api/v1/cart/items/nope", UpdateQuantityRequestDTO{Quantity: 2}, http.StatusNotFound, "not_found"},
		{"update zero", http.MethodPut, "/api/v1/cart/items/nope", UpdateQuantityRequestDTO{Quantity: 0}, http.StatusBadRequest, "invalid_quantity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, token, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decode[ErrorResponse](t, rec).Code)
		})
	}
}

func TestCart_LargeQuantities(t *testing.T) {
	s := newTestStorefront(t, settlement.NewProcessor(logging.Discard()))
	token := s.signIn(t, "").Token

	rec := s.do(t, http.MethodPost, "/api/v1/cart/items", token, kente(100))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 100, decode[cart.Summary](t, rec).Items[0].Quantity)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/api/v1/cart", token, nil).Code)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/v1/cart/items", token, kente(60)).Code)
	rec = s.do(t, http.MethodPost, "/api/v1/cart/items", token, kente(60))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 120, decode[cart.Summary](t, rec).Items[0].Quantity)

	rec = s.do(t, http.MethodPut, "/api/v1/cart/items/kente-1", token, UpdateQuantityRequestDTO{Quantity: 1})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodPut, "/api/v1/cart/items/kente-1", token, UpdateQuantityRequestDTO{Quantity: 120})
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[cart.Summary](t, rec)
	assert.Equal(t, 120, summary.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(4800).Equal(summary.Subtotal))
}

func TestCart_RemoveUnknownIsNoop(t *testing.T) {
	s := newTestStorefront(t, settlement.NewProcessor(logging.Discard()))
	token := s.signIn(t, "").Token

	rec := s.do(t, http.MethodDelete, "/api/v1/cart/items/nope", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSession_SignInKeepsGuestCart(t *testing.T) {
	s := newTestStorefront(t, settlement.NewProcessor(logging.Discard()))
	guest := decode[SessionResponseDTO](t, s.do(t, http.MethodPost, "/api/v1/session", "", nil))
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/v1/cart/items", guest.Token, kente(1)).Code)

	user := s.signIn(t, guest.Token)
	assert.Equal(t, guest.SessionID, user.SessionID)
	require.NotNil(t, user.User)
	assert.Equal(t, "kwame@example.com", user.User.Email)
	assert.NotEmpty(t, user.User.ID)

	again := s.signIn(t, "")
	assert.Equal(t, user.User.ID, again.User.ID, "user id is stable per email")
	assert.NotEqual(t, user.SessionID, again.SessionID)

	rec := s.do(t, http.MethodGet, "/api/v1/cart", user.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[cart.Summary](t, rec).Items, 1)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestStorefront(t, settlement.NewProcessor(logging.Discard()))

	rec := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "storefront_http_requests_total")
}
