package payment

import (
	"context"

	d "github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/settlement"
	"github.com/shopspring/decimal"
)

type mockOrders struct {
	receipt *settlement.OrderReceipt
	err     error
	calls   int
	last    settlement.OrderRequest
}

func (m *mockOrders) SubmitOrder(ctx context.Context, req settlement.OrderRequest) (*settlement.OrderReceipt, error) {
	m.calls++
	m.last = req
	return m.receipt, m.err
}

type mockAuthorizer struct {
	approve bool
	reason  string
}

func (m mockAuthorizer) Authorize(d.CardDetails, decimal.Decimal) (bool, string) {
	return m.approve, m.reason
}

func testSession(method d.PaymentMethod) d.CheckoutSession {
	return d.CheckoutSession{
		ID:     "chk-1",
		UserID: "user-1",
		Items: []d.LineItem{
			{ID: "kente-1", Name: "Kente Scarf", UnitPrice: decimal.NewFromInt(40), Quantity: 3},
		},
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
			Method:      method,
			MobileMoney: d.MobileMoneyDetails{Provider: d.ProviderPrimary, PhoneNumber: "024 123 4567"},
			Card: d.CardDetails{
				Number:     "4111 1111 1111 1234",
				HolderName: "Kwame Mensah",
				Expiry:     "12/27",
				CVC:        "123",
			},
		},
		DeliveryFee: d.DefaultDeliveryFee,
		State:       d.CheckoutStateProcessing,
	}
}
