package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultDeliveryFee is the flat delivery charge added to every checkout.
var DefaultDeliveryFee = decimal.NewFromInt(15)

type ShippingDetails struct {
	FirstName string `json:"firstName" validate:"notblank"`
	LastName  string `json:"lastName" validate:"notblank"`
	Email     string `json:"email" validate:"notblank,emailshape"`
	Phone     string `json:"phone" validate:"notblank"`
	Address   string `json:"address" validate:"notblank"`
	City      string `json:"city" validate:"notblank"`
	Region    string `json:"region" validate:"notblank"`
	Notes     string `json:"notes,omitempty"`
}

type PaymentMethod string

const (
	PaymentMethodMobileMoney PaymentMethod = "mobile_money"
	PaymentMethodCard        PaymentMethod = "card"
)

type MobileMoneyProvider string

const (
	ProviderPrimary   MobileMoneyProvider = "mtn"
	ProviderSecondary MobileMoneyProvider = "vodafone"
)

type MobileMoneyDetails struct {
	Provider    MobileMoneyProvider `json:"provider"`
	PhoneNumber string              `json:"phoneNumber" field:"paymentPhone" validate:"notblank"`
}

type CardDetails struct {
	Number     string `json:"cardNumber" validate:"notblank,cardnumber"`
	HolderName string `json:"cardName" validate:"notblank"`
	Expiry     string `json:"expiry" validate:"notblank,expiry"`
	CVC        string `json:"cvc" validate:"notblank,cvc"`
}

// PaymentSelection keeps the values of both variants so the user can switch
// back and forth; only Method decides which one is active.
type PaymentSelection struct {
	Method      PaymentMethod      `json:"method"`
	MobileMoney MobileMoneyDetails `json:"mobileMoney"`
	Card        CardDetails        `json:"card"`
}

// WireMethod is the payment method tag sent to the order endpoint:
// the provider for mobile money, "card" for cards.
func (p PaymentSelection) WireMethod() string {
	switch p.Method {
	case PaymentMethodMobileMoney:
		return string(p.MobileMoney.Provider)
	case PaymentMethodCard:
		return string(PaymentMethodCard)
	default:
		return string(p.Method)
	}
}

// CheckoutSession is one attempt to turn a cart into an order.
// Items is a copy taken when checkout began.
type CheckoutSession struct {
	ID          string           `json:"id"`
	UserID      string           `json:"userId"`
	Items       []LineItem       `json:"items"`
	Shipping    ShippingDetails  `json:"shippingDetails"`
	Payment     PaymentSelection `json:"payment"`
	DeliveryFee decimal.Decimal  `json:"deliveryFee"`
	State       CheckoutState    `json:"state"`
	CreatedAt   time.Time        `json:"createdAt"`
}

func (s CheckoutSession) Subtotal() decimal.Decimal {
	return Subtotal(s.Items)
}

func (s CheckoutSession) Total() decimal.Decimal {
	return s.Subtotal().Add(s.DeliveryFee)
}

// Masked hides all but the last four card digits and drops the CVC.
func (c CardDetails) Masked() CardDetails {
	digits := strings.Join(strings.Fields(c.Number), "")
	if len(digits) > 4 {
		digits = strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
	}
	c.Number = digits
	if c.CVC != "" {
		c.CVC = "***"
	}
	return c
}
