package settlement

import (
	"context"
	"errors"

	d "github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	Carrier        = "Ghana Express Delivery"
	MessagePlaced  = "Order placed successfully"
	MessageFailure = "Failed to process checkout"
)

// ErrInvalidRequest marks an order the endpoint refused to process, as
// opposed to one it could not process.
var ErrInvalidRequest = errors.New("invalid order request")

// Client submits orders for settlement.
type Client interface {
	SubmitOrder(ctx context.Context, req OrderRequest) (*OrderReceipt, error)
}

// CardSummary is the card data sent with an order. The full number and CVC
// never leave the payment handler.
type CardSummary struct {
	Last4      string `json:"last4"`
	HolderName string `json:"cardName"`
	Expiry     string `json:"expiry"`
}

type OrderRequest struct {
	// IdempotencyKey travels as a header, one key per checkout session.
	IdempotencyKey  string             `json:"-"`
	UserID          string             `json:"userId,omitempty"`
	Items           []d.LineItem       `json:"items"`
	ShippingDetails *d.ShippingDetails `json:"shippingDetails"`
	PaymentMethod   string             `json:"paymentMethod"`
	PhoneNumber     string             `json:"phoneNumber,omitempty"`
	CardDetails     *CardSummary       `json:"cardDetails,omitempty"`
	Total           decimal.Decimal    `json:"total"`
	TransactionID   string             `json:"transactionId,omitempty"`
}

type TrackingInfo struct {
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"trackingNumber"`
}

type OrderReceipt struct {
	Success           bool          `json:"success"`
	OrderID           string        `json:"orderId,omitempty"`
	TransactionID     string        `json:"transactionId,omitempty"`
	Message           string        `json:"message"`
	EstimatedDelivery string        `json:"estimatedDelivery,omitempty"`
	TrackingInfo      *TrackingInfo `json:"trackingInfo,omitempty"`
}

// Result converts the receipt into what the checkout session reports.
func (r *OrderReceipt) Result() d.SettlementResult {
	res := d.SettlementResult{
		Success:           r.Success,
		OrderID:           r.OrderID,
		TransactionID:     r.TransactionID,
		Message:           r.Message,
		EstimatedDelivery: r.EstimatedDelivery,
	}
	if r.TrackingInfo != nil {
		res.Carrier = r.TrackingInfo.Carrier
		res.TrackingNumber = r.TrackingInfo.TrackingNumber
	}
	return res
}

// Error is a settlement failure. Message is safe to show to the user.
// 4xx status codes match ErrInvalidRequest.
type Error struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrInvalidRequest && e.StatusCode >= 400 && e.StatusCode < 500
}

func rejected(message string) *Error {
	return &Error{StatusCode: 400, Message: message}
}
