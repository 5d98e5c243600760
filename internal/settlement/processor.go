package settlement

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	d "github.com/fjod/storefront/internal/domain"
)

const deliveryDays = 7

// Processor accepts orders on the order endpoint. It does no payment of its
// own: the transaction id is taken from the request.
type Processor struct {
	now  func() time.Time
	rand func(n int64) int64
	log  *slog.Logger
}

func NewProcessor(log *slog.Logger) *Processor {
	return &Processor{
		now:  time.Now,
		rand: rand.Int63n,
		log:  log,
	}
}

// WithClock replaces the clock used for delivery estimates.
func (p *Processor) WithClock(now func() time.Time) *Processor {
	p.now = now
	return p
}

// Validate checks the request preconditions. Failures are *Error values
// matching ErrInvalidRequest.
func Validate(req OrderRequest) error {
	if len(req.Items) == 0 {
		return rejected("Invalid cart items")
	}
	for _, item := range req.Items {
		if item.ID == "" || item.Quantity < 1 {
			return rejected("Invalid cart items")
		}
	}
	if req.ShippingDetails == nil || req.PaymentMethod == "" {
		return rejected("Missing shipping or payment details")
	}

	switch req.PaymentMethod {
	case string(d.ProviderPrimary), string(d.ProviderSecondary):
		if len(strings.Join(strings.Fields(req.PhoneNumber), "")) < 10 {
			return rejected("Invalid phone number")
		}
	case string(d.PaymentMethodCard):
	default:
		return rejected("Unsupported payment method")
	}
	return nil
}

func (p *Processor) SubmitOrder(ctx context.Context, req OrderRequest) (*OrderReceipt, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("process order: %w", err)
	}

	receipt := &OrderReceipt{
		Success:           true,
		OrderID:           fmt.Sprintf("GH-%06d", 100000+p.rand(900000)),
		TransactionID:     req.TransactionID,
		Message:           MessagePlaced,
		EstimatedDelivery: p.now().AddDate(0, 0, deliveryDays).UTC().Format(time.DateOnly),
		TrackingInfo: &TrackingInfo{
			Carrier:        Carrier,
			TrackingNumber: fmt.Sprintf("GED%010d", 1000000000+p.rand(9000000000)),
		},
	}
	p.log.InfoContext(ctx, "order accepted",
		"order_id", receipt.OrderID,
		"payment_method", req.PaymentMethod,
		"total", req.Total.StringFixed(2),
		"items", len(req.Items),
	)
	return receipt, nil
}

var _ Client = (*Processor)(nil)
