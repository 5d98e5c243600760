package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	d "github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/settlement"
	"github.com/shopspring/decimal"
)

type mobileMoneyCharger interface {
	Charge(ctx context.Context, details d.MobileMoneyDetails, amount decimal.Decimal) (d.PaymentResult, error)
}

type cardCharger interface {
	Charge(ctx context.Context, card d.CardDetails, amount decimal.Decimal) (d.PaymentResult, error)
}

// Dispatcher charges the session's payment method and, once the charge
// succeeds, submits the order for settlement.
type Dispatcher struct {
	mobile mobileMoneyCharger
	card   cardCharger
	orders settlement.Client
	log    *slog.Logger
}

func NewDispatcher(mobile mobileMoneyCharger, card cardCharger, orders settlement.Client, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		mobile: mobile,
		card:   card,
		orders: orders,
		log:    log,
	}
}

func (p *Dispatcher) Dispatch(ctx context.Context, session d.CheckoutSession) (d.SettlementResult, error) {
	log := p.log.With("checkout_id", session.ID, "method", session.Payment.WireMethod())
	total := session.Total()

	var (
		payment d.PaymentResult
		err     error
	)
	switch session.Payment.Method {
	case d.PaymentMethodMobileMoney:
		payment, err = p.mobile.Charge(ctx, session.Payment.MobileMoney, total)
	case d.PaymentMethodCard:
		payment, err = p.card.Charge(ctx, session.Payment.Card, total)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedMethod, session.Payment.Method)
	}
	if errors.Is(err, ErrUnsupportedMethod) {
		log.WarnContext(ctx, "payment method not supported")
		return d.SettlementResult{Success: false, Message: MessageUnsupported}, err
	}
	if err != nil {
		return d.SettlementResult{}, fmt.Errorf("charge %s: %w", session.Payment.WireMethod(), err)
	}
	if !payment.Success {
		log.InfoContext(ctx, "payment not approved", "reason", payment.Message)
		return d.SettlementResult{Success: false, Message: payment.Message}, nil
	}

	receipt, err := p.orders.SubmitOrder(ctx, orderRequest(session, payment.TransactionID))
	if err != nil {
		// The charge went through but no order exists for it.
		log.ErrorContext(ctx, "settlement failed after successful charge",
			"transaction_id", payment.TransactionID, "error", err)
		var serr *settlement.Error
		if errors.As(err, &serr) {
			return d.SettlementResult{Success: false, TransactionID: payment.TransactionID, Message: serr.Message}, err
		}
		return d.SettlementResult{}, err
	}
	return receipt.Result(), nil
}

func orderRequest(session d.CheckoutSession, txID string) settlement.OrderRequest {
	shipping := session.Shipping
	req := settlement.OrderRequest{
		IdempotencyKey:  session.ID,
		UserID:          session.UserID,
		Items:           d.CopyItems(session.Items),
		ShippingDetails: &shipping,
		PaymentMethod:   session.Payment.WireMethod(),
		Total:           session.Total(),
		TransactionID:   txID,
	}
	switch session.Payment.Method {
	case d.PaymentMethodMobileMoney:
		req.PhoneNumber = stripSpaces(session.Payment.MobileMoney.PhoneNumber)
	case d.PaymentMethodCard:
		card := session.Payment.Card
		digits := stripSpaces(card.Number)
		last4 := digits
		if len(digits) > 4 {
			last4 = digits[len(digits)-4:]
		}
		req.CardDetails = &settlement.CardSummary{
			Last4:      last4,
			HolderName: card.HolderName,
			Expiry:     card.Expiry,
		}
	}
	return req
}
