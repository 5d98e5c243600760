package payment

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	d "github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// Authorizer decides whether the card issuer approves a charge.
type Authorizer interface {
	Authorize(card d.CardDetails, amount decimal.Decimal) (approved bool, reason string)
}

type AlwaysApprove struct{}

func (AlwaysApprove) Authorize(d.CardDetails, decimal.Decimal) (bool, string) {
	return true, ""
}

var declineReasons = []string{
	"insufficient funds",
	"card expired",
	"suspected fraud",
	"limit exceeded",
	"issuer unavailable",
}

// RandomAuthorizer approves 95% of charges and declines the rest with a
// random issuer reason.
type RandomAuthorizer struct{}

func (RandomAuthorizer) Authorize(d.CardDetails, decimal.Decimal) (bool, string) {
	return decide(rand.Intn(101)) // 101 because Intn is exclusive of the upper bound
}

func decide(roll int) (bool, string) {
	if roll < 95 {
		return true, ""
	}
	reason := roll - 95
	if reason == 0 || reason > len(declineReasons) {
		return false, "unknown reason"
	}
	return false, declineReasons[reason-1]
}

type Card struct {
	latency time.Duration
	auth    Authorizer
	log     *slog.Logger
}

func NewCard(latency time.Duration, auth Authorizer, log *slog.Logger) *Card {
	if auth == nil {
		auth = AlwaysApprove{}
	}
	return &Card{latency: latency, auth: auth, log: log}
}

func (c *Card) Charge(ctx context.Context, card d.CardDetails, amount decimal.Decimal) (d.PaymentResult, error) {
	if err := wait(ctx, c.latency); err != nil {
		return d.PaymentResult{}, err
	}

	if ok, reason := c.auth.Authorize(card, amount); !ok {
		c.log.WarnContext(ctx, "card declined", "reason", reason, "amount", amount.StringFixed(2))
		return d.PaymentResult{Success: false, Message: fmt.Sprintf("Card declined: %s", reason)}, nil
	}

	txID := transactionID("CC")
	c.log.InfoContext(ctx, "card charged", "amount", amount.StringFixed(2), "transaction_id", txID)
	return d.PaymentResult{Success: true, TransactionID: txID, Message: MessageProcessed}, nil
}
