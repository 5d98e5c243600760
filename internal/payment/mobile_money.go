package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	d "github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// MobileMoney charges a mobile money wallet. No provider is contacted: any
// well-formed number is approved after the configured latency.
type MobileMoney struct {
	latency time.Duration
	log     *slog.Logger
}

func NewMobileMoney(latency time.Duration, log *slog.Logger) *MobileMoney {
	return &MobileMoney{latency: latency, log: log}
}

func (m *MobileMoney) Charge(ctx context.Context, details d.MobileMoneyDetails, amount decimal.Decimal) (d.PaymentResult, error) {
	prefix, ok := providerPrefixes[details.Provider]
	if !ok {
		return d.PaymentResult{}, fmt.Errorf("%w: %q", ErrUnsupportedMethod, details.Provider)
	}
	if err := wait(ctx, m.latency); err != nil {
		return d.PaymentResult{}, err
	}

	if len(stripSpaces(details.PhoneNumber)) < minPhoneDigits {
		return d.PaymentResult{Success: false, Message: MessageInvalidPhone}, nil
	}

	txID := transactionID(prefix)
	m.log.InfoContext(ctx, "mobile money charged",
		"provider", details.Provider,
		"amount", amount.StringFixed(2),
		"transaction_id", txID,
	)
	return d.PaymentResult{Success: true, TransactionID: txID, Message: MessageProcessed}, nil
}
