package payment

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"

	d "github.com/fjod/storefront/internal/domain"
)

const (
	MessageProcessed    = "Payment processed successfully"
	MessageInvalidPhone = "Invalid phone number"

	minPhoneDigits = 10
	txSuffixLen    = 8
	base36         = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

var ErrUnsupportedMethod = errors.New("unsupported payment method")

const MessageUnsupported = "Unsupported payment method"

var providerPrefixes = map[d.MobileMoneyProvider]string{
	d.ProviderPrimary:   "MTN",
	d.ProviderSecondary: "VOD",
}

// wait blocks for the simulated provider latency or until ctx is done.
func wait(ctx context.Context, latency time.Duration) error {
	if latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(latency)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func transactionID(prefix string) string {
	var b strings.Builder
	b.WriteString(prefix)
	max := big.NewInt(int64(len(base36)))
	for i := 0; i < txSuffixLen; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		b.WriteByte(base36[n.Int64()])
	}
	return b.String()
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}
