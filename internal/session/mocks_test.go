package session

import (
	"context"

	d "github.com/fjod/storefront/internal/domain"
)

// blockingDispatcher reports entry on entered and settles successfully once
// release is closed.
type blockingDispatcher struct {
	entered chan struct{}
	release chan struct{}
}

func newBlockingDispatcher() *blockingDispatcher {
	return &blockingDispatcher{entered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (b *blockingDispatcher) Dispatch(ctx context.Context, session d.CheckoutSession) (d.SettlementResult, error) {
	b.entered <- struct{}{}
	<-b.release
	return d.SettlementResult{Success: true, OrderID: "GH-123456", Message: "Order placed successfully"}, nil
}
