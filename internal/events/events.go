package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fjod/storefront/internal/settlement"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

const TypeOrderPlaced = "order.placed"

type OrderPlaced struct {
	OrderID        string          `json:"order_id"`
	TransactionID  string          `json:"transaction_id"`
	UserID         string          `json:"user_id,omitempty"`
	PaymentMethod  string          `json:"payment_method"`
	Total          decimal.Decimal `json:"total"`
	ItemCount      int             `json:"item_count"`
	TrackingNumber string          `json:"tracking_number,omitempty"`
	PlacedAt       time.Time       `json:"placed_at"`
}

// NewOrderPlaced builds the event for an accepted order.
func NewOrderPlaced(req settlement.OrderRequest, receipt *settlement.OrderReceipt, at time.Time) OrderPlaced {
	ev := OrderPlaced{
		OrderID:       receipt.OrderID,
		TransactionID: receipt.TransactionID,
		UserID:        req.UserID,
		PaymentMethod: req.PaymentMethod,
		Total:         req.Total,
		PlacedAt:      at.UTC(),
	}
	for _, item := range req.Items {
		ev.ItemCount += item.Quantity
	}
	if receipt.TrackingInfo != nil {
		ev.TrackingNumber = receipt.TrackingInfo.TrackingNumber
	}
	return ev
}

type Publisher interface {
	PublishOrderPlaced(ctx context.Context, ev OrderPlaced) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(topic string, brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) PublishOrderPlaced(ctx context.Context, ev OrderPlaced) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", TypeOrderPlaced, err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.OrderID), // order_id for ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(TypeOrderPlaced)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s event: %w", TypeOrderPlaced, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Noop drops every event. Used when no brokers are configured.
type Noop struct{}

func (Noop) PublishOrderPlaced(context.Context, OrderPlaced) error { return nil }
func (Noop) Close() error                                          { return nil }
