package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/metrics"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	IdempotencyHeader  = "Idempotency-Key"
	unavailableMessage = "Payment service is temporarily unavailable. Please try again."
	maxResponseBody    = 1 << 20
)

type BreakerSettings struct {
	MaxRequests      uint32
	Interval         time.Duration
	OpenTimeout      time.Duration
	FailureThreshold uint32
}

// HTTPClient posts orders to the order endpoint. Each call is made once;
// a tripped breaker fails fast instead of queueing more requests behind a
// dead endpoint.
type HTTPClient struct {
	endpoint string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker[*OrderReceipt]
	log      *slog.Logger
}

func NewHTTPClient(endpoint string, timeout time.Duration, bs BreakerSettings, log *slog.Logger) *HTTPClient {
	c := &HTTPClient{
		endpoint: endpoint,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: log,
	}
	c.breaker = gobreaker.NewCircuitBreaker[*OrderReceipt](gobreaker.Settings{
		Name:        "settlement",
		MaxRequests: bs.MaxRequests,
		Interval:    bs.Interval,
		Timeout:     bs.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bs.FailureThreshold
		},
		// Refused orders prove the endpoint is up.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrInvalidRequest)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			log.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
	metrics.BreakerState.WithLabelValues("settlement").Set(float64(gobreaker.StateClosed))
	return c
}

func (c *HTTPClient) SubmitOrder(ctx context.Context, req OrderRequest) (*OrderReceipt, error) {
	receipt, err := c.breaker.Execute(func() (*OrderReceipt, error) {
		return c.post(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &Error{StatusCode: http.StatusServiceUnavailable, Message: unavailableMessage, Err: err}
	}
	return receipt, err
}

func (c *HTTPClient) post(ctx context.Context, req OrderRequest) (*OrderReceipt, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal order request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build order request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.IdempotencyKey != "" {
		httpReq.Header.Set(IdempotencyHeader, req.IdempotencyKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.log.ErrorContext(ctx, "order request failed", "error", err)
		return nil, &Error{Message: MessageFailure, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &Error{StatusCode: resp.StatusCode, Message: MessageFailure, Err: err}
	}

	var receipt OrderReceipt
	decodeErr := json.Unmarshal(raw, &receipt)

	if resp.StatusCode == http.StatusOK {
		if decodeErr != nil {
			return nil, &Error{StatusCode: resp.StatusCode, Message: MessageFailure, Err: decodeErr}
		}
		if !receipt.Success {
			return nil, &Error{StatusCode: http.StatusUnprocessableEntity, Message: orDefault(receipt.Message, MessageFailure)}
		}
		return &receipt, nil
	}

	message := MessageFailure
	if decodeErr == nil && receipt.Message != "" {
		message = receipt.Message
	}
	c.log.WarnContext(ctx, "order endpoint refused order", "status", resp.StatusCode, "message", message)
	return nil, &Error{StatusCode: resp.StatusCode, Message: message}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

var _ Client = (*HTTPClient)(nil)
