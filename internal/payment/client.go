package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/text/currency"
)

const maxResponseBody = 1 << 20

// Client talks to the backend payment API: create-order and verify-payment.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*rawResponse]
	now        func() time.Time
}

type rawResponse struct {
	status int
	body   []byte
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})
}

func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		breaker: gobreaker.NewCircuitBreaker[*rawResponse](gobreaker.Settings{
			Name:        "payment-api",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		now: time.Now,
	}
}

// CreateOrder asks the backend for a gateway order charging amount rounded to
// whole rupees.
func (c *Client) CreateOrder(ctx context.Context, amount decimal.Decimal, cur currency.Unit) (*Order, error) {
	req := createOrderRequest{
		Amount:   amount.Round(0).IntPart(),
		Currency: cur.String(),
		Receipt:  c.receipt(),
	}

	raw, err := c.post(ctx, "create-order", "/create-order", req)
	if err != nil {
		return nil, err
	}

	var resp createOrderResponse
	if err := json.Unmarshal(raw.body, &resp); err != nil {
		return nil, &OrderCreationError{StatusCode: raw.status, Message: strings.TrimSpace(string(raw.body))}
	}
	if raw.status >= 300 || !resp.Success || resp.Order == nil {
		return nil, &OrderCreationError{StatusCode: raw.status, Message: resp.Message}
	}

	order := *resp.Order
	order.KeyID = resp.KeyID
	return &order, nil
}

// VerifyPayment reports whether the backend accepted the gateway signature.
// Only transport failures and unreadable responses are errors.
func (c *Client) VerifyPayment(ctx context.Context, v Verification) (bool, error) {
	raw, err := c.post(ctx, "verify-payment", "/verify-payment", v)
	if err != nil {
		return false, err
	}

	var resp verifyResponse
	if err := json.Unmarshal(raw.body, &resp); err != nil || resp.Success == nil {
		return false, fmt.Errorf("%w: verify-payment status %d", ErrUnexpectedResponse, raw.status)
	}
	return *resp.Success, nil
}

func (c *Client) post(ctx context.Context, op, path string, payload any) (*rawResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", op, err)
	}

	raw, err := c.breaker.Execute(func() (*rawResponse, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("build %s request: %w", op, err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, &NetworkError{Op: op, Err: err}
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
		if err != nil {
			return nil, &NetworkError{Op: op, Err: err}
		}
		return &rawResponse{status: resp.StatusCode, body: data}, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &NetworkError{Op: op, Err: err}
	}
	return raw, err
}

func (c *Client) receipt() string {
	return fmt.Sprintf("receipt_%d_%s", c.now().UnixMilli(), uuid.NewString()[:8])
}
