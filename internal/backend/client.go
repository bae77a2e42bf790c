package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"perle-storefront/internal/domain"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// APIError is a non-2xx answer from the checkout backend. Detail is shown to the user as-is.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("checkout backend returned %d", e.StatusCode)
}

// CreateCheckoutRequest is the body of POST /api/checkout.
type CreateCheckoutRequest struct {
	OrderLines []domain.OrderLine `json:"orderLines"`
	Currency   string             `json:"currency"`
}

// CreateCheckoutResponse is the 201 body of POST /api/checkout.
type CreateCheckoutResponse struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	CheckoutURL string `json:"checkout_url"`
	Reference   string `json:"reference"`
}

// Client talks to the order/payment backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// CreateCheckout creates an order and a payment session for the given lines.
func (c *Client) CreateCheckout(ctx context.Context, in CreateCheckoutRequest) (*CreateCheckoutResponse, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode checkout request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/checkout", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var out CreateCheckoutResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	if out.Reference == "" || out.CheckoutURL == "" {
		return nil, fmt.Errorf("checkout response missing reference or checkout_url")
	}
	return &out, nil
}

// GetOrderStatus fetches the current order and payment status for reference.
func (c *Client) GetOrderStatus(ctx context.Context, reference string) (*domain.OrderStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/checkout/"+url.PathEscape(reference), nil)
	if err != nil {
		return nil, err
	}
	var out domain.OrderStatus
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Detail interface{} `json:"detail"`
		}
		if json.Unmarshal(raw, &payload) == nil {
			apiErr.Detail = detailString(payload.Detail)
		}
		return apiErr
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// detailString flattens the detail field; validation errors may send it as a list or object.
func detailString(v interface{}) string {
	switch d := v.(type) {
	case nil:
		return ""
	case string:
		return d
	default:
		b, err := json.Marshal(d)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
