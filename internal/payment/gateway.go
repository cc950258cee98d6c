// Package payment wraps the online-payment provider's hosted checkout
// API. The only contract callers rely on is that the provider's success
// callback fires once, after payment succeeds.
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
)

// Gateway creates hosted checkout sessions for an amount in minor
// units.
type Gateway interface {
	CreateCheckout(ctx context.Context, amountMinor int64, currency, reference string) (*Checkout, error)
}

// Checkout is a created payment session the storefront redirects to.
type Checkout struct {
	ID          string
	RedirectURL string
}

// Client talks to the provider's payment-link API with basic auth.
type Client struct {
	baseURL     string
	keyID       string
	keySecret   string
	callbackURL string
	httpClient  *http.Client
}

func NewClient(baseURL, keyID, keySecret, callbackURL string) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		keyID:       keyID,
		keySecret:   keySecret,
		callbackURL: callbackURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

type linkRequest struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	ReferenceID    string `json:"reference_id"`
	Description    string `json:"description"`
	CallbackURL    string `json:"callback_url,omitempty"`
	CallbackMethod string `json:"callback_method,omitempty"`
}

type linkResponse struct {
	ID       string `json:"id"`
	ShortURL string `json:"short_url"`
}

func (c *Client) CreateCheckout(ctx context.Context, amountMinor int64, currency, reference string) (*Checkout, error) {
	if c.keyID == "" || c.keySecret == "" {
		return nil, errors.New("payment gateway credentials missing")
	}
	if amountMinor <= 0 {
		return nil, fmt.Errorf("invalid amount %d", amountMinor)
	}

	payload := linkRequest{
		Amount:      amountMinor,
		Currency:    currency,
		ReferenceID: reference,
		Description: "Order Payment",
	}
	if c.callbackURL != "" {
		payload.CallbackURL = c.callbackURL
		payload.CallbackMethod = "get"
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payment link: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payment_links", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create payment link: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("payment provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var link linkResponse
	if err := json.Unmarshal(body, &link); err != nil {
		return nil, fmt.Errorf("decode payment link: %w", err)
	}
	return &Checkout{ID: link.ID, RedirectURL: link.ShortURL}, nil
}
