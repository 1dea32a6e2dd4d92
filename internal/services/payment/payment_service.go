// Package payment is the client for the hosted checkout vendor. The vendor
// holds the authoritative session state; we only create sessions with
// server-side prices and read them back on confirmation.
package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"
)

var errTransient = errors.New("payment: transient vendor failure")

type Client struct {
	HTTP          *http.Client
	BaseURL       string
	SecretKey     string
	WebhookSecret string
}

func NewClient(baseURL, secretKey, webhookSecret string) *Client {
	return &Client{
		HTTP:          &http.Client{Timeout: 15 * time.Second},
		BaseURL:       baseURL,
		SecretKey:     secretKey,
		WebhookSecret: webhookSecret,
	}
}

type LineItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitCents int64  `json:"unit_amount"`
	Quantity  int    `json:"quantity"`
}

type SessionRequest struct {
	Reference     string     `json:"reference"`
	LineItems     []LineItem `json:"line_items"`
	DiscountCents int64      `json:"discount_amount,omitempty"`
	CouponCode    string     `json:"coupon_code,omitempty"`
	CustomerID    string     `json:"customer_id,omitempty"`
	CustomerEmail string     `json:"customer_email,omitempty"`
	SuccessURL    string     `json:"success_url"`
	CancelURL     string     `json:"cancel_url"`
}

type Session struct {
	ID            string     `json:"id"`
	URL           string     `json:"url"`
	Status        string     `json:"status"` // open | paid | failed | expired
	AmountCents   int64      `json:"amount_total"`
	DiscountCents int64      `json:"discount_amount"`
	CouponCode    string     `json:"coupon_code"`
	CustomerID    string     `json:"customer_id"`
	CustomerEmail string     `json:"customer_email"`
	LineItems     []LineItem `json:"line_items"`
}

// Paid reports whether the session reached a successful payment state.
func (s *Session) Paid() bool {
	return s.Status == "paid" || s.Status == "complete"
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	var sess Session
	if err := c.call(ctx, http.MethodPost, "/checkout/sessions", req, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (c *Client) GetSession(ctx context.Context, id string) (*Session, error) {
	var sess Session
	err := retryRead(ctx, func(ctx context.Context) error {
		return c.call(ctx, http.MethodGet, "/checkout/sessions/"+id, nil, &sess)
	})
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// retryRead runs an idempotent vendor read and, on a transient failure,
// waits one jittered backoff and tries once more. Writes never go through
// here: a retried create could double-charge.
func retryRead(ctx context.Context, op func(context.Context) error) error {
	err := op(ctx)
	if err == nil || !errors.Is(err, errTransient) {
		return err
	}
	backoff := 150*time.Millisecond + time.Duration(rand.Intn(150))*time.Millisecond
	select {
	case <-time.After(backoff):
	case <-ctx.Done():
		return ctx.Err()
	}
	return op(ctx)
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var buf io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		buf = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", errTransient, err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: status %d", errTransient, resp.StatusCode)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return fmt.Errorf("payment: failed to parse response: %v", err)
	}
	if !apiResp.Success {
		return fmt.Errorf("payment: vendor error: %s", apiResp.Message)
	}
	return json.Unmarshal(apiResp.Data, out)
}

// ValidateSignature checks the webhook callback signature:
// HMAC-SHA256(body, webhook_secret), hex encoded.
func (c *Client) ValidateSignature(incomingSig string, body []byte) bool {
	h := hmac.New(sha256.New, []byte(c.WebhookSecret))
	h.Write(body)
	calculated := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(calculated), []byte(incomingSig))
}
