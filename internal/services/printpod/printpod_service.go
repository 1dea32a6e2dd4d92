// Package printpod is the client for the print-on-demand vendor: pushing a
// digital product as a printable listing and listing print providers.
package printpod

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/counselorcorner/storefront_be/internal/models"
)

var errTransient = errors.New("printpod: transient vendor failure")

type Client struct {
	HTTP        *http.Client
	BaseURL     string
	ShopID      string
	AccessToken string
}

func NewClient(baseURL, shopID, accessToken string) *Client {
	return &Client{
		HTTP:        &http.Client{Timeout: 20 * time.Second},
		BaseURL:     baseURL,
		ShopID:      shopID,
		AccessToken: accessToken,
	}
}

type Provider struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Location string `json:"location"`
}

type publishRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	PriceCents  int64    `json:"price"`
	Images      []string `json:"images"`
	ExternalID  string   `json:"external_id"`
}

type publishResponse struct {
	ID string `json:"id"`
}

func (c *Client) GetProviders(ctx context.Context) ([]Provider, error) {
	var out []Provider
	err := retryRead(ctx, func(ctx context.Context) error {
		return c.call(ctx, http.MethodGet, "/print-providers.json", nil, &out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// retryRead runs an idempotent vendor read and, on a transient failure,
// waits one jittered backoff and tries once more. PublishProduct stays
// single-shot: a retried publish could create a duplicate listing.
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

// PublishProduct pushes the product to the vendor shop and returns the
// vendor-side product id.
func (c *Client) PublishProduct(ctx context.Context, p *models.Product) (string, error) {
	req := publishRequest{
		Title:       p.Name,
		Description: p.Description,
		PriceCents:  int64(math.Round(p.Price * 100)),
		Images:      p.PreviewImages,
		ExternalID:  p.ID,
	}
	var resp publishResponse
	path := fmt.Sprintf("/shops/%s/products.json", c.ShopID)
	if err := c.call(ctx, http.MethodPost, path, req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
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
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", errTransient, err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: vendor returned %d", errTransient, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("printpod: vendor returned %d: %s", resp.StatusCode, string(bodyBytes))
	}
	return json.Unmarshal(bodyBytes, out)
}
