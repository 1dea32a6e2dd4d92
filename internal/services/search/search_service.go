// Package search translates storefront query params into the hosted search
// engine's filter syntax and normalizes its response shape.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

var errTransient = errors.New("search: transient engine failure")

type Client struct {
	HTTP   *http.Client
	Host   string
	APIKey string
}

func NewClient(host, apiKey string) *Client {
	return &Client{
		HTTP:   &http.Client{Timeout: 10 * time.Second},
		Host:   host,
		APIKey: apiKey,
	}
}

type Params struct {
	Query      string
	Type       string // products | posts | bundles | all
	Categories []string
	Grades     []string
	Tags       []string
	PriceMin   float64 // <= 0 means unset
	PriceMax   float64 // <= 0 means unset
	SortBy     string  // relevance | newest | price_asc | price_desc
	Page       int
	Limit      int
}

type Result struct {
	Results []map[string]any          `json:"results"`
	Total   int                       `json:"total"`
	Facets  map[string]map[string]int `json:"facets"`
	Page    int                       `json:"page"`
	Limit   int                       `json:"limit"`
}

type engineRequest struct {
	Query       string   `json:"q"`
	Filter      string   `json:"filter,omitempty"`
	Sort        []string `json:"sort,omitempty"`
	Page        int      `json:"page"`
	HitsPerPage int      `json:"hitsPerPage"`
	Facets      []string `json:"facets"`
}

type engineResponse struct {
	Hits              []map[string]any          `json:"hits"`
	EstimatedTotal    int                       `json:"estimatedTotalHits"`
	FacetDistribution map[string]map[string]int `json:"facetDistribution"`
}

// Search runs the query against the index for p.Type. An empty query string
// returns an empty result without touching the engine: unfiltered "match
// all" listings belong to the catalog layer, not the search path.
func (c *Client) Search(ctx context.Context, p Params) (*Result, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 20
	}
	if strings.TrimSpace(p.Query) == "" {
		return &Result{Results: []map[string]any{}, Total: 0, Page: p.Page, Limit: p.Limit}, nil
	}

	req := engineRequest{
		Query:       p.Query,
		Filter:      buildFilter(p),
		Sort:        buildSort(p.SortBy),
		Page:        p.Page,
		HitsPerPage: p.Limit,
		Facets:      []string{"category", "grade_levels", "tags"},
	}

	// the query endpoint is a read despite the POST verb, so one retry is safe
	var resp engineResponse
	err := retryQuery(ctx, func(ctx context.Context) error {
		return c.post(ctx, "/indexes/"+indexFor(p.Type)+"/search", req, &resp)
	})
	if err != nil {
		return nil, err
	}

	results := resp.Hits
	if results == nil {
		results = []map[string]any{}
	}
	return &Result{
		Results: results,
		Total:   resp.EstimatedTotal,
		Facets:  resp.FacetDistribution,
		Page:    p.Page,
		Limit:   p.Limit,
	}, nil
}

func indexFor(t string) string {
	switch t {
	case "posts":
		return "posts"
	case "bundles":
		return "bundles"
	case "all":
		return "storefront"
	default:
		return "products"
	}
}

func buildFilter(p Params) string {
	var parts []string
	// only live content is searchable
	parts = append(parts, `status IN ["active", "published"]`)
	if clause := inClause("category", p.Categories); clause != "" {
		parts = append(parts, clause)
	}
	if clause := inClause("grade_levels", p.Grades); clause != "" {
		parts = append(parts, clause)
	}
	if clause := inClause("tags", p.Tags); clause != "" {
		parts = append(parts, clause)
	}
	if p.PriceMin > 0 {
		parts = append(parts, fmt.Sprintf("price >= %.2f", p.PriceMin))
	}
	if p.PriceMax > 0 {
		parts = append(parts, fmt.Sprintf("price <= %.2f", p.PriceMax))
	}
	return strings.Join(parts, " AND ")
}

func inClause(field string, values []string) string {
	var quoted []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		quoted = append(quoted, fmt.Sprintf("%q", v))
	}
	if len(quoted) == 0 {
		return ""
	}
	return field + " IN [" + strings.Join(quoted, ", ") + "]"
}

// buildSort maps explicit sort modes; "relevance" (or anything unknown)
// defers to the engine's default ranking.
func buildSort(mode string) []string {
	switch mode {
	case "newest":
		return []string{"created_at:desc"}
	case "oldest":
		return []string{"created_at:asc"}
	case "price_asc":
		return []string{"price:asc"}
	case "price_desc":
		return []string{"price:desc"}
	default:
		return nil
	}
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Host+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", errTransient, err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: engine returned %d", errTransient, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("search: engine returned %d: %s", resp.StatusCode, string(bodyBytes))
	}
	return json.Unmarshal(bodyBytes, out)
}

// retryQuery runs a query and, on a transient engine failure, waits one
// jittered backoff and tries once more.
func retryQuery(ctx context.Context, op func(context.Context) error) error {
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
