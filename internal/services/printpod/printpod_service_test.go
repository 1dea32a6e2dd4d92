package printpod

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/counselorcorner/storefront_be/internal/models"
)

func TestGetProviders(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.Equal(t, "/print-providers.json", r.URL.Path)
		json.NewEncoder(w).Encode([]Provider{
			{ID: 1, Title: "PrintCo", Location: "US"},
			{ID: 2, Title: "InkWorks", Location: "EU"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "shop_1", "tok")
	providers, err := c.GetProviders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", gotAuth)
	require.Len(t, providers, 2)
	assert.Equal(t, "PrintCo", providers[0].Title)
}

func TestGetProvidersRetriesAfterOutage(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "try again", http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode([]Provider{{ID: 1, Title: "PrintCo"}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "shop_1", "tok")
	providers, err := c.GetProviders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, providers, 1)
}

func TestPublishProduct(t *testing.T) {
	var gotReq publishRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/shops/shop_1/products.json", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(publishResponse{ID: "pod_77"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "shop_1", "tok")
	id, err := c.PublishProduct(context.Background(), &models.Product{
		ID:          "p1",
		Name:        "Worry Workbook",
		Description: "Printable workbook",
		Price:       12.99,
	})
	require.NoError(t, err)
	assert.Equal(t, "pod_77", id)
	assert.Equal(t, int64(1299), gotReq.PriceCents)
	assert.Equal(t, "p1", gotReq.ExternalID)
}

func TestPublishProductNeverRetries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "upstream unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "shop_1", "tok")
	_, err := c.PublishProduct(context.Background(), &models.Product{ID: "p1", Name: "Workbook"})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "a replayed publish could create a duplicate listing")
}
