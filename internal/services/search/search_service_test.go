package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchEmptyQuerySkipsEngine(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key")
	res, err := c.Search(context.Background(), Params{Query: "   "})
	require.NoError(t, err)
	assert.False(t, called, "empty queries never reach the engine")
	assert.Empty(t, res.Results)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 20, res.Limit)
}

func TestSearchSendsFilterAndSort(t *testing.T) {
	var got engineRequest
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(engineResponse{
			Hits:           []map[string]any{{"id": "p1"}},
			EstimatedTotal: 1,
			FacetDistribution: map[string]map[string]int{
				"category": {"sel": 1},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key")
	res, err := c.Search(context.Background(), Params{
		Query:      "worry",
		Type:       "products",
		Categories: []string{"sel", "counseling"},
		Grades:     []string{"3-5"},
		PriceMin:   5,
		PriceMax:   20,
		SortBy:     "price_asc",
		Page:       2,
		Limit:      10,
	})
	require.NoError(t, err)

	assert.Equal(t, "/indexes/products/search", gotPath)
	assert.Equal(t, "Bearer key", gotAuth)
	assert.Equal(t, "worry", got.Query)
	assert.Contains(t, got.Filter, `status IN ["active", "published"]`)
	assert.Contains(t, got.Filter, `category IN ["sel", "counseling"]`)
	assert.Contains(t, got.Filter, `grade_levels IN ["3-5"]`)
	assert.Contains(t, got.Filter, "price >= 5.00")
	assert.Contains(t, got.Filter, "price <= 20.00")
	assert.Equal(t, []string{"price:asc"}, got.Sort)
	assert.Equal(t, 2, got.Page)
	assert.Equal(t, 10, got.HitsPerPage)

	assert.Equal(t, 1, res.Total)
	require.Len(t, res.Results, 1)
	assert.Equal(t, 1, res.Facets["category"]["sel"])
}

func TestSearchIndexRouting(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		json.NewEncoder(w).Encode(engineResponse{})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key")
	for _, typ := range []string{"products", "posts", "bundles", "all", ""} {
		_, err := c.Search(context.Background(), Params{Query: "x", Type: typ})
		require.NoError(t, err)
	}
	assert.Equal(t, []string{
		"/indexes/products/search",
		"/indexes/posts/search",
		"/indexes/bundles/search",
		"/indexes/storefront/search",
		"/indexes/products/search",
	}, paths)
}

func TestSearchEngineError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"index not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key")
	_, err := c.Search(context.Background(), Params{Query: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestSearchRetriesTransientEngineFailure(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "engine restarting", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(engineResponse{
			Hits:           []map[string]any{{"id": "p1"}},
			EstimatedTotal: 1,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key")
	res, err := c.Search(context.Background(), Params{Query: "worry"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, res.Total)
}

func TestSearchDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"message":"index not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key")
	_, err := c.Search(context.Background(), Params{Query: "worry"})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestBuildSortModes(t *testing.T) {
	assert.Equal(t, []string{"created_at:desc"}, buildSort("newest"))
	assert.Equal(t, []string{"created_at:asc"}, buildSort("oldest"))
	assert.Equal(t, []string{"price:desc"}, buildSort("price_desc"))
	assert.Nil(t, buildSort("relevance"))
	assert.Nil(t, buildSort(""))
}
