package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/counselorcorner/storefront_be/internal/services/search"
)

type capturedEngineRequest struct {
	Query       string   `json:"q"`
	Filter      string   `json:"filter"`
	Sort        []string `json:"sort"`
	Page        int      `json:"page"`
	HitsPerPage int      `json:"hitsPerPage"`
}

func searchApp(t *testing.T) (*fiber.App, *capturedEngineRequest, func()) {
	t.Helper()
	captured := &capturedEngineRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		w.Write([]byte(`{"hits":[],"estimatedTotalHits":0}`))
	}))

	h := NewSearchHandler(search.NewClient(srv.URL, "key"))
	app := fiber.New()
	app.Get("/api/search", h.Query)
	return app, captured, srv.Close
}

func TestSearchEndpointMapsQueryParams(t *testing.T) {
	app, captured, done := searchApp(t)
	defer done()

	resp, err := app.Test(httptest.NewRequest("GET",
		"/api/search?q=worry&type=products&categories=sel,counseling&grades=3-5&price_min=5&price_max=20&sort_by=price_asc&page=2&limit=10", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Equal(t, "worry", captured.Query)
	assert.Equal(t, []string{"price:asc"}, captured.Sort)
	assert.Contains(t, captured.Filter, `category IN ["sel", "counseling"]`)
	assert.Contains(t, captured.Filter, `grade_levels IN ["3-5"]`)
	assert.Contains(t, captured.Filter, "price >= 5.00")
	assert.Contains(t, captured.Filter, "price <= 20.00")
	assert.Equal(t, 2, captured.Page)
	assert.Equal(t, 10, captured.HitsPerPage)
}

func TestSearchEndpointDefaultsToRelevance(t *testing.T) {
	app, captured, done := searchApp(t)
	defer done()

	resp, err := app.Test(httptest.NewRequest("GET", "/api/search?q=worry", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Nil(t, captured.Sort, "no sort_by means the engine's own ranking")
}

func TestSearchEndpointCapsLimit(t *testing.T) {
	app, captured, done := searchApp(t)
	defer done()

	_, err := app.Test(httptest.NewRequest("GET", "/api/search?q=worry&limit=5000", nil))
	require.NoError(t, err)
	assert.Equal(t, 100, captured.HitsPerPage)
}
