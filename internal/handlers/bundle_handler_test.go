package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/counselorcorner/storefront_be/internal/catalog"
	"github.com/counselorcorner/storefront_be/internal/models"
	"github.com/counselorcorner/storefront_be/internal/store"
)

// bundleFakeDB answers slug-index queries from a canned list and records
// every written item.
type bundleFakeDB struct {
	store.API
	queryHits [][]map[string]types.AttributeValue
	written   []map[string]types.AttributeValue
}

func (f *bundleFakeDB) Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if len(f.queryHits) == 0 {
		return &dynamodb.QueryOutput{}, nil
	}
	hits := f.queryHits[0]
	f.queryHits = f.queryHits[1:]
	return &dynamodb.QueryOutput{Items: hits, Count: int32(len(hits))}, nil
}

func (f *bundleFakeDB) PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.written = append(f.written, in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func bundleApp(db *bundleFakeDB) *fiber.App {
	h := NewBundleHandler(catalog.New(store.New(db, "storefront")))
	app := fiber.New()
	app.Post("/api/bundles", h.Create)
	return app
}

func postBundle(t *testing.T, app *fiber.App, body any) (int, models.Bundle) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", "/api/bundles", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	var out struct {
		Data models.Bundle `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out.Data
}

func TestCreateBundleSymbolOnlyNameFallsBackToBaseSlug(t *testing.T) {
	db := &bundleFakeDB{}
	app := bundleApp(db)

	status, created := postBundle(t, app, fiber.Map{
		"name":        "!!!",
		"product_ids": []string{"p1"},
	})
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "bundle", created.Slug)
	require.Len(t, db.written, 1)
}

func TestCreateBundleSuffixesTakenSlug(t *testing.T) {
	existing, err := attributevalue.MarshalMap(models.Bundle{
		ID: "b1", Slug: "starter-pack", Name: "Starter Pack",
		Status: models.BundleActive,
	})
	require.NoError(t, err)

	db := &bundleFakeDB{queryHits: [][]map[string]types.AttributeValue{{existing}}}
	app := bundleApp(db)

	status, created := postBundle(t, app, fiber.Map{
		"name":        "Starter Pack",
		"product_ids": []string{"p1", "p2"},
	})
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "starter-pack-2", created.Slug)
}
