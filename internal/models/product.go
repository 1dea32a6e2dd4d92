package models

import (
	"errors"
	"time"

	"github.com/counselorcorner/storefront_be/internal/store"
)

type ProductStatus string

const (
	ProductDraft    ProductStatus = "draft"
	ProductActive   ProductStatus = "active"
	ProductArchived ProductStatus = "archived"
)

type Product struct {
	ID          string        `dynamodbav:"id" json:"id"`
	Slug        string        `dynamodbav:"slug" json:"slug"`
	Name        string        `dynamodbav:"name" json:"name"`
	Description string        `dynamodbav:"description" json:"description"`
	Price       float64       `dynamodbav:"price" json:"price"`
	Category    string        `dynamodbav:"category" json:"category"`
	GradeLevels []string      `dynamodbav:"grade_levels" json:"grade_levels"`
	Tags        []string      `dynamodbav:"tags" json:"tags"`
	Status      ProductStatus `dynamodbav:"status" json:"status"`

	Featured   bool `dynamodbav:"featured" json:"featured"`
	NewRelease bool `dynamodbav:"new_release" json:"new_release"`
	BestSeller bool `dynamodbav:"best_seller" json:"best_seller"`

	FileURL        string   `dynamodbav:"file_url" json:"file_url"`
	PreviewImages  []string `dynamodbav:"preview_images" json:"preview_images"`
	PrintProductID string   `dynamodbav:"print_product_id,omitempty" json:"print_product_id,omitempty"`

	Downloads   int64   `dynamodbav:"downloads" json:"downloads"`
	Sales       int64   `dynamodbav:"sales" json:"sales"`
	Rating      float64 `dynamodbav:"rating" json:"rating"`
	ReviewCount int64   `dynamodbav:"review_count" json:"review_count"`

	CreatedBy  string    `dynamodbav:"created_by" json:"created_by"`
	CreatedAt  time.Time `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt  time.Time `dynamodbav:"updated_at" json:"updated_at"`
	EntityType string    `dynamodbav:"entity_type" json:"-"`
}

func ProductPK(id string) string { return "PRODUCT#" + id }

func ProductStatusPartition(status ProductStatus) string {
	return "PRODUCT#STATUS#" + string(status)
}
func ProductCategoryPartition(category string) string {
	return "PRODUCT#CATEGORY#" + category
}
func ProductSlugPartition(slug string) string { return "PRODUCT#SLUG#" + slug }

const ProductFeaturedPartition = "PRODUCT#FEATURED"

// Keys projects the product into every index its access patterns need:
// by id (primary), by status, by category, by slug, and - only while the
// flag is set - the featured shelf.
func (p *Product) Keys() (store.Keys, error) {
	if p.ID == "" || p.Slug == "" || p.Status == "" || p.Category == "" {
		return store.Keys{}, errors.New("product: id, slug, status and category are required for key construction")
	}
	ts := p.CreatedAt.UTC().Format(time.RFC3339)
	k := store.Keys{
		PK:     ProductPK(p.ID),
		SK:     "METADATA",
		GSI1PK: ProductStatusPartition(p.Status),
		GSI1SK: ts,
		GSI2PK: ProductCategoryPartition(p.Category),
		GSI2SK: ts,
		GSI3PK: ProductSlugPartition(p.Slug),
		GSI3SK: "METADATA",
	}
	if p.Featured {
		k.GSI4PK = ProductFeaturedPartition
		k.GSI4SK = ts
	}
	return k, nil
}
