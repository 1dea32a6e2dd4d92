package models

import (
	"errors"
	"time"

	"github.com/counselorcorner/storefront_be/internal/store"
)

type BundleStatus string

const (
	BundleDraft    BundleStatus = "draft"
	BundleActive   BundleStatus = "active"
	BundleArchived BundleStatus = "archived"
)

// Bundle groups products at a combined price. OriginalPrice is whatever the
// admin typed in for the displayed savings; it is not derived from the
// constituents and nothing validates it against their sum.
type Bundle struct {
	ID            string       `dynamodbav:"id" json:"id"`
	Slug          string       `dynamodbav:"slug" json:"slug"`
	Name          string       `dynamodbav:"name" json:"name"`
	Description   string       `dynamodbav:"description" json:"description"`
	Price         float64      `dynamodbav:"price" json:"price"`
	OriginalPrice float64      `dynamodbav:"original_price" json:"original_price"`
	ProductIDs    []string     `dynamodbav:"product_ids" json:"product_ids"`
	Status        BundleStatus `dynamodbav:"status" json:"status"`

	CreatedAt  time.Time `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt  time.Time `dynamodbav:"updated_at" json:"updated_at"`
	EntityType string    `dynamodbav:"entity_type" json:"-"`
}

// Savings is the displayed discount, floored at zero.
func (b *Bundle) Savings() float64 {
	if b.OriginalPrice <= b.Price {
		return 0
	}
	return b.OriginalPrice - b.Price
}

func BundlePK(id string) string { return "BUNDLE#" + id }

func BundleStatusPartition(status BundleStatus) string { return "BUNDLE#STATUS#" + string(status) }
func BundleSlugPartition(slug string) string           { return "BUNDLE#SLUG#" + slug }

func (b *Bundle) Keys() (store.Keys, error) {
	if b.ID == "" || b.Slug == "" || b.Status == "" {
		return store.Keys{}, errors.New("bundle: id, slug and status are required for key construction")
	}
	ts := b.CreatedAt.UTC().Format(time.RFC3339)
	return store.Keys{
		PK:     BundlePK(b.ID),
		SK:     "METADATA",
		GSI1PK: BundleStatusPartition(b.Status),
		GSI1SK: ts,
		GSI3PK: BundleSlugPartition(b.Slug),
		GSI3SK: "METADATA",
	}, nil
}
