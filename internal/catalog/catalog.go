// Package catalog is the typed access layer for everything in the table:
// products, posts, bundles, coupons, subscribers, campaigns and orders.
// Handlers and services go through here, never through raw store calls.
package catalog

import (
	"context"

	"github.com/counselorcorner/storefront_be/internal/models"
	"github.com/counselorcorner/storefront_be/internal/store"
)

type Catalog struct {
	Store *store.Store
}

func New(s *store.Store) *Catalog {
	return &Catalog{Store: s}
}

// ---- products ----

func (c *Catalog) PutProduct(ctx context.Context, p *models.Product) error {
	p.EntityType = "product"
	return c.Store.Put(ctx, p)
}

// CreateProduct refuses to overwrite an existing product id.
func (c *Catalog) CreateProduct(ctx context.Context, p *models.Product) error {
	p.EntityType = "product"
	return c.Store.PutNew(ctx, p)
}

func (c *Catalog) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	if err := c.Store.Get(ctx, models.ProductPK(id), "METADATA", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProductBySlug resolves through the slug index; the lookup is eventually
// consistent like every index read.
func (c *Catalog) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var out []models.Product
	err := c.Store.QueryIndex(ctx, "GSI3", models.ProductSlugPartition(slug), store.Query{Limit: 1}, &out)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, store.ErrNotFound
	}
	return &out[0], nil
}

func (c *Catalog) ListProductsByStatus(ctx context.Context, status models.ProductStatus, limit int32) ([]models.Product, error) {
	var out []models.Product
	err := c.Store.QueryIndex(ctx, "GSI1", models.ProductStatusPartition(status), store.Query{Descending: true, Limit: limit}, &out)
	return out, err
}

func (c *Catalog) ListProductsByCategory(ctx context.Context, category string, limit int32) ([]models.Product, error) {
	var out []models.Product
	err := c.Store.QueryIndex(ctx, "GSI2", models.ProductCategoryPartition(category), store.Query{Descending: true, Limit: limit}, &out)
	return out, err
}

func (c *Catalog) ListFeaturedProducts(ctx context.Context, limit int32) ([]models.Product, error) {
	var out []models.Product
	err := c.Store.QueryIndex(ctx, "GSI4", models.ProductFeaturedPartition, store.Query{Descending: true, Limit: limit}, &out)
	return out, err
}

func (c *Catalog) AddProductCounter(ctx context.Context, id, counter string, delta int64) error {
	return c.Store.Mutate(ctx, models.ProductPK(id), "METADATA", store.Mutation{
		Add: map[string]int64{counter: delta},
	})
}

func (c *Catalog) CountProductsByStatus(ctx context.Context, status models.ProductStatus) (int64, error) {
	return c.Store.CountIndex(ctx, "GSI1", models.ProductStatusPartition(status))
}

// ---- blog posts ----

func (c *Catalog) PutPost(ctx context.Context, p *models.BlogPost) error {
	p.EntityType = "post"
	return c.Store.Put(ctx, p)
}

func (c *Catalog) CreatePost(ctx context.Context, p *models.BlogPost) error {
	p.EntityType = "post"
	return c.Store.PutNew(ctx, p)
}

func (c *Catalog) GetPost(ctx context.Context, id string) (*models.BlogPost, error) {
	var p models.BlogPost
	if err := c.Store.Get(ctx, models.PostPK(id), "METADATA", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Catalog) GetPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	var out []models.BlogPost
	err := c.Store.QueryIndex(ctx, "GSI3", models.PostSlugPartition(slug), store.Query{Limit: 1}, &out)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, store.ErrNotFound
	}
	return &out[0], nil
}

func (c *Catalog) ListPostsByStatus(ctx context.Context, status models.PostStatus, limit int32) ([]models.BlogPost, error) {
	var out []models.BlogPost
	err := c.Store.QueryIndex(ctx, "GSI1", models.PostStatusPartition(status), store.Query{Descending: true, Limit: limit}, &out)
	return out, err
}

// ListPostsByTag has no dedicated index; it is a filtered scan, acceptable
// at this catalog's size.
func (c *Catalog) ListPostsByTag(ctx context.Context, tag string) ([]models.BlogPost, error) {
	var out []models.BlogPost
	err := c.Store.Scan(ctx,
		"entity_type = :t AND contains(tags, :tag)",
		nil,
		map[string]any{":t": "post", ":tag": tag},
		&out,
	)
	return out, err
}

func (c *Catalog) AddPostViews(ctx context.Context, id string, delta int64) error {
	return c.Store.Mutate(ctx, models.PostPK(id), "METADATA", store.Mutation{
		Add: map[string]int64{"views": delta},
	})
}

func (c *Catalog) CountPostsByStatus(ctx context.Context, status models.PostStatus) (int64, error) {
	return c.Store.CountIndex(ctx, "GSI1", models.PostStatusPartition(status))
}

// ---- bundles ----

func (c *Catalog) PutBundle(ctx context.Context, b *models.Bundle) error {
	b.EntityType = "bundle"
	return c.Store.Put(ctx, b)
}

func (c *Catalog) CreateBundle(ctx context.Context, b *models.Bundle) error {
	b.EntityType = "bundle"
	return c.Store.PutNew(ctx, b)
}

func (c *Catalog) GetBundle(ctx context.Context, id string) (*models.Bundle, error) {
	var b models.Bundle
	if err := c.Store.Get(ctx, models.BundlePK(id), "METADATA", &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Catalog) GetBundleBySlug(ctx context.Context, slug string) (*models.Bundle, error) {
	var out []models.Bundle
	err := c.Store.QueryIndex(ctx, "GSI3", models.BundleSlugPartition(slug), store.Query{Limit: 1}, &out)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, store.ErrNotFound
	}
	return &out[0], nil
}

func (c *Catalog) ListBundlesByStatus(ctx context.Context, status models.BundleStatus, limit int32) ([]models.Bundle, error) {
	var out []models.Bundle
	err := c.Store.QueryIndex(ctx, "GSI1", models.BundleStatusPartition(status), store.Query{Descending: true, Limit: limit}, &out)
	return out, err
}

// ---- coupons ----

func (c *Catalog) PutCoupon(ctx context.Context, cp *models.Coupon) error {
	cp.Code = models.NormalizeCouponCode(cp.Code)
	cp.EntityType = "coupon"
	return c.Store.Put(ctx, cp)
}

func (c *Catalog) CreateCoupon(ctx context.Context, cp *models.Coupon) error {
	cp.Code = models.NormalizeCouponCode(cp.Code)
	cp.EntityType = "coupon"
	return c.Store.PutNew(ctx, cp)
}

func (c *Catalog) GetCoupon(ctx context.Context, code string) (*models.Coupon, error) {
	var cp models.Coupon
	if err := c.Store.Get(ctx, models.CouponPK(code), "METADATA", &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (c *Catalog) ListCouponsByStatus(ctx context.Context, status models.CouponStatus, limit int32) ([]models.Coupon, error) {
	var out []models.Coupon
	err := c.Store.QueryIndex(ctx, "GSI1", models.CouponStatusPartition(status), store.Query{Descending: true, Limit: limit}, &out)
	return out, err
}

func (c *Catalog) DeleteCoupon(ctx context.Context, code string) error {
	return c.Store.Delete(ctx, models.CouponPK(code), "METADATA")
}

// AddCouponUse records a redemption. Best-effort: it runs after order
// creation and is not transactional with it, so a crash in between
// under-counts by one.
func (c *Catalog) AddCouponUse(ctx context.Context, code string) error {
	return c.Store.Mutate(ctx, models.CouponPK(code), "METADATA", store.Mutation{
		Add: map[string]int64{"used_count": 1},
	})
}

// ---- subscribers ----

func (c *Catalog) PutSubscriber(ctx context.Context, s *models.NewsletterSubscriber) error {
	s.Email = models.NormalizeEmail(s.Email)
	s.EntityType = "subscriber"
	return c.Store.Put(ctx, s)
}

func (c *Catalog) GetSubscriber(ctx context.Context, email string) (*models.NewsletterSubscriber, error) {
	var s models.NewsletterSubscriber
	if err := c.Store.Get(ctx, models.SubscriberPK(email), "METADATA", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Catalog) ListSubscribed(ctx context.Context) ([]models.NewsletterSubscriber, error) {
	var out []models.NewsletterSubscriber
	err := c.Store.QueryIndex(ctx, "GSI1", models.SubscriberStatusPartition(models.Subscribed), store.Query{}, &out)
	return out, err
}

func (c *Catalog) CountSubscribed(ctx context.Context) (int64, error) {
	return c.Store.CountIndex(ctx, "GSI1", models.SubscriberStatusPartition(models.Subscribed))
}

// ---- campaigns ----

func (c *Catalog) PutCampaign(ctx context.Context, cm *models.EmailCampaign) error {
	cm.EntityType = "campaign"
	return c.Store.Put(ctx, cm)
}

func (c *Catalog) CreateCampaign(ctx context.Context, cm *models.EmailCampaign) error {
	cm.EntityType = "campaign"
	return c.Store.PutNew(ctx, cm)
}

func (c *Catalog) GetCampaign(ctx context.Context, id string) (*models.EmailCampaign, error) {
	var cm models.EmailCampaign
	if err := c.Store.Get(ctx, models.CampaignPK(id), "METADATA", &cm); err != nil {
		return nil, err
	}
	return &cm, nil
}

func (c *Catalog) ListCampaigns(ctx context.Context, status models.CampaignStatus, limit int32) ([]models.EmailCampaign, error) {
	var out []models.EmailCampaign
	err := c.Store.QueryIndex(ctx, "GSI1", models.CampaignStatusPartition(status), store.Query{Descending: true, Limit: limit}, &out)
	return out, err
}

// MarkCampaignSending flips draft -> sending; a campaign already sending or
// sent fails the guard and surfaces store.ErrConflict. The flip does not
// rewrite the GSI1 partition; the full Put when the send finishes does. The
// guard is what matters for the double-send check.
func (c *Catalog) MarkCampaignSending(ctx context.Context, id string) error {
	return c.Store.Mutate(ctx, models.CampaignPK(id), "METADATA", store.Mutation{
		Set:      map[string]any{"status": string(models.CampaignSending)},
		IfEquals: map[string]any{"status": string(models.CampaignDraft)},
	})
}

// ---- orders ----

// CreateOrder is strictly create-new: a second order for the same session
// id is store.ErrConflict.
func (c *Catalog) CreateOrder(ctx context.Context, o *models.Order) error {
	o.EntityType = "order"
	return c.Store.PutNew(ctx, o)
}

func (c *Catalog) GetOrder(ctx context.Context, sessionID string) (*models.Order, error) {
	var o models.Order
	if err := c.Store.Get(ctx, models.OrderPK(sessionID), "METADATA", &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Catalog) ListOrdersByUser(ctx context.Context, userID string, limit int32) ([]models.Order, error) {
	var out []models.Order
	err := c.Store.QueryIndex(ctx, "GSI1", models.OrderUserPartition(userID), store.Query{Descending: true, Limit: limit}, &out)
	return out, err
}

func (c *Catalog) ListAllOrders(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	err := c.Store.QueryIndex(ctx, "GSI2", models.OrdersPartition, store.Query{Descending: true}, &out)
	return out, err
}
