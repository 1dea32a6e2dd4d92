package models

import (
	"errors"
	"time"

	"github.com/counselorcorner/storefront_be/internal/store"
)

type PostStatus string

const (
	PostDraft     PostStatus = "draft"
	PostScheduled PostStatus = "scheduled"
	PostPublished PostStatus = "published"
)

type BlogPost struct {
	ID       string     `dynamodbav:"id" json:"id"`
	Slug     string     `dynamodbav:"slug" json:"slug"`
	Title    string     `dynamodbav:"title" json:"title"`
	Excerpt  string     `dynamodbav:"excerpt" json:"excerpt"`
	Body     string     `dynamodbav:"body" json:"body"`
	Author   string     `dynamodbav:"author" json:"author"`
	Category string     `dynamodbav:"category" json:"category"`
	Tags     []string   `dynamodbav:"tags" json:"tags"`
	Status   PostStatus `dynamodbav:"status" json:"status"`

	// PublishedAt is the effective publish timestamp: set when publishing,
	// or in the future for scheduled posts.
	PublishedAt time.Time `dynamodbav:"published_at" json:"published_at"`
	Views       int64     `dynamodbav:"views" json:"views"`

	CreatedAt  time.Time `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt  time.Time `dynamodbav:"updated_at" json:"updated_at"`
	EntityType string    `dynamodbav:"entity_type" json:"-"`
}

func PostPK(id string) string { return "POST#" + id }

func PostStatusPartition(status PostStatus) string { return "POST#STATUS#" + string(status) }
func PostCategoryPartition(category string) string { return "POST#CATEGORY#" + category }
func PostSlugPartition(slug string) string         { return "POST#SLUG#" + slug }

func (p *BlogPost) Keys() (store.Keys, error) {
	if p.ID == "" || p.Slug == "" || p.Status == "" {
		return store.Keys{}, errors.New("post: id, slug and status are required for key construction")
	}
	sortTS := p.PublishedAt
	if sortTS.IsZero() {
		sortTS = p.CreatedAt
	}
	ts := sortTS.UTC().Format(time.RFC3339)
	k := store.Keys{
		PK:     PostPK(p.ID),
		SK:     "METADATA",
		GSI1PK: PostStatusPartition(p.Status),
		GSI1SK: ts,
		GSI3PK: PostSlugPartition(p.Slug),
		GSI3SK: "METADATA",
	}
	if p.Category != "" {
		k.GSI2PK = PostCategoryPartition(p.Category)
		k.GSI2SK = ts
	}
	return k, nil
}
