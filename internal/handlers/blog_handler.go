package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/counselorcorner/storefront_be/internal/catalog"
	"github.com/counselorcorner/storefront_be/internal/models"
	"github.com/counselorcorner/storefront_be/internal/store"
	"github.com/counselorcorner/storefront_be/internal/utils"
)

type BlogHandler struct {
	Catalog *catalog.Catalog
}

func NewBlogHandler(cat *catalog.Catalog) *BlogHandler {
	return &BlogHandler{Catalog: cat}
}

type BlogPostReq struct {
	Title       string   `json:"title"`
	Excerpt     string   `json:"excerpt"`
	Body        string   `json:"body"`
	Author      string   `json:"author"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Status      string   `json:"status"`
	PublishedAt string   `json:"published_at"` // RFC3339, used for scheduling
}

func (r *BlogPostReq) validate() FieldErrors {
	errs := FieldErrors{}
	if r.Title == "" {
		errs.Add("title", "title is required")
	}
	if r.Body == "" {
		errs.Add("body", "body is required")
	}
	switch models.PostStatus(r.Status) {
	case "", models.PostDraft, models.PostScheduled, models.PostPublished:
	default:
		errs.Add("status", "status must be draft, scheduled or published")
	}
	if models.PostStatus(r.Status) == models.PostScheduled && r.PublishedAt == "" {
		errs.Add("published_at", "scheduled posts need a publish time")
	}
	if r.PublishedAt != "" {
		if _, err := time.Parse(time.RFC3339, r.PublishedAt); err != nil {
			errs.Add("published_at", "must be RFC3339")
		}
	}
	return errs
}

func (h *BlogHandler) uniqueSlug(c *fiber.Ctx, title string) (string, error) {
	base := utils.Slugify(title)
	if base == "" {
		base = "post"
	}
	slug := base
	for attempt := 2; attempt <= 10; attempt++ {
		_, err := h.Catalog.GetPostBySlug(c.Context(), slug)
		if errors.Is(err, store.ErrNotFound) {
			return slug, nil
		}
		if err != nil {
			return "", err
		}
		slug = fmt.Sprintf("%s-%d", base, attempt)
	}
	return "", store.ErrConflict
}

func (h *BlogHandler) Create(c *fiber.Ctx) error {
	var req BlogPostReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}
	if errs := req.validate(); len(errs) > 0 {
		return validationFail(c, errs)
	}

	slug, err := h.uniqueSlug(c, req.Title)
	if err != nil {
		return storeFail(c, err, "")
	}

	now := time.Now().UTC()
	status := models.PostStatus(req.Status)
	if status == "" {
		status = models.PostDraft
	}
	publishedAt := now
	if req.PublishedAt != "" {
		publishedAt, _ = time.Parse(time.RFC3339, req.PublishedAt)
	}

	p := &models.BlogPost{
		ID:          uuid.NewString(),
		Slug:        slug,
		Title:       req.Title,
		Excerpt:     req.Excerpt,
		Body:        req.Body,
		Author:      req.Author,
		Category:    req.Category,
		Tags:        req.Tags,
		Status:      status,
		PublishedAt: publishedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.Catalog.CreatePost(c.Context(), p); err != nil {
		return storeFail(c, err, "")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    p,
	})
}

func (h *BlogHandler) List(c *fiber.Ctx) error {
	limit := int32(c.QueryInt("limit", 20))
	if tag := c.Query("tag"); tag != "" {
		posts, err := h.Catalog.ListPostsByTag(c.Context(), tag)
		if err != nil {
			return storeFail(c, err, "")
		}
		out := make([]models.BlogPost, 0, len(posts))
		for _, p := range posts {
			if p.Status == models.PostPublished {
				out = append(out, p)
			}
		}
		return c.JSON(fiber.Map{"success": true, "data": out})
	}

	posts, err := h.Catalog.ListPostsByStatus(c.Context(), models.PostPublished, limit)
	if err != nil {
		return storeFail(c, err, "")
	}
	return c.JSON(fiber.Map{"success": true, "data": posts})
}

func (h *BlogHandler) Get(c *fiber.Ctx) error {
	p, err := h.Catalog.GetPost(c.Context(), c.Params("id"))
	if err != nil {
		return storeFail(c, err, "post not found")
	}
	return c.JSON(fiber.Map{"success": true, "data": p})
}

// GetBySlug is the public read path; it also counts the view.
func (h *BlogHandler) GetBySlug(c *fiber.Ctx) error {
	p, err := h.Catalog.GetPostBySlug(c.Context(), c.Params("slug"))
	if err != nil {
		return storeFail(c, err, "post not found")
	}
	if p.Status != models.PostPublished {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "post not found",
		})
	}
	if err := h.Catalog.AddPostViews(c.Context(), p.ID, 1); err != nil {
		log.Warn().Err(err).Str("post_id", p.ID).Msg("view counter increment failed")
	}
	return c.JSON(fiber.Map{"success": true, "data": p})
}

func (h *BlogHandler) Update(c *fiber.Ctx) error {
	p, err := h.Catalog.GetPost(c.Context(), c.Params("id"))
	if err != nil {
		return storeFail(c, err, "post not found")
	}

	var req BlogPostReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}
	if errs := req.validate(); len(errs) > 0 {
		return validationFail(c, errs)
	}

	p.Title = req.Title
	p.Excerpt = req.Excerpt
	p.Body = req.Body
	p.Author = req.Author
	p.Category = req.Category
	p.Tags = req.Tags
	if req.Status != "" {
		p.Status = models.PostStatus(req.Status)
	}
	if req.PublishedAt != "" {
		p.PublishedAt, _ = time.Parse(time.RFC3339, req.PublishedAt)
	} else if p.Status == models.PostPublished && p.PublishedAt.IsZero() {
		p.PublishedAt = time.Now().UTC()
	}
	p.UpdatedAt = time.Now().UTC()

	if err := h.Catalog.PutPost(c.Context(), p); err != nil {
		return storeFail(c, err, "")
	}
	return c.JSON(fiber.Map{"success": true, "data": p})
}

func (h *BlogHandler) Delete(c *fiber.Ctx) error {
	p, err := h.Catalog.GetPost(c.Context(), c.Params("id"))
	if err != nil {
		return storeFail(c, err, "post not found")
	}
	p.Status = models.PostDraft
	p.UpdatedAt = time.Now().UTC()
	if err := h.Catalog.PutPost(c.Context(), p); err != nil {
		return storeFail(c, err, "")
	}
	return c.JSON(fiber.Map{"success": true, "message": "post unpublished"})
}
