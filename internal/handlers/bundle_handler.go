package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/counselorcorner/storefront_be/internal/catalog"
	"github.com/counselorcorner/storefront_be/internal/models"
	"github.com/counselorcorner/storefront_be/internal/store"
	"github.com/counselorcorner/storefront_be/internal/utils"
)

type BundleHandler struct {
	Catalog *catalog.Catalog
}

func NewBundleHandler(cat *catalog.Catalog) *BundleHandler {
	return &BundleHandler{Catalog: cat}
}

type BundleReq struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	OriginalPrice float64  `json:"original_price"`
	ProductIDs    []string `json:"product_ids"`
	Status        string   `json:"status"`
}

func (r *BundleReq) validate() FieldErrors {
	errs := FieldErrors{}
	if r.Name == "" {
		errs.Add("name", "name is required")
	}
	if len(r.ProductIDs) == 0 {
		errs.Add("product_ids", "a bundle needs at least one product")
	}
	if r.Price < 0 {
		errs.Add("price", "price cannot be negative")
	}
	switch models.BundleStatus(r.Status) {
	case "", models.BundleDraft, models.BundleActive, models.BundleArchived:
	default:
		errs.Add("status", "status must be draft, active or archived")
	}
	return errs
}

// uniqueSlug appends a numeric suffix until the slug is free. Bounded; a
// store that keeps answering "taken" eventually surfaces a conflict.
func (h *BundleHandler) uniqueSlug(c *fiber.Ctx, name string) (string, error) {
	base := utils.Slugify(name)
	if base == "" {
		base = "bundle"
	}
	slug := base
	for attempt := 2; attempt <= 10; attempt++ {
		_, err := h.Catalog.GetBundleBySlug(c.Context(), slug)
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

func (h *BundleHandler) Create(c *fiber.Ctx) error {
	var req BundleReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}
	if errs := req.validate(); len(errs) > 0 {
		return validationFail(c, errs)
	}

	slug, err := h.uniqueSlug(c, req.Name)
	if err != nil {
		return storeFail(c, err, "")
	}

	now := time.Now().UTC()
	status := models.BundleStatus(req.Status)
	if status == "" {
		status = models.BundleDraft
	}
	b := &models.Bundle{
		ID:            uuid.NewString(),
		Slug:          slug,
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		ProductIDs:    req.ProductIDs,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.Catalog.CreateBundle(c.Context(), b); err != nil {
		return storeFail(c, err, "")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    b,
	})
}

func (h *BundleHandler) List(c *fiber.Ctx) error {
	limit := int32(c.QueryInt("limit", 50))
	bundles, err := h.Catalog.ListBundlesByStatus(c.Context(), models.BundleActive, limit)
	if err != nil {
		return storeFail(c, err, "")
	}

	out := make([]fiber.Map, 0, len(bundles))
	for i := range bundles {
		b := &bundles[i]
		out = append(out, fiber.Map{
			"bundle":  b,
			"savings": b.Savings(),
		})
	}
	return c.JSON(fiber.Map{"success": true, "data": out})
}

func (h *BundleHandler) Get(c *fiber.Ctx) error {
	b, err := h.Catalog.GetBundle(c.Context(), c.Params("id"))
	if err != nil {
		return storeFail(c, err, "bundle not found")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"bundle":  b,
			"savings": b.Savings(),
		},
	})
}

func (h *BundleHandler) GetBySlug(c *fiber.Ctx) error {
	b, err := h.Catalog.GetBundleBySlug(c.Context(), c.Params("slug"))
	if err != nil {
		return storeFail(c, err, "bundle not found")
	}
	if b.Status != models.BundleActive {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "bundle not found",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"bundle":  b,
			"savings": b.Savings(),
		},
	})
}

func (h *BundleHandler) Update(c *fiber.Ctx) error {
	b, err := h.Catalog.GetBundle(c.Context(), c.Params("id"))
	if err != nil {
		return storeFail(c, err, "bundle not found")
	}

	var req BundleReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}
	if errs := req.validate(); len(errs) > 0 {
		return validationFail(c, errs)
	}

	b.Name = req.Name
	b.Description = req.Description
	b.Price = req.Price
	b.OriginalPrice = req.OriginalPrice
	b.ProductIDs = req.ProductIDs
	if req.Status != "" {
		b.Status = models.BundleStatus(req.Status)
	}
	b.UpdatedAt = time.Now().UTC()

	if err := h.Catalog.PutBundle(c.Context(), b); err != nil {
		return storeFail(c, err, "")
	}
	return c.JSON(fiber.Map{"success": true, "data": b})
}

func (h *BundleHandler) Delete(c *fiber.Ctx) error {
	b, err := h.Catalog.GetBundle(c.Context(), c.Params("id"))
	if err != nil {
		return storeFail(c, err, "bundle not found")
	}
	b.Status = models.BundleArchived
	b.UpdatedAt = time.Now().UTC()
	if err := h.Catalog.PutBundle(c.Context(), b); err != nil {
		return storeFail(c, err, "")
	}
	return c.JSON(fiber.Map{"success": true, "message": "bundle archived"})
}
