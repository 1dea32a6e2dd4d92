package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/counselorcorner/storefront_be/internal/catalog"
	"github.com/counselorcorner/storefront_be/internal/middleware"
	"github.com/counselorcorner/storefront_be/internal/models"
	"github.com/counselorcorner/storefront_be/internal/store"
	"github.com/counselorcorner/storefront_be/internal/utils"
)

type ProductHandler struct {
	Catalog *catalog.Catalog
}

func NewProductHandler(cat *catalog.Catalog) *ProductHandler {
	return &ProductHandler{Catalog: cat}
}

type ProductReq struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	GradeLevels []string `json:"grade_levels"`
	Tags        []string `json:"tags"`
	Status      string   `json:"status"`

	Featured   bool `json:"featured"`
	NewRelease bool `json:"new_release"`
	BestSeller bool `json:"best_seller"`

	FileURL       string   `json:"file_url"`
	PreviewImages []string `json:"preview_images"`
}

func (r *ProductReq) validate() FieldErrors {
	errs := FieldErrors{}
	if r.Name == "" {
		errs.Add("name", "name is required")
	}
	if r.Category == "" {
		errs.Add("category", "category is required")
	}
	if r.Price < 0 {
		errs.Add("price", "price cannot be negative")
	}
	switch models.ProductStatus(r.Status) {
	case "", models.ProductDraft, models.ProductActive, models.ProductArchived:
	default:
		errs.Add("status", "status must be draft, active or archived")
	}
	return errs
}

// uniqueSlug appends a numeric suffix until the slug is free. Bounded; a
// store that keeps answering "taken" eventually surfaces a conflict.
func (h *ProductHandler) uniqueSlug(c *fiber.Ctx, name string) (string, error) {
	base := utils.Slugify(name)
	if base == "" {
		base = "product"
	}
	slug := base
	for attempt := 2; attempt <= 10; attempt++ {
		_, err := h.Catalog.GetProductBySlug(c.Context(), slug)
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

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var req ProductReq
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

	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "authentication required",
		})
	}
	now := time.Now().UTC()
	status := models.ProductStatus(req.Status)
	if status == "" {
		status = models.ProductDraft
	}

	p := &models.Product{
		ID:            uuid.NewString(),
		Slug:          slug,
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		Category:      req.Category,
		GradeLevels:   req.GradeLevels,
		Tags:          req.Tags,
		Status:        status,
		Featured:      req.Featured,
		NewRelease:    req.NewRelease,
		BestSeller:    req.BestSeller,
		FileURL:       req.FileURL,
		PreviewImages: req.PreviewImages,
		CreatedBy:     user.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.Catalog.CreateProduct(c.Context(), p); err != nil {
		return storeFail(c, err, "")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    p,
	})
}

func (h *ProductHandler) List(c *fiber.Ctx) error {
	limit := int32(c.QueryInt("limit", 50))
	category := c.Query("category")
	featured := c.QueryBool("featured", false)

	var (
		products []models.Product
		err      error
	)
	switch {
	case featured:
		products, err = h.Catalog.ListFeaturedProducts(c.Context(), limit)
	case category != "":
		products, err = h.Catalog.ListProductsByCategory(c.Context(), category, limit)
	default:
		products, err = h.Catalog.ListProductsByStatus(c.Context(), models.ProductActive, limit)
	}
	if err != nil {
		return storeFail(c, err, "")
	}

	// category and featured partitions carry every status
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.Status == models.ProductActive {
			out = append(out, p)
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    out,
	})
}

func (h *ProductHandler) AdminList(c *fiber.Ctx) error {
	status := models.ProductStatus(c.Query("status", string(models.ProductActive)))
	limit := int32(c.QueryInt("limit", 100))

	products, err := h.Catalog.ListProductsByStatus(c.Context(), status, limit)
	if err != nil {
		return storeFail(c, err, "")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    products,
	})
}

func (h *ProductHandler) Get(c *fiber.Ctx) error {
	p, err := h.Catalog.GetProduct(c.Context(), c.Params("id"))
	if err != nil {
		return storeFail(c, err, "product not found")
	}
	if p.Status != models.ProductActive && middleware.CurrentUser(c) == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "product not found",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    p,
	})
}

func (h *ProductHandler) GetBySlug(c *fiber.Ctx) error {
	p, err := h.Catalog.GetProductBySlug(c.Context(), c.Params("slug"))
	if err != nil {
		return storeFail(c, err, "product not found")
	}
	if p.Status != models.ProductActive {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "product not found",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    p,
	})
}

func (h *ProductHandler) Update(c *fiber.Ctx) error {
	p, err := h.Catalog.GetProduct(c.Context(), c.Params("id"))
	if err != nil {
		return storeFail(c, err, "product not found")
	}

	var req ProductReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}
	if errs := req.validate(); len(errs) > 0 {
		return validationFail(c, errs)
	}

	// slug stays stable across renames; customer links keep working
	p.Name = req.Name
	p.Description = req.Description
	p.Price = req.Price
	p.Category = req.Category
	p.GradeLevels = req.GradeLevels
	p.Tags = req.Tags
	p.Featured = req.Featured
	p.NewRelease = req.NewRelease
	p.BestSeller = req.BestSeller
	p.FileURL = req.FileURL
	p.PreviewImages = req.PreviewImages
	if req.Status != "" {
		p.Status = models.ProductStatus(req.Status)
	}
	p.UpdatedAt = time.Now().UTC()

	if err := h.Catalog.PutProduct(c.Context(), p); err != nil {
		return storeFail(c, err, "")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    p,
	})
}

// Delete archives. Products are never hard-deleted in normal flow; orders
// keep referencing them.
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	p, err := h.Catalog.GetProduct(c.Context(), c.Params("id"))
	if err != nil {
		return storeFail(c, err, "product not found")
	}
	p.Status = models.ProductArchived
	p.UpdatedAt = time.Now().UTC()
	if err := h.Catalog.PutProduct(c.Context(), p); err != nil {
		return storeFail(c, err, "")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "product archived",
	})
}

// Download hands back the asset URL and bumps the download counter.
func (h *ProductHandler) Download(c *fiber.Ctx) error {
	p, err := h.Catalog.GetProduct(c.Context(), c.Params("id"))
	if err != nil {
		return storeFail(c, err, "product not found")
	}
	if p.Status != models.ProductActive {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "product not found",
		})
	}
	if err := h.Catalog.AddProductCounter(c.Context(), p.ID, "downloads", 1); err != nil {
		log.Warn().Err(err).Str("product_id", p.ID).Msg("download counter increment failed")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"url": p.FileURL,
		},
	})
}
