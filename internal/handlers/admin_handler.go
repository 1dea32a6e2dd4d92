package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/counselorcorner/storefront_be/internal/catalog"
	"github.com/counselorcorner/storefront_be/internal/models"
	"github.com/counselorcorner/storefront_be/internal/services/printpod"
)

type AdminHandler struct {
	Catalog  *catalog.Catalog
	PrintPOD *printpod.Client
}

func NewAdminHandler(cat *catalog.Catalog, pod *printpod.Client) *AdminHandler {
	return &AdminHandler{Catalog: cat, PrintPOD: pod}
}

// Stats aggregates the dashboard numbers. Orders are a full-partition read;
// volumes here are small enough that this stays cheap.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	ctx := c.Context()

	activeProducts, err := h.Catalog.CountProductsByStatus(ctx, models.ProductActive)
	if err != nil {
		return storeFail(c, err, "")
	}
	publishedPosts, err := h.Catalog.CountPostsByStatus(ctx, models.PostPublished)
	if err != nil {
		return storeFail(c, err, "")
	}
	subscribers, err := h.Catalog.CountSubscribed(ctx)
	if err != nil {
		return storeFail(c, err, "")
	}
	orders, err := h.Catalog.ListAllOrders(ctx)
	if err != nil {
		return storeFail(c, err, "")
	}

	var revenueCents int64
	for i := range orders {
		revenueCents += orders[i].TotalCents
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"active_products": activeProducts,
			"published_posts": publishedPosts,
			"subscribers":     subscribers,
			"orders":          len(orders),
			"revenue_cents":   revenueCents,
		},
	})
}

func (h *AdminHandler) ListPrintProviders(c *fiber.Ctx) error {
	providers, err := h.PrintPOD.GetProviders(c.Context())
	if err != nil {
		log.Error().Err(err).Msg("print provider lookup failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"message": "print vendor is unavailable",
		})
	}
	return c.JSON(fiber.Map{"success": true, "data": providers})
}

// PublishPrintProduct pushes a catalog product to the print vendor and
// records the vendor id on the product.
func (h *AdminHandler) PublishPrintProduct(c *fiber.Ctx) error {
	p, err := h.Catalog.GetProduct(c.Context(), c.Params("id"))
	if err != nil {
		return storeFail(c, err, "product not found")
	}
	if p.PrintProductID != "" {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "product is already published to the print vendor",
		})
	}

	vendorID, err := h.PrintPOD.PublishProduct(c.Context(), p)
	if err != nil {
		log.Error().Err(err).Str("product_id", p.ID).Msg("print publish failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"message": "print vendor rejected the product",
		})
	}

	p.PrintProductID = vendorID
	p.UpdatedAt = time.Now().UTC()
	if err := h.Catalog.PutProduct(c.Context(), p); err != nil {
		return storeFail(c, err, "")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"product_id":       p.ID,
			"print_product_id": vendorID,
		},
	})
}
