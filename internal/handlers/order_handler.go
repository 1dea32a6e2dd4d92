package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/counselorcorner/storefront_be/internal/catalog"
	"github.com/counselorcorner/storefront_be/internal/middleware"
)

type OrderHandler struct {
	Catalog *catalog.Catalog
}

func NewOrderHandler(cat *catalog.Catalog) *OrderHandler {
	return &OrderHandler{Catalog: cat}
}

// List returns the authenticated customer's order history, newest first.
func (h *OrderHandler) List(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "authentication required",
		})
	}

	orders, err := h.Catalog.ListOrdersByUser(c.Context(), user.ID, int32(c.QueryInt("limit", 50)))
	if err != nil {
		return storeFail(c, err, "")
	}
	return c.JSON(fiber.Map{"success": true, "data": orders})
}

// Get fetches one order. Customers only see their own; admin routes use
// the same handler behind the role gate.
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "authentication required",
		})
	}

	order, err := h.Catalog.GetOrder(c.Context(), c.Params("id"))
	if err != nil {
		return storeFail(c, err, "order not found")
	}
	if order.CustomerID != user.ID && !user.HasRole("admin") {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "order not found",
		})
	}
	return c.JSON(fiber.Map{"success": true, "data": order})
}

func (h *OrderHandler) AdminList(c *fiber.Ctx) error {
	orders, err := h.Catalog.ListAllOrders(c.Context())
	if err != nil {
		return storeFail(c, err, "")
	}
	return c.JSON(fiber.Map{"success": true, "data": orders})
}
