package handlers

import (
	"errors"
	"math"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/counselorcorner/storefront_be/internal/catalog"
	"github.com/counselorcorner/storefront_be/internal/models"
	"github.com/counselorcorner/storefront_be/internal/store"
)

type CouponHandler struct {
	Catalog *catalog.Catalog
}

func NewCouponHandler(cat *catalog.Catalog) *CouponHandler {
	return &CouponHandler{Catalog: cat}
}

type CouponReq struct {
	Code       string  `json:"code"`
	Type       string  `json:"type"`
	Value      float64 `json:"value"`
	MaxUses    int64   `json:"max_uses"`
	ValidFrom  string  `json:"valid_from"`  // RFC3339, optional
	ValidUntil string  `json:"valid_until"` // RFC3339, optional
	Status     string  `json:"status"`
}

func (r *CouponReq) validate() FieldErrors {
	errs := FieldErrors{}
	if models.NormalizeCouponCode(r.Code) == "" {
		errs.Add("code", "code is required")
	}
	switch models.CouponType(r.Type) {
	case models.CouponPercentage:
		if r.Value <= 0 || r.Value > 100 {
			errs.Add("value", "percentage must be between 0 and 100")
		}
	case models.CouponFixed:
		if r.Value <= 0 {
			errs.Add("value", "fixed discount must be positive")
		}
	default:
		errs.Add("type", "type must be percentage or fixed")
	}
	for field, v := range map[string]string{"valid_from": r.ValidFrom, "valid_until": r.ValidUntil} {
		if v != "" {
			if _, err := time.Parse(time.RFC3339, v); err != nil {
				errs.Add(field, "must be RFC3339")
			}
		}
	}
	switch models.CouponStatus(r.Status) {
	case "", models.CouponActive, models.CouponDisabled:
	default:
		errs.Add("status", "status must be active or disabled")
	}
	return errs
}

func (h *CouponHandler) Create(c *fiber.Ctx) error {
	var req CouponReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}
	if errs := req.validate(); len(errs) > 0 {
		return validationFail(c, errs)
	}

	now := time.Now().UTC()
	status := models.CouponStatus(req.Status)
	if status == "" {
		status = models.CouponActive
	}
	coupon := &models.Coupon{
		Code:      models.NormalizeCouponCode(req.Code),
		Type:      models.CouponType(req.Type),
		Value:     req.Value,
		MaxUses:   req.MaxUses,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.ValidFrom != "" {
		coupon.ValidFrom, _ = time.Parse(time.RFC3339, req.ValidFrom)
	}
	if req.ValidUntil != "" {
		coupon.ValidUntil, _ = time.Parse(time.RFC3339, req.ValidUntil)
	}

	if err := h.Catalog.CreateCoupon(c.Context(), coupon); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success": false,
				"message": "coupon code already exists",
			})
		}
		return storeFail(c, err, "")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    coupon,
	})
}

func (h *CouponHandler) List(c *fiber.Ctx) error {
	status := models.CouponStatus(c.Query("status", string(models.CouponActive)))
	coupons, err := h.Catalog.ListCouponsByStatus(c.Context(), status, int32(c.QueryInt("limit", 100)))
	if err != nil {
		return storeFail(c, err, "")
	}
	return c.JSON(fiber.Map{"success": true, "data": coupons})
}

func (h *CouponHandler) Update(c *fiber.Ctx) error {
	coupon, err := h.Catalog.GetCoupon(c.Context(), c.Params("code"))
	if err != nil {
		return storeFail(c, err, "coupon not found")
	}

	var req CouponReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}
	req.Code = coupon.Code // code is identity, not editable
	if errs := req.validate(); len(errs) > 0 {
		return validationFail(c, errs)
	}

	coupon.Type = models.CouponType(req.Type)
	coupon.Value = req.Value
	coupon.MaxUses = req.MaxUses
	if req.Status != "" {
		coupon.Status = models.CouponStatus(req.Status)
	}
	if req.ValidFrom != "" {
		coupon.ValidFrom, _ = time.Parse(time.RFC3339, req.ValidFrom)
	}
	if req.ValidUntil != "" {
		coupon.ValidUntil, _ = time.Parse(time.RFC3339, req.ValidUntil)
	}
	coupon.UpdatedAt = time.Now().UTC()

	if err := h.Catalog.PutCoupon(c.Context(), coupon); err != nil {
		return storeFail(c, err, "")
	}
	return c.JSON(fiber.Map{"success": true, "data": coupon})
}

func (h *CouponHandler) Delete(c *fiber.Ctx) error {
	if _, err := h.Catalog.GetCoupon(c.Context(), c.Params("code")); err != nil {
		return storeFail(c, err, "coupon not found")
	}
	if err := h.Catalog.DeleteCoupon(c.Context(), c.Params("code")); err != nil {
		return storeFail(c, err, "")
	}
	return c.JSON(fiber.Map{"success": true, "message": "coupon deleted"})
}

type ValidateCouponReq struct {
	Code     string  `json:"code"`
	Subtotal float64 `json:"subtotal"`
}

// Validate prices a coupon against a subtotal without reserving a use.
func (h *CouponHandler) Validate(c *fiber.Ctx) error {
	var req ValidateCouponReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}
	if models.NormalizeCouponCode(req.Code) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "code is required",
		})
	}

	coupon, err := h.Catalog.GetCoupon(c.Context(), req.Code)
	if err != nil {
		return storeFail(c, err, "coupon not found")
	}

	subtotalCents := int64(math.Round(req.Subtotal * 100))
	discount, err := coupon.Discount(subtotalCents, time.Now())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"code":           coupon.Code,
			"discount_cents": discount,
			"total_cents":    subtotalCents - discount,
		},
	})
}
