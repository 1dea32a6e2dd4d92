package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/counselorcorner/storefront_be/internal/middleware"
	"github.com/counselorcorner/storefront_be/internal/services/checkout"
	"github.com/counselorcorner/storefront_be/internal/services/payment"
)

type CheckoutHandler struct {
	Checkout *checkout.Service
	Payments *payment.Client
}

func NewCheckoutHandler(svc *checkout.Service, payments *payment.Client) *CheckoutHandler {
	return &CheckoutHandler{Checkout: svc, Payments: payments}
}

type CartItemReq struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	// Price is accepted for backward compatibility with older clients and
	// deliberately never read; the server prices every line itself.
	Price float64 `json:"price"`
}

type CreateSessionReq struct {
	Items      []CartItemReq `json:"items"`
	CouponCode string        `json:"coupon_code"`
	Email      string        `json:"email"`
}

func (h *CheckoutHandler) CreateSession(c *fiber.Ctx) error {
	var req CreateSessionReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}
	if len(req.Items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "cart is empty",
		})
	}

	items := make([]checkout.CartItem, 0, len(req.Items))
	for _, it := range req.Items {
		if it.ProductID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "every cart item needs a product_id",
			})
		}
		items = append(items, checkout.CartItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	cust := checkout.Customer{Email: req.Email}
	if user := middleware.CurrentUser(c); user != nil {
		cust.ID = user.ID
		cust.Email = user.Email
	}

	sess, err := h.Checkout.CreateSession(c.Context(), items, req.CouponCode, cust)
	switch {
	case errors.Is(err, checkout.ErrItemUnavailable):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "item unavailable",
		})
	case errors.Is(err, checkout.ErrInvalidCoupon):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "coupon cannot be applied",
		})
	case err != nil:
		log.Error().Err(err).Msg("create checkout session failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "checkout is temporarily unavailable",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"session_id":   sess.ID,
			"checkout_url": sess.URL,
			"amount_total": sess.AmountCents,
		},
	})
}

type VerifyPaymentReq struct {
	SessionID string `json:"session_id"`
}

func (h *CheckoutHandler) VerifyPayment(c *fiber.Ctx) error {
	var req VerifyPaymentReq
	if err := c.BodyParser(&req); err != nil || req.SessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "session_id is required",
		})
	}

	order, err := h.Checkout.ConfirmPayment(c.Context(), req.SessionID)
	switch {
	case errors.Is(err, checkout.ErrPaymentIncomplete):
		// declined/unpaid is a user-facing state, not a system error
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "payment was not completed, please try another payment method",
		})
	case err != nil:
		log.Error().Err(err).Str("session_id", req.SessionID).Msg("payment confirmation failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "something went wrong on our side, please contact support",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    order,
	})
}

type webhookPayload struct {
	Type string `json:"type"`
	Data struct {
		SessionID string `json:"session_id"`
	} `json:"data"`
}

// Webhook is the vendor's server-to-server confirmation path. Confirmation
// is idempotent, so the browser-driven verify call and this callback can
// both land.
func (h *CheckoutHandler) Webhook(c *fiber.Ctx) error {
	signature := c.Get("X-Webhook-Signature")
	if signature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "missing signature",
		})
	}
	body := c.Body()
	if !h.Payments.ValidateSignature(signature, body) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid signature",
		})
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid payload",
		})
	}
	if payload.Type != "checkout.session.completed" || payload.Data.SessionID == "" {
		// not an event we act on; acknowledge so the vendor stops retrying
		return c.JSON(fiber.Map{"success": true})
	}

	if _, err := h.Checkout.ConfirmPayment(c.Context(), payload.Data.SessionID); err != nil {
		if errors.Is(err, checkout.ErrPaymentIncomplete) {
			return c.JSON(fiber.Map{"success": true})
		}
		log.Error().Err(err).Str("session_id", payload.Data.SessionID).Msg("webhook confirmation failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "internal error",
		})
	}
	return c.JSON(fiber.Map{"success": true})
}
