// Package checkout turns a cart into a payment session and reconciles a
// completed payment into an order. Prices always come from the catalog;
// whatever the client claims an item costs is never read.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/counselorcorner/storefront_be/internal/models"
	"github.com/counselorcorner/storefront_be/internal/services/payment"
	"github.com/counselorcorner/storefront_be/internal/store"
)

var (
	ErrEmptyCart         = errors.New("checkout: cart is empty")
	ErrItemUnavailable   = errors.New("checkout: item unavailable")
	ErrInvalidCoupon     = errors.New("checkout: coupon cannot be applied")
	ErrPaymentIncomplete = errors.New("checkout: payment not completed")
)

type CartItem struct {
	ProductID string
	Quantity  int
}

type Customer struct {
	ID    string
	Email string
}

// Catalog is the slice of the catalog layer checkout needs.
type Catalog interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	GetCoupon(ctx context.Context, code string) (*models.Coupon, error)
	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, sessionID string) (*models.Order, error)
	AddCouponUse(ctx context.Context, code string) error
	AddProductCounter(ctx context.Context, id, counter string, delta int64) error
}

// Payments is the slice of the payment vendor client checkout needs.
type Payments interface {
	CreateSession(ctx context.Context, req payment.SessionRequest) (*payment.Session, error)
	GetSession(ctx context.Context, id string) (*payment.Session, error)
}

type Service struct {
	Catalog    Catalog
	Payments   Payments
	SuccessURL string
	CancelURL  string
}

func NewService(c Catalog, p Payments, successURL, cancelURL string) *Service {
	return &Service{Catalog: c, Payments: p, SuccessURL: successURL, CancelURL: cancelURL}
}

func priceCents(price float64) int64 {
	return int64(math.Round(price * 100))
}

// CreateSession looks up every product server-side, rejects anything not
// active, applies an optional coupon and opens a vendor checkout session.
func (s *Service) CreateSession(ctx context.Context, items []CartItem, couponCode string, cust Customer) (*payment.Session, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	var lines []payment.LineItem
	var subtotal int64
	for _, item := range items {
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		p, err := s.Catalog.GetProduct(ctx, item.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrItemUnavailable, item.ProductID)
		}
		if err != nil {
			return nil, err
		}
		if p.Status != models.ProductActive {
			return nil, fmt.Errorf("%w: %s", ErrItemUnavailable, item.ProductID)
		}
		unit := priceCents(p.Price)
		lines = append(lines, payment.LineItem{
			ProductID: p.ID,
			Name:      p.Name,
			UnitCents: unit,
			Quantity:  item.Quantity,
		})
		subtotal += unit * int64(item.Quantity)
	}

	var discount int64
	code := models.NormalizeCouponCode(couponCode)
	if code != "" {
		coupon, err := s.Catalog.GetCoupon(ctx, code)
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown code", ErrInvalidCoupon)
		}
		if err != nil {
			return nil, err
		}
		discount, err = coupon.Discount(subtotal, time.Now())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCoupon, err)
		}
	}

	return s.Payments.CreateSession(ctx, payment.SessionRequest{
		Reference:     "cart",
		LineItems:     lines,
		DiscountCents: discount,
		CouponCode:    code,
		CustomerID:    cust.ID,
		CustomerEmail: cust.Email,
		SuccessURL:    s.SuccessURL,
		CancelURL:     s.CancelURL,
	})
}

// ConfirmPayment fetches the session from the vendor and, exactly once per
// session id, writes the order. Retried confirmations return the order that
// already exists. Prices locked into the session are authoritative even if
// the catalog changed since.
func (s *Service) ConfirmPayment(ctx context.Context, sessionID string) (*models.Order, error) {
	sess, err := s.Payments.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Paid() {
		return nil, fmt.Errorf("%w: session status %q", ErrPaymentIncomplete, sess.Status)
	}

	order := &models.Order{
		SessionID:     sess.ID,
		TotalCents:    sess.AmountCents,
		DiscountCents: sess.DiscountCents,
		CouponCode:    sess.CouponCode,
		CustomerID:    sess.CustomerID,
		CustomerEmail: sess.CustomerEmail,
		Status:        "paid",
		CreatedAt:     time.Now().UTC(),
	}
	for _, li := range sess.LineItems {
		order.Items = append(order.Items, models.OrderItem{
			ProductID: li.ProductID,
			Name:      li.Name,
			UnitCents: li.UnitCents,
			Quantity:  li.Quantity,
		})
	}

	err = s.Catalog.CreateOrder(ctx, order)
	if errors.Is(err, store.ErrConflict) {
		return s.Catalog.GetOrder(ctx, sessionID)
	}
	if err != nil {
		return nil, err
	}

	// Post-order bookkeeping is best-effort: sales counters and coupon
	// usage are not transactional with the order write.
	for _, item := range order.Items {
		if err := s.Catalog.AddProductCounter(ctx, item.ProductID, "sales", int64(item.Quantity)); err != nil {
			log.Warn().Err(err).Str("product_id", item.ProductID).Msg("sales counter increment failed")
		}
	}
	if order.CouponCode != "" {
		if err := s.Catalog.AddCouponUse(ctx, order.CouponCode); err != nil {
			log.Warn().Err(err).Str("coupon", order.CouponCode).Msg("coupon use increment failed")
		}
	}

	return order, nil
}
