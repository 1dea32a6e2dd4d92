package models

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/counselorcorner/storefront_be/internal/store"
)

type CouponType string

const (
	CouponPercentage CouponType = "percentage"
	CouponFixed      CouponType = "fixed"
)

type CouponStatus string

const (
	CouponActive   CouponStatus = "active"
	CouponDisabled CouponStatus = "disabled"
)

var (
	ErrCouponInactive  = errors.New("coupon is not active")
	ErrCouponNotYet    = errors.New("coupon is not valid yet")
	ErrCouponExpired   = errors.New("coupon has expired")
	ErrCouponExhausted = errors.New("coupon usage limit reached")
)

// Coupon codes are stored uppercase; the code is the identity.
type Coupon struct {
	Code   string       `dynamodbav:"code" json:"code"`
	Type   CouponType   `dynamodbav:"type" json:"type"`
	Value  float64      `dynamodbav:"value" json:"value"`
	Status CouponStatus `dynamodbav:"status" json:"status"`

	MaxUses   int64 `dynamodbav:"max_uses" json:"max_uses"` // 0 = unlimited
	UsedCount int64 `dynamodbav:"used_count" json:"used_count"`

	ValidFrom  time.Time `dynamodbav:"valid_from" json:"valid_from"`
	ValidUntil time.Time `dynamodbav:"valid_until" json:"valid_until"`

	CreatedAt  time.Time `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt  time.Time `dynamodbav:"updated_at" json:"updated_at"`
	EntityType string    `dynamodbav:"entity_type" json:"-"`
}

func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func CouponPK(code string) string { return "COUPON#" + NormalizeCouponCode(code) }

func CouponStatusPartition(status CouponStatus) string { return "COUPON#STATUS#" + string(status) }

func (c *Coupon) Keys() (store.Keys, error) {
	if c.Code == "" || c.Status == "" {
		return store.Keys{}, errors.New("coupon: code and status are required for key construction")
	}
	return store.Keys{
		PK:     CouponPK(c.Code),
		SK:     "METADATA",
		GSI1PK: CouponStatusPartition(c.Status),
		GSI1SK: c.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}

// Discount returns the discount in cents for the given subtotal, or the
// reason the coupon cannot be applied right now. The used-count check is a
// snapshot read, not a reservation.
func (c *Coupon) Discount(subtotalCents int64, now time.Time) (int64, error) {
	if c.Status != CouponActive {
		return 0, ErrCouponInactive
	}
	if !c.ValidFrom.IsZero() && now.Before(c.ValidFrom) {
		return 0, ErrCouponNotYet
	}
	if !c.ValidUntil.IsZero() && now.After(c.ValidUntil) {
		return 0, ErrCouponExpired
	}
	if c.MaxUses > 0 && c.UsedCount >= c.MaxUses {
		return 0, ErrCouponExhausted
	}
	var discount int64
	switch c.Type {
	case CouponPercentage:
		discount = int64(math.Round(float64(subtotalCents) * c.Value / 100))
	case CouponFixed:
		discount = int64(math.Round(c.Value * 100))
	default:
		return 0, ErrCouponInactive
	}
	if discount > subtotalCents {
		discount = subtotalCents
	}
	if discount < 0 {
		discount = 0
	}
	return discount, nil
}
