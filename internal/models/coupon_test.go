package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeCoupon(typ CouponType, value float64) *Coupon {
	return &Coupon{
		Code:   "SAVE10",
		Type:   typ,
		Value:  value,
		Status: CouponActive,
	}
}

func TestCouponDiscountPercentage(t *testing.T) {
	c := activeCoupon(CouponPercentage, 10)
	d, err := c.Discount(4998, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(500), d) // 499.8 rounds up
}

func TestCouponDiscountFixed(t *testing.T) {
	c := activeCoupon(CouponFixed, 5)
	d, err := c.Discount(4998, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(500), d)
}

func TestCouponDiscountClampedToSubtotal(t *testing.T) {
	c := activeCoupon(CouponFixed, 100)
	d, err := c.Discount(250, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(250), d)
}

func TestCouponDiscountWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c := activeCoupon(CouponPercentage, 20)
	c.ValidFrom = now.Add(time.Hour)
	_, err := c.Discount(1000, now)
	assert.ErrorIs(t, err, ErrCouponNotYet)

	c = activeCoupon(CouponPercentage, 20)
	c.ValidUntil = now.Add(-time.Hour)
	_, err = c.Discount(1000, now)
	assert.ErrorIs(t, err, ErrCouponExpired)
}

func TestCouponDiscountExhausted(t *testing.T) {
	c := activeCoupon(CouponPercentage, 20)
	c.MaxUses = 5
	c.UsedCount = 5
	_, err := c.Discount(1000, time.Now())
	assert.ErrorIs(t, err, ErrCouponExhausted)
}

func TestCouponDiscountInactive(t *testing.T) {
	c := activeCoupon(CouponPercentage, 20)
	c.Status = CouponDisabled
	_, err := c.Discount(1000, time.Now())
	assert.ErrorIs(t, err, ErrCouponInactive)
}

func TestNormalizeCouponCode(t *testing.T) {
	assert.Equal(t, "SAVE10", NormalizeCouponCode("  save10 "))
}
