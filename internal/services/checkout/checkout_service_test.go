package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/counselorcorner/storefront_be/internal/models"
	"github.com/counselorcorner/storefront_be/internal/services/payment"
	"github.com/counselorcorner/storefront_be/internal/store"
)

type fakeCatalog struct {
	products map[string]*models.Product
	coupons  map[string]*models.Coupon
	orders   map[string]*models.Order

	salesCounted map[string]int64
	couponUses   map[string]int64
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		products:     map[string]*models.Product{},
		coupons:      map[string]*models.Coupon{},
		orders:       map[string]*models.Order{},
		salesCounted: map[string]int64{},
		couponUses:   map[string]int64{},
	}
}

func (f *fakeCatalog) GetProduct(_ context.Context, id string) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}

func (f *fakeCatalog) GetCoupon(_ context.Context, code string) (*models.Coupon, error) {
	c, ok := f.coupons[code]
	if !ok {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (f *fakeCatalog) CreateOrder(_ context.Context, o *models.Order) error {
	if _, exists := f.orders[o.SessionID]; exists {
		return store.ErrConflict
	}
	f.orders[o.SessionID] = o
	return nil
}

func (f *fakeCatalog) GetOrder(_ context.Context, sessionID string) (*models.Order, error) {
	o, ok := f.orders[sessionID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return o, nil
}

func (f *fakeCatalog) AddCouponUse(_ context.Context, code string) error {
	f.couponUses[code]++
	return nil
}

func (f *fakeCatalog) AddProductCounter(_ context.Context, id, counter string, delta int64) error {
	if counter == "sales" {
		f.salesCounted[id] += delta
	}
	return nil
}

type fakePayments struct {
	created  []payment.SessionRequest
	sessions map[string]*payment.Session
}

func newFakePayments() *fakePayments {
	return &fakePayments{sessions: map[string]*payment.Session{}}
}

func (f *fakePayments) CreateSession(_ context.Context, req payment.SessionRequest) (*payment.Session, error) {
	f.created = append(f.created, req)
	var total int64
	for _, li := range req.LineItems {
		total += li.UnitCents * int64(li.Quantity)
	}
	sess := &payment.Session{
		ID:            "sess_test",
		URL:           "https://pay.example/sess_test",
		Status:        "open",
		AmountCents:   total - req.DiscountCents,
		DiscountCents: req.DiscountCents,
		CouponCode:    req.CouponCode,
		CustomerID:    req.CustomerID,
		CustomerEmail: req.CustomerEmail,
		LineItems:     req.LineItems,
	}
	f.sessions[sess.ID] = sess
	return sess, nil
}

func (f *fakePayments) GetSession(_ context.Context, id string) (*payment.Session, error) {
	return f.sessions[id], nil
}

func activeProduct(id string, price float64) *models.Product {
	return &models.Product{
		ID:       id,
		Slug:     id,
		Name:     "Product " + id,
		Price:    price,
		Category: "sel",
		Status:   models.ProductActive,
	}
}

func testService(cat *fakeCatalog, pay *fakePayments) *Service {
	return NewService(cat, pay, "https://shop.example/success", "https://shop.example/cart")
}

func TestCreateSessionPricesFromCatalog(t *testing.T) {
	cat := newFakeCatalog()
	cat.products["p1"] = activeProduct("p1", 29.99)
	cat.products["p2"] = activeProduct("p2", 19.99)
	pay := newFakePayments()
	svc := testService(cat, pay)

	sess, err := svc.CreateSession(context.Background(), []CartItem{
		{ProductID: "p1", Quantity: 1},
		{ProductID: "p2", Quantity: 1},
	}, "", Customer{})
	require.NoError(t, err)

	assert.Equal(t, int64(4998), sess.AmountCents)
	require.Len(t, pay.created, 1)
	assert.Equal(t, int64(2999), pay.created[0].LineItems[0].UnitCents)
	assert.Equal(t, int64(1999), pay.created[0].LineItems[1].UnitCents)
}

func TestCreateSessionEmptyCart(t *testing.T) {
	svc := testService(newFakeCatalog(), newFakePayments())
	_, err := svc.CreateSession(context.Background(), nil, "", Customer{})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCreateSessionRejectsMissingAndInactive(t *testing.T) {
	cat := newFakeCatalog()
	draft := activeProduct("draft", 5)
	draft.Status = models.ProductDraft
	cat.products["draft"] = draft
	svc := testService(cat, newFakePayments())
	ctx := context.Background()

	_, err := svc.CreateSession(ctx, []CartItem{{ProductID: "ghost", Quantity: 1}}, "", Customer{})
	assert.ErrorIs(t, err, ErrItemUnavailable)

	_, err = svc.CreateSession(ctx, []CartItem{{ProductID: "draft", Quantity: 1}}, "", Customer{})
	assert.ErrorIs(t, err, ErrItemUnavailable)
}

func TestCreateSessionAppliesCoupon(t *testing.T) {
	cat := newFakeCatalog()
	cat.products["p1"] = activeProduct("p1", 50)
	cat.coupons["SAVE10"] = &models.Coupon{
		Code:   "SAVE10",
		Type:   models.CouponPercentage,
		Value:  10,
		Status: models.CouponActive,
	}
	pay := newFakePayments()
	svc := testService(cat, pay)

	sess, err := svc.CreateSession(context.Background(), []CartItem{{ProductID: "p1", Quantity: 1}}, "save10", Customer{})
	require.NoError(t, err)
	assert.Equal(t, int64(500), sess.DiscountCents)
	assert.Equal(t, int64(4500), sess.AmountCents)
	assert.Equal(t, "SAVE10", pay.created[0].CouponCode)
}

func TestCreateSessionBadCoupon(t *testing.T) {
	cat := newFakeCatalog()
	cat.products["p1"] = activeProduct("p1", 50)
	expired := &models.Coupon{
		Code:       "OLD",
		Type:       models.CouponFixed,
		Value:      5,
		Status:     models.CouponActive,
		ValidUntil: time.Now().Add(-time.Hour),
	}
	cat.coupons["OLD"] = expired
	svc := testService(cat, newFakePayments())
	ctx := context.Background()

	_, err := svc.CreateSession(ctx, []CartItem{{ProductID: "p1", Quantity: 1}}, "NOPE", Customer{})
	assert.ErrorIs(t, err, ErrInvalidCoupon)

	_, err = svc.CreateSession(ctx, []CartItem{{ProductID: "p1", Quantity: 1}}, "OLD", Customer{})
	assert.ErrorIs(t, err, ErrInvalidCoupon)
}

func TestConfirmPaymentWritesOrderOnce(t *testing.T) {
	cat := newFakeCatalog()
	cat.products["p1"] = activeProduct("p1", 12.50)
	pay := newFakePayments()
	svc := testService(cat, pay)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, []CartItem{{ProductID: "p1", Quantity: 2}}, "", Customer{ID: "user-1", Email: "a@b.test"})
	require.NoError(t, err)
	pay.sessions[sess.ID].Status = "paid"

	first, err := svc.ConfirmPayment(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, first.SessionID)
	assert.Equal(t, int64(2500), first.TotalCents)
	assert.Equal(t, "user-1", first.CustomerID)
	assert.Equal(t, int64(2), cat.salesCounted["p1"])

	// a retried confirmation returns the existing order and counts nothing twice
	second, err := svc.ConfirmPayment(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, cat.orders, 1)
	assert.Equal(t, int64(2), cat.salesCounted["p1"])
}

func TestConfirmPaymentRejectsUnpaid(t *testing.T) {
	cat := newFakeCatalog()
	cat.products["p1"] = activeProduct("p1", 10)
	pay := newFakePayments()
	svc := testService(cat, pay)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, []CartItem{{ProductID: "p1", Quantity: 1}}, "", Customer{})
	require.NoError(t, err)

	_, err = svc.ConfirmPayment(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrPaymentIncomplete)
	assert.Empty(t, cat.orders)
}

func TestConfirmPaymentCountsCouponUse(t *testing.T) {
	cat := newFakeCatalog()
	cat.products["p1"] = activeProduct("p1", 40)
	cat.coupons["SAVE5"] = &models.Coupon{
		Code:   "SAVE5",
		Type:   models.CouponFixed,
		Value:  5,
		Status: models.CouponActive,
	}
	pay := newFakePayments()
	svc := testService(cat, pay)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, []CartItem{{ProductID: "p1", Quantity: 1}}, "SAVE5", Customer{})
	require.NoError(t, err)
	pay.sessions[sess.ID].Status = "complete"

	order, err := svc.ConfirmPayment(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "SAVE5", order.CouponCode)
	assert.Equal(t, int64(1), cat.couponUses["SAVE5"])
}
