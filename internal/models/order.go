package models

import (
	"errors"
	"time"

	"github.com/counselorcorner/storefront_be/internal/store"
)

type OrderItem struct {
	ProductID string `dynamodbav:"product_id" json:"product_id"`
	Name      string `dynamodbav:"name" json:"name"`
	UnitCents int64  `dynamodbav:"unit_cents" json:"unit_cents"`
	Quantity  int    `dynamodbav:"quantity" json:"quantity"`
}

// Order identity is the payment session id, which is what makes payment
// confirmation idempotent: a second confirm for the same session is a
// conditional-put conflict, not a second order.
type Order struct {
	SessionID     string      `dynamodbav:"session_id" json:"session_id"`
	Items         []OrderItem `dynamodbav:"items" json:"items"`
	TotalCents    int64       `dynamodbav:"total_cents" json:"total_cents"`
	DiscountCents int64       `dynamodbav:"discount_cents" json:"discount_cents"`
	CouponCode    string      `dynamodbav:"coupon_code,omitempty" json:"coupon_code,omitempty"`
	CustomerID    string      `dynamodbav:"customer_id,omitempty" json:"customer_id,omitempty"`
	CustomerEmail string      `dynamodbav:"customer_email" json:"customer_email"`
	Status        string      `dynamodbav:"status" json:"status"`
	CreatedAt     time.Time   `dynamodbav:"created_at" json:"created_at"`
	EntityType    string      `dynamodbav:"entity_type" json:"-"`
}

func OrderPK(sessionID string) string { return "ORDER#" + sessionID }

func OrderUserPartition(userID string) string { return "ORDER#USER#" + userID }

// OrdersPartition groups every order under one GSI2 partition so admin
// stats can list them chronologically without a table scan.
const OrdersPartition = "ORDER#ALL"

func (o *Order) Keys() (store.Keys, error) {
	if o.SessionID == "" {
		return store.Keys{}, errors.New("order: session id is required for key construction")
	}
	ts := o.CreatedAt.UTC().Format(time.RFC3339)
	k := store.Keys{
		PK:     OrderPK(o.SessionID),
		SK:     "METADATA",
		GSI2PK: OrdersPartition,
		GSI2SK: ts,
	}
	if o.CustomerID != "" {
		k.GSI1PK = OrderUserPartition(o.CustomerID)
		k.GSI1SK = ts
	}
	return k, nil
}
