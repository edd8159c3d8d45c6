package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

// ParseStatus accepts the full enumeration so rows written by future
// services stay readable. This service itself only ever writes PENDING.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

type Item struct {
	ID           int64
	OrderID      int64
	ProductID    int64
	Quantity     int
	PricePerUnit decimal.Decimal
	Subtotal     decimal.Decimal
}

// Order is the aggregate root. Items exist only through their order;
// AddItem is the single attachment point.
type Order struct {
	ID          int64
	OrderDate   time.Time
	Status      Status
	TotalAmount decimal.Decimal
	Items       []Item
}

func New(now time.Time) *Order {
	return &Order{
		OrderDate:   now,
		Status:      StatusPending,
		TotalAmount: decimal.Zero,
	}
}

// AddItem attaches a priced line item and folds its subtotal into the
// running total. Subtotal is quantity * pricePerUnit, nothing else.
func (o *Order) AddItem(productID int64, quantity int, pricePerUnit decimal.Decimal) error {
	if productID <= 0 {
		return &InvalidRequestError{Reason: "productId must be positive"}
	}
	if quantity <= 0 {
		return &InvalidRequestError{Reason: "quantity must be positive"}
	}
	if pricePerUnit.IsNegative() {
		return &InvalidRequestError{Reason: fmt.Sprintf("negative price for productId=%d", productID)}
	}
	// Monetary precision is fixed at 2 dp; the snapshot is quantized before
	// it enters the aggregate so subtotal stays exactly quantity * price.
	pricePerUnit = pricePerUnit.Round(2)
	subtotal := pricePerUnit.Mul(decimal.NewFromInt(int64(quantity)))
	o.Items = append(o.Items, Item{
		ProductID:    productID,
		Quantity:     quantity,
		PricePerUnit: pricePerUnit,
		Subtotal:     subtotal,
	})
	o.TotalAmount = o.TotalAmount.Add(subtotal)

	return nil
}
