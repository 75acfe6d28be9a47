package models

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "Pending"
	OrderPaid      OrderStatus = "Paid"
	OrderShipped   OrderStatus = "Shipped"
	OrderDelivered OrderStatus = "Delivered"
	OrderCanceled  OrderStatus = "Canceled"
	OrderReturned  OrderStatus = "Returned"
)

var ErrUnknownStatus = errors.New("unknown order status")

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case OrderPending, OrderPaid, OrderShipped, OrderDelivered, OrderCanceled, OrderReturned:
		return OrderStatus(s), nil
	}
	return "", errors.Wrapf(ErrUnknownStatus, "%q", s)
}

// transitions is the lifecycle graph. Delivered, Canceled and Returned are
// terminal; everything not listed is rejected.
var transitions = map[OrderStatus][]OrderStatus{
	OrderPending: {OrderPaid, OrderShipped, OrderDelivered, OrderCanceled},
	OrderPaid:    {OrderShipped, OrderDelivered, OrderCanceled},
	OrderShipped: {OrderDelivered, OrderReturned},
}

func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

// DeliveryAddress is required in full at order creation.
type DeliveryAddress struct {
	FullName    string `db:"full_name" json:"full_name" binding:"required"`
	HouseName   string `db:"house_name" json:"house_name" binding:"required"`
	Street      string `db:"street" json:"street" binding:"required"`
	City        string `db:"city" json:"city" binding:"required"`
	District    string `db:"district" json:"district" binding:"required"`
	Pin         string `db:"pin" json:"pin" binding:"required"`
	Mobile      string `db:"mobile" json:"mobile" binding:"required"`
	AddressType string `db:"address_type" json:"address_type" binding:"required,oneof=home work"`
}

type OrderItem struct {
	ProductID   int64  `db:"product_id" json:"product_id"`
	ProductName string `db:"product_name" json:"product_name"`
	Quantity    int64  `db:"quantity" json:"quantity"`
	// UnitPrice is the price at time of purchase, immutable after creation.
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
}

func (it OrderItem) Subtotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity))
}

type Order struct {
	ID              int64           `db:"id" json:"id"`
	CustomerID      int64           `db:"customer_id" json:"customer_id"`
	Items           []OrderItem     `db:"-" json:"items"`
	TotalAmount     decimal.Decimal `db:"total_amount" json:"total_amount"`
	DeliveryAddress DeliveryAddress `db:"-" json:"delivery_address"`
	Status          OrderStatus     `db:"status" json:"status"`
	// StockAdjusted records that the Paid transition decremented stock, so
	// the decrement happens exactly once and Cancel restores exactly once.
	StockAdjusted bool      `db:"stock_adjusted" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// ComputedTotal is the sum of item subtotals; the declared total must match.
func (o *Order) ComputedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// OrderWithCustomer joins buyer identity for admin and vendor listings.
type OrderWithCustomer struct {
	Order
	CustomerName  string `db:"customer_name" json:"customer_name"`
	CustomerEmail string `db:"customer_email" json:"customer_email"`
}
