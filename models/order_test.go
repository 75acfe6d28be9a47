package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderPending, OrderPaid, true},
		{OrderPending, OrderShipped, true},
		{OrderPending, OrderDelivered, true},
		{OrderPending, OrderCanceled, true},
		{OrderPending, OrderReturned, false},

		{OrderPaid, OrderShipped, true},
		{OrderPaid, OrderDelivered, true},
		{OrderPaid, OrderCanceled, true},
		{OrderPaid, OrderPending, false},
		{OrderPaid, OrderReturned, false},

		{OrderShipped, OrderDelivered, true},
		{OrderShipped, OrderReturned, true},
		{OrderShipped, OrderCanceled, false},
		{OrderShipped, OrderPaid, false},

		{OrderDelivered, OrderReturned, false},
		{OrderCanceled, OrderPending, false},
		{OrderReturned, OrderPending, false},

		// self transitions are never allowed
		{OrderPending, OrderPending, false},
		{OrderPaid, OrderPaid, false},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.allowed, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTerminalStatuses(t *testing.T) {
	assert.False(t, OrderPending.Terminal())
	assert.False(t, OrderPaid.Terminal())
	assert.False(t, OrderShipped.Terminal())
	assert.True(t, OrderDelivered.Terminal())
	assert.True(t, OrderCanceled.Terminal())
	assert.True(t, OrderReturned.Terminal())
}

func TestParseOrderStatus(t *testing.T) {
	s, err := ParseOrderStatus("Shipped")
	assert.NoError(t, err)
	assert.Equal(t, OrderShipped, s)

	_, err = ParseOrderStatus("shipped")
	assert.ErrorIs(t, err, ErrUnknownStatus)
	_, err = ParseOrderStatus("")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("vendor")
	assert.NoError(t, err)
	assert.Equal(t, RoleVendor, r)

	_, err = ParseRole("superuser")
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestComputedTotal(t *testing.T) {
	o := Order{Items: []OrderItem{
		{ProductID: 1, Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
		{ProductID: 2, Quantity: 1, UnitPrice: decimal.RequireFromString("4.50")},
	}}
	assert.True(t, o.ComputedTotal().Equal(decimal.RequireFromString("24.50")))

	empty := Order{}
	assert.True(t, empty.ComputedTotal().IsZero())
}
