package services

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrEmptyOrder         = errors.New("order must contain at least one item")
	ErrInvalidQuantity    = errors.New("item quantity must be positive")
	ErrTotalMismatch      = errors.New("declared total does not match order items")
	ErrInvalidTransition  = errors.New("order status transition not allowed")
	ErrForbidden          = errors.New("operation not allowed for this account")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotVerified        = errors.New("account email is not verified")
	ErrNotVendor          = errors.New("only vendors can be demoted")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrPaymentIncomplete  = errors.New("payment not completed")
	ErrOrderNotPayable    = errors.New("order is not awaiting payment")
)

// InsufficientStockError names the product that blocked a Paid transition.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %q", e.ProductName)
}
