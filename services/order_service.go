package services

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"bazario/models"
	"bazario/repository"
)

// OrderService owns the order lifecycle: creation, the status transition
// table and its stock side effects, and the outbox events each mutation
// produces.
type OrderService struct {
	orders        repository.OrderRepository
	products      repository.ProductRepository
	users         repository.UserRepository
	notifications repository.NotificationRepository
	outbox        repository.OutboxRepository
	tx            repository.TxManager
	log           *logrus.Entry
}

func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	users repository.UserRepository,
	notifications repository.NotificationRepository,
	outbox repository.OutboxRepository,
	tx repository.TxManager,
) *OrderService {
	return &OrderService{
		orders:        orders,
		products:      products,
		users:         users,
		notifications: notifications,
		outbox:        outbox,
		tx:            tx,
		log:           logrus.WithField("component", "orders"),
	}
}

// PlaceOrderItem is one requested line item. The unit price is always taken
// from the product record, never from the caller.
type PlaceOrderItem struct {
	ProductID int64
	Quantity  int64
}

// Place creates a Pending order for the customer. The declared total must
// equal the server-computed sum of line items. One vendor notification per
// distinct vendor and the confirmation email are recorded in the same
// transaction.
func (s *OrderService) Place(ctx context.Context, customer *models.User, items []PlaceOrderItem, declaredTotal decimal.Decimal, addr models.DeliveryAddress) (*models.Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
	}

	var order *models.Order
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		orderItems := make([]models.OrderItem, 0, len(items))
		vendors := make(map[int64]bool)
		total := decimal.Zero
		for _, it := range items {
			p, err := s.products.GetByID(ctx, it.ProductID)
			if err != nil {
				return err
			}
			orderItems = append(orderItems, models.OrderItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    it.Quantity,
				UnitPrice:   p.Price,
			})
			vendors[p.VendorID] = true
			total = total.Add(p.Price.Mul(decimal.NewFromInt(it.Quantity)))
		}

		if !total.Equal(declaredTotal) {
			return ErrTotalMismatch
		}

		o := models.Order{
			CustomerID:      customer.ID,
			Items:           orderItems,
			TotalAmount:     total,
			DeliveryAddress: addr,
			Status:          models.OrderPending,
		}
		if err := s.orders.Create(ctx, &o); err != nil {
			return err
		}

		for vendorID := range vendors {
			n := models.Notification{
				VendorID: vendorID,
				OrderID:  o.ID,
				Message:  fmt.Sprintf("New order #%d includes your products", o.ID),
			}
			if err := s.notifications.Create(ctx, &n); err != nil {
				return err
			}
		}

		if err := s.outbox.Insert(ctx, models.EventOrderConfirmation, models.EmailEvent{
			Kind:    models.EventOrderConfirmation,
			To:      customer.Email,
			Name:    customer.Name,
			OrderID: o.ID,
			Items:   o.Items,
			Total:   o.TotalAmount,
		}); err != nil {
			return err
		}

		order = &o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"order_id": order.ID, "customer_id": customer.ID}).Info("order placed")
	return order, nil
}

// UpdateStatus applies one transition from the lifecycle table. Entering
// Paid decrements stock all-or-nothing; entering Canceled restores it when
// a Paid transition previously decremented it.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, status models.OrderStatus) (*models.Order, error) {
	var updated *models.Order
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !o.Status.CanTransition(status) {
			return errors.Wrapf(ErrInvalidTransition, "%s -> %s", o.Status, status)
		}

		switch status {
		case models.OrderPaid:
			if err := s.decrementStock(ctx, o); err != nil {
				return err
			}
			o.StockAdjusted = true
		case models.OrderCanceled:
			if o.StockAdjusted {
				for _, it := range o.Items {
					if err := s.products.AdjustStock(ctx, it.ProductID, it.Quantity); err != nil {
						return err
					}
				}
				o.StockAdjusted = false
			}
		}

		o.Status = status
		if err := s.orders.SetStatus(ctx, o.ID, o.Status, o.StockAdjusted); err != nil {
			return err
		}
		if err := s.enqueueStatusEmail(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"order_id": updated.ID, "status": updated.Status}).Info("order status updated")
	return updated, nil
}

// MarkPaid is the single Paid entry point shared by the direct status
// update and both payment-confirmation paths. An order whose payment
// already decremented stock is a no-op even after it moved on to Shipped
// or Delivered, so a late confirmation replay is acknowledged instead of
// tripping the transition table; the check runs inside the transaction,
// so concurrent confirmations serialize.
func (s *OrderService) MarkPaid(ctx context.Context, orderID int64) (*models.Order, error) {
	var out *models.Order
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status == models.OrderPaid || o.StockAdjusted {
			out = o
			return nil
		}
		out, err = s.UpdateStatus(ctx, orderID, models.OrderPaid)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// decrementStock verifies every line item before touching any row, so a
// failure cannot leave a partial decrement behind.
func (s *OrderService) decrementStock(ctx context.Context, o *models.Order) error {
	for _, it := range o.Items {
		p, err := s.products.GetByID(ctx, it.ProductID)
		if err != nil {
			return err
		}
		if p.Stock < it.Quantity {
			return &InsufficientStockError{ProductID: p.ID, ProductName: p.Name}
		}
	}
	for _, it := range o.Items {
		if err := s.products.AdjustStock(ctx, it.ProductID, -it.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (s *OrderService) enqueueStatusEmail(ctx context.Context, o *models.Order) error {
	customer, err := s.users.GetByID(ctx, o.CustomerID)
	if err != nil {
		// the order outlives a deleted account; nothing to notify
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	return s.outbox.Insert(ctx, models.EventOrderStatus, models.EmailEvent{
		Kind:    models.EventOrderStatus,
		To:      customer.Email,
		Name:    customer.Name,
		OrderID: o.ID,
		Status:  o.Status,
		Total:   o.TotalAmount,
	})
}

// Get returns one order, visible to its owner and to admins.
func (s *OrderService) Get(ctx context.Context, caller *models.User, orderID int64) (*models.Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if caller.Role != models.RoleAdmin && o.CustomerID != caller.ID {
		return nil, ErrForbidden
	}
	return o, nil
}

// ListForCustomer returns the caller's own orders.
func (s *OrderService) ListForCustomer(ctx context.Context, customerID int64) ([]models.Order, error) {
	return s.orders.ListByCustomer(ctx, customerID)
}

// ListAll returns every order with buyer identity joined, for admins.
func (s *OrderService) ListAll(ctx context.Context) ([]models.OrderWithCustomer, error) {
	return s.orders.ListAll(ctx)
}

// VendorSales returns whole orders containing at least one of the vendor's
// products.
func (s *OrderService) VendorSales(ctx context.Context, vendorID int64) ([]models.OrderWithCustomer, error) {
	products, err := s.products.List(ctx, repository.ProductFilter{VendorID: vendorID})
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	return s.orders.ListByProducts(ctx, ids)
}

// Delete removes an order entirely; admin only, enforced at the route.
func (s *OrderService) Delete(ctx context.Context, orderID int64) error {
	return s.orders.Delete(ctx, orderID)
}
