package services

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"bazario/models"
	"bazario/repository"
)

// CheckoutSession is the processor-hosted payment flow handed back to the
// client.
type CheckoutSession struct {
	ID  string `json:"session_id"`
	URL string `json:"url"`
}

// CheckoutProvider isolates the external payment processor.
type CheckoutProvider interface {
	// CreateSession opens a hosted checkout session for the order. The
	// order id travels in session metadata.
	CreateSession(ctx context.Context, o *models.Order) (*CheckoutSession, error)
	// SessionOrder retrieves a session and reports the referenced order and
	// whether the processor marked it paid.
	SessionOrder(ctx context.Context, sessionID string) (orderID int64, paid bool, err error)
}

// PaymentService drives both settlement paths. Every path that settles an
// order funnels through OrderService.MarkPaid, so stock adjustment can never
// be skipped.
type PaymentService struct {
	payments repository.PaymentRepository
	orders   *OrderService
	provider CheckoutProvider
	log      *logrus.Entry
}

func NewPaymentService(payments repository.PaymentRepository, orders *OrderService, provider CheckoutProvider) *PaymentService {
	return &PaymentService{
		payments: payments,
		orders:   orders,
		provider: provider,
		log:      logrus.WithField("component", "payments"),
	}
}

// Checkout opens a hosted session for a Pending order owned by the caller
// and records a Pending payment attempt. Local order state is not mutated.
func (s *PaymentService) Checkout(ctx context.Context, caller *models.User, orderID int64) (*CheckoutSession, error) {
	o, err := s.orders.Get(ctx, caller, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != models.OrderPending {
		return nil, ErrOrderNotPayable
	}

	session, err := s.provider.CreateSession(ctx, o)
	if err != nil {
		return nil, errors.Wrap(err, "create checkout session")
	}

	p := models.Payment{
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		Amount:     o.TotalAmount,
		Method:     "card",
		SessionID:  session.ID,
		Status:     models.PaymentPending,
	}
	if err := s.payments.Create(ctx, &p); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"order_id": o.ID, "session_id": session.ID}).Info("checkout session created")
	return session, nil
}

// Confirm settles the order behind a checkout session. The processor is the
// source of truth for the paid flag; the order id comes from session
// metadata.
func (s *PaymentService) Confirm(ctx context.Context, sessionID string) (*models.Order, error) {
	orderID, paid, err := s.provider.SessionOrder(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "retrieve checkout session")
	}
	if !paid {
		return nil, ErrPaymentIncomplete
	}

	o, err := s.orders.MarkPaid(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if p, err := s.payments.GetBySession(ctx, sessionID); err == nil {
		if err := s.payments.SetStatus(ctx, p.ID, models.PaymentSuccess); err != nil {
			return nil, err
		}
	} else if errors.Is(err, repository.ErrNotFound) {
		// session opened before this service restarted or by another
		// replica; record the settlement anyway
		if err := s.payments.Create(ctx, &models.Payment{
			OrderID:    o.ID,
			CustomerID: o.CustomerID,
			Amount:     o.TotalAmount,
			Method:     "card",
			SessionID:  sessionID,
			Status:     models.PaymentSuccess,
		}); err != nil {
			return nil, err
		}
	} else {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"order_id": o.ID, "session_id": sessionID}).Info("payment confirmed")
	return o, nil
}

// Pay records a direct (non-gateway) settlement, e.g. cash on delivery. The
// amount is always the server-side order total.
func (s *PaymentService) Pay(ctx context.Context, caller *models.User, orderID int64, method string) (*models.Payment, error) {
	o, err := s.orders.Get(ctx, caller, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != models.OrderPending {
		return nil, ErrOrderNotPayable
	}

	o, err = s.orders.MarkPaid(ctx, o.ID)
	if err != nil {
		return nil, err
	}

	p := models.Payment{
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		Amount:     o.TotalAmount,
		Method:     method,
		Status:     models.PaymentSuccess,
	}
	if err := s.payments.Create(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Retry re-opens a checkout session for an order that is still unpaid.
func (s *PaymentService) Retry(ctx context.Context, caller *models.User, orderID int64) (*CheckoutSession, error) {
	return s.Checkout(ctx, caller, orderID)
}
