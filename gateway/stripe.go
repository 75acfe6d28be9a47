package gateway

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/checkout/session"

	"bazario/config"
	"bazario/models"
	"bazario/services"
)

// StripeProvider opens hosted checkout sessions with Stripe. Amounts are
// converted to minor currency units per line item; the order id rides in
// session metadata.
type StripeProvider struct {
	currency   string
	successURL string
	cancelURL  string
}

func NewStripeProvider(cfg *config.Config) *StripeProvider {
	stripe.Key = cfg.StripeSecretKey
	return &StripeProvider{
		currency:   cfg.Currency,
		successURL: cfg.PaymentSuccessURL,
		cancelURL:  cfg.PaymentCancelURL,
	}
}

var _ services.CheckoutProvider = (*StripeProvider)(nil)

// minorUnits converts a decimal major-unit amount to cents.
var minorUnits = decimal.NewFromInt(100)

func (p *StripeProvider) CreateSession(ctx context.Context, o *models.Order) (*services.CheckoutSession, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(o.Items))
	for _, it := range o.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(p.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(it.ProductName),
				},
				UnitAmount: stripe.Int64(it.UnitPrice.Mul(minorUnits).IntPart()),
			},
			Quantity: stripe.Int64(it.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		SuccessURL:         stripe.String(p.successURL),
		CancelURL:          stripe.String(p.cancelURL),
	}
	params.Context = ctx
	params.AddMetadata("order_id", strconv.FormatInt(o.ID, 10))

	s, err := session.New(params)
	if err != nil {
		return nil, errors.Wrap(err, "stripe session create")
	}
	return &services.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (p *StripeProvider) SessionOrder(ctx context.Context, sessionID string) (int64, bool, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := session.Get(sessionID, params)
	if err != nil {
		return 0, false, errors.Wrap(err, "stripe session retrieve")
	}
	orderID, err := strconv.ParseInt(s.Metadata["order_id"], 10, 64)
	if err != nil {
		return 0, false, errors.Wrap(err, "session metadata order_id")
	}
	return orderID, s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid, nil
}
