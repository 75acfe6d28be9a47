package mailer

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"bazario/models"
)

// Message is a built transactional email.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

// Build renders the message for an email event.
func Build(ev models.EmailEvent, verifyBaseURL string) (Message, error) {
	switch ev.Kind {
	case models.EventOrderConfirmation:
		return buildConfirmation(ev), nil
	case models.EventOrderStatus:
		return buildStatus(ev), nil
	case models.EventVerification:
		return buildVerification(ev, verifyBaseURL), nil
	}
	return Message{}, errors.Errorf("unknown email event kind %q", ev.Kind)
}

func buildConfirmation(ev models.EmailEvent) Message {
	var text strings.Builder
	var rows strings.Builder
	fmt.Fprintf(&text, "Hi %s,\n\nThanks for your order #%d. Your items:\n\n", ev.Name, ev.OrderID)
	for _, it := range ev.Items {
		fmt.Fprintf(&text, "  - %s x%d @ %s = %s\n", it.ProductName, it.Quantity, it.UnitPrice.StringFixed(2), it.Subtotal().StringFixed(2))
		fmt.Fprintf(&rows, "<tr><td>%s</td><td>%d</td><td>%s</td><td>%s</td></tr>",
			it.ProductName, it.Quantity, it.UnitPrice.StringFixed(2), it.Subtotal().StringFixed(2))
	}
	fmt.Fprintf(&text, "\nTotal: %s\n\nWe'll let you know when it ships.\n", ev.Total.StringFixed(2))

	html := fmt.Sprintf(
		`<p>Hi %s,</p><p>Thanks for your order <b>#%d</b>.</p>`+
			`<table border="1" cellpadding="4"><tr><th>Item</th><th>Qty</th><th>Price</th><th>Subtotal</th></tr>%s</table>`+
			`<p>Total: <b>%s</b></p><p>We'll let you know when it ships.</p>`,
		ev.Name, ev.OrderID, rows.String(), ev.Total.StringFixed(2))

	return Message{
		Subject: fmt.Sprintf("Order #%d confirmed", ev.OrderID),
		Text:    text.String(),
		HTML:    html,
	}
}

func buildStatus(ev models.EmailEvent) Message {
	var note string
	switch ev.Status {
	case models.OrderShipped:
		note = fmt.Sprintf("Your order is on its way. Track it at https://track.bazario.local/orders/%d", ev.OrderID)
	case models.OrderDelivered:
		note = "Your order has been delivered. Enjoy!"
	case models.OrderCanceled:
		note = "Your order has been canceled. We're sorry it didn't work out; any payment will be refunded."
	case models.OrderReturned:
		note = "We've received your return and will process the refund shortly."
	default:
		note = fmt.Sprintf("Your order is now %s.", ev.Status)
	}
	text := fmt.Sprintf("Hi %s,\n\nOrder #%d update: %s\n\n%s\n", ev.Name, ev.OrderID, ev.Status, note)
	html := fmt.Sprintf("<p>Hi %s,</p><p>Order <b>#%d</b> is now <b>%s</b>.</p><p>%s</p>", ev.Name, ev.OrderID, ev.Status, note)
	return Message{
		Subject: fmt.Sprintf("Order #%d is %s", ev.OrderID, ev.Status),
		Text:    text,
		HTML:    html,
	}
}

func buildVerification(ev models.EmailEvent, verifyBaseURL string) Message {
	link := fmt.Sprintf("%s?token=%s", verifyBaseURL, ev.Token)
	return Message{
		Subject: "Verify your Bazario account",
		Text:    fmt.Sprintf("Hi %s,\n\nVerify your account by opening:\n%s\n", ev.Name, link),
		HTML:    fmt.Sprintf(`<p>Hi %s,</p><p><a href="%s">Verify your account</a></p>`, ev.Name, link),
	}
}
