package mailer

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazario/models"
)

func TestBuildConfirmation(t *testing.T) {
	msg, err := Build(models.EmailEvent{
		Kind:    models.EventOrderConfirmation,
		To:      "asha@example.com",
		Name:    "Asha",
		OrderID: 42,
		Items: []models.OrderItem{
			{ProductName: "Ceramic Mug", Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
		},
		Total: decimal.RequireFromString("20.00"),
	}, "http://localhost:8080/api/users/verify")
	require.NoError(t, err)

	assert.Equal(t, "Order #42 confirmed", msg.Subject)
	assert.Contains(t, msg.Text, "Ceramic Mug x2 @ 10.00 = 20.00")
	assert.Contains(t, msg.Text, "Total: 20.00")
	assert.Contains(t, msg.HTML, "<td>Ceramic Mug</td>")
}

func TestBuildStatus(t *testing.T) {
	msg, err := Build(models.EmailEvent{
		Kind:    models.EventOrderStatus,
		Name:    "Asha",
		OrderID: 42,
		Status:  models.OrderShipped,
	}, "")
	require.NoError(t, err)

	assert.Equal(t, "Order #42 is Shipped", msg.Subject)
	assert.Contains(t, msg.Text, "on its way")

	msg, err = Build(models.EmailEvent{
		Kind:    models.EventOrderStatus,
		Name:    "Asha",
		OrderID: 42,
		Status:  models.OrderCanceled,
	}, "")
	require.NoError(t, err)
	assert.Contains(t, msg.Text, "canceled")
}

func TestBuildVerification(t *testing.T) {
	msg, err := Build(models.EmailEvent{
		Kind:  models.EventVerification,
		Name:  "Asha",
		Token: "abc-123",
	}, "http://localhost:8080/api/users/verify")
	require.NoError(t, err)

	assert.Equal(t, "Verify your Bazario account", msg.Subject)
	assert.Contains(t, msg.Text, "http://localhost:8080/api/users/verify?token=abc-123")
}

func TestBuildRejectsUnknownKind(t *testing.T) {
	_, err := Build(models.EmailEvent{Kind: "newsletter"}, "")
	assert.Error(t, err)
}
