package models

import "github.com/shopspring/decimal"

type EventKind string

const (
	EventOrderConfirmation EventKind = "order_confirmation"
	EventOrderStatus       EventKind = "order_status"
	EventVerification      EventKind = "account_verification"
)

// EmailEvent is the outbox payload for a transactional email. It carries
// everything the consumer needs so dispatch never touches the database.
type EmailEvent struct {
	Kind    EventKind       `json:"kind"`
	To      string          `json:"to"`
	Name    string          `json:"name"`
	OrderID int64           `json:"order_id,omitempty"`
	Status  OrderStatus     `json:"status,omitempty"`
	Items   []OrderItem     `json:"items,omitempty"`
	Total   decimal.Decimal `json:"total,omitempty"`
	Token   string          `json:"token,omitempty"`
}
