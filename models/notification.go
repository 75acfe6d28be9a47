package models

import "time"

// Notification is a vendor-facing message created when an order containing
// one of the vendor's products is placed.
type Notification struct {
	ID        int64     `db:"id" json:"id"`
	VendorID  int64     `db:"vendor_id" json:"vendor_id"`
	OrderID   int64     `db:"order_id" json:"order_id"`
	Message   string    `db:"message" json:"message"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
