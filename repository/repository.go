package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"bazario/models"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateEmail    = errors.New("email already in use")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// TxManager runs fn inside one storage transaction; every repository call
// made with the callback's context joins that transaction.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	// GetByEmail matches case-insensitively.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
	List(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, id int64) error
}

type VendorProfileRepository interface {
	Create(ctx context.Context, v *models.VendorProfile) error
	List(ctx context.Context) ([]models.VendorProfile, error)
}

type ProductFilter struct {
	NameSubstring string
	Category      string
	VendorID      int64
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
}

type ProductRepository interface {
	Create(ctx context.Context, p *models.Product) error
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f ProductFilter) ([]models.Product, error)
	// AdjustStock applies a relative stock change. A decrement that would
	// take stock below zero fails with ErrInsufficientStock and leaves the
	// row untouched.
	AdjustStock(ctx context.Context, productID, delta int64) error
}

type OrderRepository interface {
	Create(ctx context.Context, o *models.Order) error
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.OrderWithCustomer, error)
	// ListByProducts returns whole orders containing at least one of the
	// given product ids, buyer identity joined in.
	ListByProducts(ctx context.Context, productIDs []int64) ([]models.OrderWithCustomer, error)
	SetStatus(ctx context.Context, id int64, status models.OrderStatus, stockAdjusted bool) error
	Delete(ctx context.Context, id int64) error
}

type PaymentRepository interface {
	Create(ctx context.Context, p *models.Payment) error
	GetBySession(ctx context.Context, sessionID string) (*models.Payment, error)
	SetStatus(ctx context.Context, id int64, status models.PaymentStatus) error
	ListByOrder(ctx context.Context, orderID int64) ([]models.Payment, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, r *models.Review) error
	ListByProduct(ctx context.Context, productID int64) ([]models.Review, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByVendor(ctx context.Context, vendorID int64) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, vendorID int64) error
}

// OutboxRecord is one pending or delivered event row.
type OutboxRecord struct {
	ID        int64           `db:"id"`
	EventID   string          `db:"event_id"`
	Kind      string          `db:"kind"`
	Payload   json.RawMessage `db:"payload"`
	CreatedAt time.Time       `db:"created_at"`
	SentAt    *time.Time      `db:"sent_at"`
}

type OutboxRepository interface {
	// Insert enqueues an event; called inside the transaction that performs
	// the domain mutation the event describes.
	Insert(ctx context.Context, kind models.EventKind, payload any) error
	FetchPending(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkSent(ctx context.Context, id int64) error
}
