package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"bazario/models"
)

type MySQLReviews struct {
	db *sqlx.DB
}

func NewMySQLReviews(db *sqlx.DB) *MySQLReviews {
	return &MySQLReviews{db: db}
}

var _ ReviewRepository = (*MySQLReviews)(nil)

func (r *MySQLReviews) Create(ctx context.Context, review *models.Review) error {
	res, err := ext(ctx, r.db).ExecContext(ctx, `
		INSERT INTO reviews (product_id, customer_id, rating, comment)
		VALUES (?, ?, ?, ?)`,
		review.ProductID, review.CustomerID, review.Rating, review.Comment,
	)
	if err != nil {
		return errors.Wrap(err, "insert review")
	}
	review.ID, err = res.LastInsertId()
	return errors.Wrap(err, "review id")
}

func (r *MySQLReviews) ListByProduct(ctx context.Context, productID int64) ([]models.Review, error) {
	var reviews []models.Review
	err := sqlx.SelectContext(ctx, ext(ctx, r.db), &reviews,
		`SELECT * FROM reviews WHERE product_id = ? ORDER BY created_at DESC`, productID)
	return reviews, errors.Wrap(err, "list reviews")
}

type MySQLNotifications struct {
	db *sqlx.DB
}

func NewMySQLNotifications(db *sqlx.DB) *MySQLNotifications {
	return &MySQLNotifications{db: db}
}

var _ NotificationRepository = (*MySQLNotifications)(nil)

func (r *MySQLNotifications) Create(ctx context.Context, n *models.Notification) error {
	res, err := ext(ctx, r.db).ExecContext(ctx, `
		INSERT INTO notifications (vendor_id, order_id, message, is_read)
		VALUES (?, ?, ?, ?)`,
		n.VendorID, n.OrderID, n.Message, n.IsRead,
	)
	if err != nil {
		return errors.Wrap(err, "insert notification")
	}
	n.ID, err = res.LastInsertId()
	return errors.Wrap(err, "notification id")
}

func (r *MySQLNotifications) ListByVendor(ctx context.Context, vendorID int64) ([]models.Notification, error) {
	var notifications []models.Notification
	err := sqlx.SelectContext(ctx, ext(ctx, r.db), &notifications,
		`SELECT * FROM notifications WHERE vendor_id = ? ORDER BY created_at DESC`, vendorID)
	return notifications, errors.Wrap(err, "list notifications")
}

func (r *MySQLNotifications) MarkRead(ctx context.Context, id, vendorID int64) error {
	res, err := ext(ctx, r.db).ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = ? AND vendor_id = ?`, id, vendorID)
	if err != nil {
		return errors.Wrap(err, "mark notification read")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type MySQLOutbox struct {
	db *sqlx.DB
}

func NewMySQLOutbox(db *sqlx.DB) *MySQLOutbox {
	return &MySQLOutbox{db: db}
}

var _ OutboxRepository = (*MySQLOutbox)(nil)

func (r *MySQLOutbox) Insert(ctx context.Context, kind models.EventKind, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshal outbox payload")
	}
	_, err = ext(ctx, r.db).ExecContext(ctx, `
		INSERT INTO outbox (event_id, kind, payload) VALUES (?, ?, ?)`,
		uuid.NewString(), string(kind), data,
	)
	return errors.Wrap(err, "insert outbox record")
}

func (r *MySQLOutbox) FetchPending(ctx context.Context, limit int) ([]OutboxRecord, error) {
	var records []OutboxRecord
	err := sqlx.SelectContext(ctx, ext(ctx, r.db), &records, `
		SELECT id, event_id, kind, payload, created_at, sent_at
		FROM outbox WHERE sent_at IS NULL ORDER BY id LIMIT ?`, limit)
	return records, errors.Wrap(err, "fetch pending outbox records")
}

func (r *MySQLOutbox) MarkSent(ctx context.Context, id int64) error {
	_, err := ext(ctx, r.db).ExecContext(ctx,
		`UPDATE outbox SET sent_at = NOW() WHERE id = ?`, id)
	return errors.Wrap(err, "mark outbox record sent")
}
