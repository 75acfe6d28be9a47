package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"bazario/models"
)

type MySQLPayments struct {
	db *sqlx.DB
}

func NewMySQLPayments(db *sqlx.DB) *MySQLPayments {
	return &MySQLPayments{db: db}
}

var _ PaymentRepository = (*MySQLPayments)(nil)

func (r *MySQLPayments) Create(ctx context.Context, p *models.Payment) error {
	res, err := ext(ctx, r.db).ExecContext(ctx, `
		INSERT INTO payments (order_id, customer_id, amount, method, session_id, status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.OrderID, p.CustomerID, p.Amount, p.Method, p.SessionID, p.Status,
	)
	if err != nil {
		return errors.Wrap(err, "insert payment")
	}
	p.ID, err = res.LastInsertId()
	return errors.Wrap(err, "payment id")
}

func (r *MySQLPayments) GetBySession(ctx context.Context, sessionID string) (*models.Payment, error) {
	var p models.Payment
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &p,
		`SELECT * FROM payments WHERE session_id = ? ORDER BY id DESC LIMIT 1`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get payment by session")
	}
	return &p, nil
}

func (r *MySQLPayments) SetStatus(ctx context.Context, id int64, status models.PaymentStatus) error {
	res, err := ext(ctx, r.db).ExecContext(ctx,
		`UPDATE payments SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return errors.Wrap(err, "set payment status")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := sqlx.GetContext(ctx, ext(ctx, r.db), &exists,
			`SELECT 1 FROM payments WHERE id = ?`, id); errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
	}
	return nil
}

func (r *MySQLPayments) ListByOrder(ctx context.Context, orderID int64) ([]models.Payment, error) {
	var payments []models.Payment
	err := sqlx.SelectContext(ctx, ext(ctx, r.db), &payments,
		`SELECT * FROM payments WHERE order_id = ? ORDER BY id`, orderID)
	return payments, errors.Wrap(err, "list payments by order")
}
