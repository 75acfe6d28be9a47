package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"bazario/models"
)

type MySQLOrders struct {
	db *sqlx.DB
}

func NewMySQLOrders(db *sqlx.DB) *MySQLOrders {
	return &MySQLOrders{db: db}
}

var _ OrderRepository = (*MySQLOrders)(nil)

// orderRow flattens the delivery address columns for sqlx scanning.
type orderRow struct {
	ID            int64           `db:"id"`
	CustomerID    int64           `db:"customer_id"`
	TotalAmount   decimal.Decimal `db:"total_amount"`
	Status        string          `db:"status"`
	StockAdjusted bool            `db:"stock_adjusted"`
	FullName      string          `db:"full_name"`
	HouseName     string          `db:"house_name"`
	Street        string          `db:"street"`
	City          string          `db:"city"`
	District      string          `db:"district"`
	Pin           string          `db:"pin"`
	Mobile        string          `db:"mobile"`
	AddressType   string          `db:"address_type"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`

	CustomerName  *string `db:"customer_name"`
	CustomerEmail *string `db:"customer_email"`
}

func (row orderRow) toOrder() models.Order {
	return models.Order{
		ID:          row.ID,
		CustomerID:  row.CustomerID,
		TotalAmount: row.TotalAmount,
		DeliveryAddress: models.DeliveryAddress{
			FullName:    row.FullName,
			HouseName:   row.HouseName,
			Street:      row.Street,
			City:        row.City,
			District:    row.District,
			Pin:         row.Pin,
			Mobile:      row.Mobile,
			AddressType: row.AddressType,
		},
		Status:        models.OrderStatus(row.Status),
		StockAdjusted: row.StockAdjusted,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

const orderColumns = `o.id, o.customer_id, o.total_amount, o.status, o.stock_adjusted,
	o.full_name, o.house_name, o.street, o.city, o.district, o.pin, o.mobile, o.address_type,
	o.created_at, o.updated_at`

func (r *MySQLOrders) Create(ctx context.Context, o *models.Order) error {
	e := ext(ctx, r.db)
	res, err := e.ExecContext(ctx, `
		INSERT INTO orders (customer_id, total_amount, status, stock_adjusted,
			full_name, house_name, street, city, district, pin, mobile, address_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.CustomerID, o.TotalAmount, o.Status, o.StockAdjusted,
		o.DeliveryAddress.FullName, o.DeliveryAddress.HouseName, o.DeliveryAddress.Street,
		o.DeliveryAddress.City, o.DeliveryAddress.District, o.DeliveryAddress.Pin,
		o.DeliveryAddress.Mobile, o.DeliveryAddress.AddressType,
	)
	if err != nil {
		return errors.Wrap(err, "insert order")
	}
	if o.ID, err = res.LastInsertId(); err != nil {
		return errors.Wrap(err, "order id")
	}
	for _, it := range o.Items {
		if _, err := e.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price)
			VALUES (?, ?, ?, ?, ?)`,
			o.ID, it.ProductID, it.ProductName, it.Quantity, it.UnitPrice,
		); err != nil {
			return errors.Wrap(err, "insert order item")
		}
	}
	return nil
}

func (r *MySQLOrders) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	var row orderRow
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &row,
		`SELECT `+orderColumns+` FROM orders o WHERE o.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get order")
	}
	o := row.toOrder()
	if o.Items, err = r.loadItems(ctx, o.ID); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *MySQLOrders) ListByCustomer(ctx context.Context, customerID int64) ([]models.Order, error) {
	var rows []orderRow
	err := sqlx.SelectContext(ctx, ext(ctx, r.db), &rows,
		`SELECT `+orderColumns+` FROM orders o WHERE o.customer_id = ? ORDER BY o.created_at DESC`,
		customerID)
	if err != nil {
		return nil, errors.Wrap(err, "list orders by customer")
	}
	orders := make([]models.Order, 0, len(rows))
	for _, row := range rows {
		o := row.toOrder()
		if o.Items, err = r.loadItems(ctx, o.ID); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (r *MySQLOrders) ListAll(ctx context.Context) ([]models.OrderWithCustomer, error) {
	var rows []orderRow
	err := sqlx.SelectContext(ctx, ext(ctx, r.db), &rows, `
		SELECT `+orderColumns+`, u.name AS customer_name, u.email AS customer_email
		FROM orders o
		LEFT JOIN users u ON u.id = o.customer_id
		ORDER BY o.created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "list all orders")
	}
	return r.withCustomers(ctx, rows)
}

func (r *MySQLOrders) ListByProducts(ctx context.Context, productIDs []int64) ([]models.OrderWithCustomer, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`
		SELECT DISTINCT `+orderColumns+`, u.name AS customer_name, u.email AS customer_email
		FROM orders o
		LEFT JOIN users u ON u.id = o.customer_id
		JOIN order_items oi ON oi.order_id = o.id
		WHERE oi.product_id IN (?)
		ORDER BY o.created_at DESC`, productIDs)
	if err != nil {
		return nil, errors.Wrap(err, "build vendor orders query")
	}
	var rows []orderRow
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &rows, r.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "list orders by products")
	}
	return r.withCustomers(ctx, rows)
}

func (r *MySQLOrders) SetStatus(ctx context.Context, id int64, status models.OrderStatus, stockAdjusted bool) error {
	res, err := ext(ctx, r.db).ExecContext(ctx,
		`UPDATE orders SET status = ?, stock_adjusted = ? WHERE id = ?`,
		status, stockAdjusted, id)
	if err != nil {
		return errors.Wrap(err, "set order status")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *MySQLOrders) Delete(ctx context.Context, id int64) error {
	res, err := ext(ctx, r.db).ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete order")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MySQLOrders) loadItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := sqlx.SelectContext(ctx, ext(ctx, r.db), &items, `
		SELECT product_id, product_name, quantity, unit_price
		FROM order_items WHERE order_id = ? ORDER BY id`, orderID)
	return items, errors.Wrap(err, "load order items")
}

func (r *MySQLOrders) withCustomers(ctx context.Context, rows []orderRow) ([]models.OrderWithCustomer, error) {
	orders := make([]models.OrderWithCustomer, 0, len(rows))
	for _, row := range rows {
		o := row.toOrder()
		items, err := r.loadItems(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		o.Items = items
		owc := models.OrderWithCustomer{Order: o}
		if row.CustomerName != nil {
			owc.CustomerName = *row.CustomerName
		}
		if row.CustomerEmail != nil {
			owc.CustomerEmail = *row.CustomerEmail
		}
		orders = append(orders, owc)
	}
	return orders, nil
}
