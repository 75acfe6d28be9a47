package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"bazario/models"
)

type MySQLProducts struct {
	db *sqlx.DB
}

func NewMySQLProducts(db *sqlx.DB) *MySQLProducts {
	return &MySQLProducts{db: db}
}

var _ ProductRepository = (*MySQLProducts)(nil)

func (r *MySQLProducts) Create(ctx context.Context, p *models.Product) error {
	res, err := ext(ctx, r.db).ExecContext(ctx, `
		INSERT INTO products (vendor_id, name, description, price, stock, category)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.VendorID, p.Name, p.Description, p.Price, p.Stock, p.Category,
	)
	if err != nil {
		return errors.Wrap(err, "insert product")
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return errors.Wrap(err, "product id")
	}
	return r.replaceImages(ctx, p.ID, p.Images)
}

func (r *MySQLProducts) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &p,
		`SELECT * FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get product")
	}
	if err := r.loadImages(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *MySQLProducts) Update(ctx context.Context, p *models.Product) error {
	res, err := ext(ctx, r.db).ExecContext(ctx, `
		UPDATE products
		SET name = ?, description = ?, price = ?, stock = ?, category = ?
		WHERE id = ?`,
		p.Name, p.Description, p.Price, p.Stock, p.Category, p.ID,
	)
	if err != nil {
		return errors.Wrap(err, "update product")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, p.ID); err != nil {
			return err
		}
	}
	return r.replaceImages(ctx, p.ID, p.Images)
}

func (r *MySQLProducts) Delete(ctx context.Context, id int64) error {
	res, err := ext(ctx, r.db).ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete product")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MySQLProducts) List(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	query := `SELECT * FROM products WHERE 1=1`
	var args []interface{}
	if f.NameSubstring != "" {
		query += ` AND name LIKE ?`
		args = append(args, "%"+f.NameSubstring+"%")
	}
	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	if f.VendorID != 0 {
		query += ` AND vendor_id = ?`
		args = append(args, f.VendorID)
	}
	if f.MinPrice != nil {
		query += ` AND price >= ?`
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		query += ` AND price <= ?`
		args = append(args, *f.MaxPrice)
	}
	query += ` ORDER BY id`

	var products []models.Product
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &products, query, args...); err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	for i := range products {
		if err := r.loadImages(ctx, &products[i]); err != nil {
			return nil, err
		}
	}
	return products, nil
}

// AdjustStock relies on a conditional update so a decrement below zero
// affects no rows and the whole enclosing transaction can roll back.
func (r *MySQLProducts) AdjustStock(ctx context.Context, productID, delta int64) error {
	res, err := ext(ctx, r.db).ExecContext(ctx,
		`UPDATE products SET stock = stock + ? WHERE id = ? AND stock + ? >= 0`,
		delta, productID, delta,
	)
	if err != nil {
		return errors.Wrap(err, "adjust stock")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, productID); err != nil {
			return err
		}
		if delta < 0 {
			return ErrInsufficientStock
		}
	}
	return nil
}

func (r *MySQLProducts) loadImages(ctx context.Context, p *models.Product) error {
	err := sqlx.SelectContext(ctx, ext(ctx, r.db), &p.Images,
		`SELECT url FROM product_images WHERE product_id = ? ORDER BY id`, p.ID)
	return errors.Wrap(err, "load product images")
}

func (r *MySQLProducts) replaceImages(ctx context.Context, productID int64, urls []string) error {
	e := ext(ctx, r.db)
	if _, err := e.ExecContext(ctx, `DELETE FROM product_images WHERE product_id = ?`, productID); err != nil {
		return errors.Wrap(err, "clear product images")
	}
	for _, url := range urls {
		if _, err := e.ExecContext(ctx,
			`INSERT INTO product_images (product_id, url) VALUES (?, ?)`, productID, url); err != nil {
			return errors.Wrap(err, "insert product image")
		}
	}
	return nil
}
