package repository

import (
	"context"
	"database/sql"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"bazario/models"
)

const mysqlErrDuplicateEntry = 1062

type MySQLUsers struct {
	db *sqlx.DB
}

func NewMySQLUsers(db *sqlx.DB) *MySQLUsers {
	return &MySQLUsers{db: db}
}

var _ UserRepository = (*MySQLUsers)(nil)

func (r *MySQLUsers) Create(ctx context.Context, u *models.User) error {
	res, err := ext(ctx, r.db).ExecContext(ctx, `
		INSERT INTO users (name, email, password, role, is_verified, verification_token)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.Name, u.Email, u.Password, u.Role, u.IsVerified, u.VerificationToken,
	)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlErrDuplicateEntry {
			return ErrDuplicateEmail
		}
		return errors.Wrap(err, "insert user")
	}
	u.ID, err = res.LastInsertId()
	return errors.Wrap(err, "user id")
}

func (r *MySQLUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &u,
		`SELECT * FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get user")
	}
	return &u, nil
}

func (r *MySQLUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &u,
		`SELECT * FROM users WHERE LOWER(email) = LOWER(?)`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get user by email")
	}
	return &u, nil
}

func (r *MySQLUsers) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	var u models.User
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &u,
		`SELECT * FROM users WHERE verification_token = ? AND verification_token <> ''`, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get user by token")
	}
	return &u, nil
}

func (r *MySQLUsers) Update(ctx context.Context, u *models.User) error {
	res, err := ext(ctx, r.db).ExecContext(ctx, `
		UPDATE users
		SET name = ?, email = ?, password = ?, role = ?, is_verified = ?, verification_token = ?
		WHERE id = ?`,
		u.Name, u.Email, u.Password, u.Role, u.IsVerified, u.VerificationToken, u.ID,
	)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlErrDuplicateEntry {
			return ErrDuplicateEmail
		}
		return errors.Wrap(err, "update user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// zero rows can also mean an identical update; confirm existence
		if _, err := r.GetByID(ctx, u.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *MySQLUsers) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := sqlx.SelectContext(ctx, ext(ctx, r.db), &users,
		`SELECT * FROM users ORDER BY id`)
	return users, errors.Wrap(err, "list users")
}

func (r *MySQLUsers) Delete(ctx context.Context, id int64) error {
	res, err := ext(ctx, r.db).ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type MySQLVendorProfiles struct {
	db *sqlx.DB
}

func NewMySQLVendorProfiles(db *sqlx.DB) *MySQLVendorProfiles {
	return &MySQLVendorProfiles{db: db}
}

var _ VendorProfileRepository = (*MySQLVendorProfiles)(nil)

func (r *MySQLVendorProfiles) Create(ctx context.Context, v *models.VendorProfile) error {
	res, err := ext(ctx, r.db).ExecContext(ctx, `
		INSERT INTO vendor_profiles (user_id, store_name, store_description)
		VALUES (?, ?, ?)`,
		v.UserID, v.StoreName, v.StoreDescription,
	)
	if err != nil {
		return errors.Wrap(err, "insert vendor profile")
	}
	v.ID, err = res.LastInsertId()
	return errors.Wrap(err, "vendor profile id")
}

func (r *MySQLVendorProfiles) List(ctx context.Context) ([]models.VendorProfile, error) {
	var profiles []models.VendorProfile
	err := sqlx.SelectContext(ctx, ext(ctx, r.db), &profiles,
		`SELECT * FROM vendor_profiles ORDER BY id`)
	return profiles, errors.Wrap(err, "list vendor profiles")
}
