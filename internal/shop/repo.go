package shop

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const pgUniqueViolation = "23505"

func mapErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrExists, pgErr.ConstraintName)
	}
	return err
}

type UserRepo struct{ DB *pgxpool.Pool }

const userCols = `id, username, email, password_hash, roles, created_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Roles, &u.CreatedAt)
	return u, mapErr(err)
}

func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (r *UserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var ok bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username=$1)`, username).Scan(&ok)
	return ok, err
}

func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var ok bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email=$1)`, email).Scan(&ok)
	return ok, err
}

func (r *UserRepo) Create(ctx context.Context, u User) (User, error) {
	return scanUser(r.DB.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, roles)
		VALUES ($1,$2,$3,$4)
		RETURNING `+userCols,
		u.Username, u.Email, u.PasswordHash, u.Roles))
}

func (r *UserRepo) ByUsername(ctx context.Context, username string) (User, error) {
	return scanUser(r.DB.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE username=$1`, username))
}

func (r *UserRepo) ByID(ctx context.Context, id int64) (User, error) {
	return scanUser(r.DB.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id=$1`, id))
}

func (r *UserRepo) UpdateEmail(ctx context.Context, id int64, email string) (User, error) {
	return scanUser(r.DB.QueryRow(ctx, `
		UPDATE users SET email=$2 WHERE id=$1
		RETURNING `+userCols, id, email))
}

type ProductRepo struct{ DB *pgxpool.Pool }

// price travels as text so NUMERIC round-trips exactly through decimal.Decimal.
const productCols = `id, name, description, price::text, image_url, stock_quantity, category, brand, active`

func scanProduct(row pgx.Row) (catalog.Product, error) {
	var (
		p     catalog.Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.ImageURL,
		&p.StockQuantity, &p.Category, &p.Brand, &p.Active); err != nil {
		return catalog.Product{}, mapErr(err)
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("product %d price %q: %w", p.ID, price, err)
	}
	p.Price = d
	return p, nil
}

func (r *ProductRepo) list(ctx context.Context, where string, args ...any) ([]catalog.Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+productCols+` FROM products WHERE `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []catalog.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProductRepo) ListActive(ctx context.Context) ([]catalog.Product, error) {
	return r.list(ctx, `active`)
}

func (r *ProductRepo) ListByCategory(ctx context.Context, category string) ([]catalog.Product, error) {
	return r.list(ctx, `active AND category=$1`, category)
}

func (r *ProductRepo) ListByBrand(ctx context.Context, brand string) ([]catalog.Product, error) {
	return r.list(ctx, `active AND brand=$1`, brand)
}

func (r *ProductRepo) ByID(ctx context.Context, id int64) (catalog.Product, error) {
	return scanProduct(r.DB.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1`, id))
}

func (r *ProductRepo) Create(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	return scanProduct(r.DB.QueryRow(ctx, `
		INSERT INTO products (name, description, price, image_url, stock_quantity, category, brand, active)
		VALUES ($1,$2,$3::numeric,$4,$5,$6,$7,$8)
		RETURNING `+productCols,
		p.Name, p.Description, p.Price.String(), p.ImageURL, p.StockQuantity, p.Category, p.Brand, p.Active))
}

// Update overwrites every editable field.
func (r *ProductRepo) Update(ctx context.Context, id int64, p catalog.Product) (catalog.Product, error) {
	return scanProduct(r.DB.QueryRow(ctx, `
		UPDATE products
		SET name=$2, description=$3, price=$4::numeric, image_url=$5, stock_quantity=$6,
		    category=$7, brand=$8, active=$9, updated_at=now()
		WHERE id=$1
		RETURNING `+productCols,
		id, p.Name, p.Description, p.Price.String(), p.ImageURL, p.StockQuantity, p.Category, p.Brand, p.Active))
}

// Deactivate is the soft delete: the row stays, listings stop showing it.
func (r *ProductRepo) Deactivate(ctx context.Context, id int64) (catalog.Product, error) {
	return scanProduct(r.DB.QueryRow(ctx, `
		UPDATE products SET active=false, updated_at=now()
		WHERE id=$1
		RETURNING `+productCols, id))
}
