package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/payment-portal/internal/domain"
)

// CustomerRepository defines persistence access for customer principals.
// Account and ID numbers are stored and queried as ciphertext; the caller encrypts
// the lookup key before calling GetByEncryptedAccountNumber.
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	GetByEncryptedAccountNumber(ctx context.Context, encrypted string) (*domain.Customer, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

type customerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a Postgres-backed implementation.
func NewCustomerRepository(pool *pgxpool.Pool) CustomerRepository {
	return &customerRepository{pool: pool}
}

func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	const query = `
        INSERT INTO customers (full_name, id_number, account_number, email, password_hash, is_active)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		customer.FullName,
		customer.IDNumber,
		customer.AccountNumber,
		customer.Email,
		customer.PasswordHash,
		customer.IsActive,
	).Scan(&customer.ID, &customer.CreatedAt, &customer.UpdatedAt)
	return translate(err)
}

func (r *customerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	const query = `
        SELECT id, full_name, id_number, account_number, email, password_hash, is_active, created_at, updated_at
        FROM customers WHERE id=$1`

	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *customerRepository) GetByEncryptedAccountNumber(ctx context.Context, encrypted string) (*domain.Customer, error) {
	const query = `
        SELECT id, full_name, id_number, account_number, email, password_hash, is_active, created_at, updated_at
        FROM customers WHERE account_number=$1`

	return r.scanOne(r.pool.QueryRow(ctx, query, encrypted))
}

func (r *customerRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	const query = `UPDATE customers SET password_hash=$1, updated_at=NOW() WHERE id=$2`

	cmd, err := r.pool.Exec(ctx, query, hash, id)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *customerRepository) scanOne(row rowScanner) (*domain.Customer, error) {
	var customer domain.Customer
	if err := row.Scan(
		&customer.ID,
		&customer.FullName,
		&customer.IDNumber,
		&customer.AccountNumber,
		&customer.Email,
		&customer.PasswordHash,
		&customer.IsActive,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	); err != nil {
		return nil, translate(err)
	}
	return &customer, nil
}
