package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/payment-portal/internal/domain"
)

// PaymentFilter narrows employee payment listings.
type PaymentFilter struct {
	Status      *domain.PaymentStatus
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	MinAmount   *decimal.Decimal
	MaxAmount   *decimal.Decimal
}

// PaymentStats aggregates payment counts and the verified+completed volume.
type PaymentStats struct {
	Total       int64
	Pending     int64
	Verified    int64
	Completed   int64
	Rejected    int64
	TotalAmount decimal.Decimal
}

// PaymentRepository defines persistence access for payment requests.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	GetForCustomer(ctx context.Context, id, customerID string) (*domain.Payment, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Payment, error)
	List(ctx context.Context, filter PaymentFilter) ([]domain.Payment, error)
	Update(ctx context.Context, payment *domain.Payment) error
	DeletePending(ctx context.Context, id, customerID string) error
	Stats(ctx context.Context) (*PaymentStats, error)
}

type paymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository returns a Postgres-backed implementation.
func NewPaymentRepository(pool *pgxpool.Pool) PaymentRepository {
	return &paymentRepository{pool: pool}
}

const paymentColumns = `id, reference, customer_id, amount::text, currency, provider,
        recipient_account, swift_code, status, notes, verified_by, verified_at, created_at, updated_at`

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	const query = `
        INSERT INTO payments (reference, customer_id, amount, currency, provider, recipient_account, swift_code, status, notes)
        VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8, $9)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		payment.Reference,
		payment.CustomerID,
		payment.Amount.String(),
		payment.Currency,
		payment.Provider,
		payment.RecipientAccount,
		payment.SwiftCode,
		payment.Status,
		payment.Notes,
	).Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)
	return translate(err)
}

func (r *paymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *paymentRepository) GetForCustomer(ctx context.Context, id, customerID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1 AND customer_id=$2`
	return r.scanOne(r.pool.QueryRow(ctx, query, id, customerID))
}

func (r *paymentRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE customer_id=$1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, customerID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *paymentRepository) List(ctx context.Context, filter PaymentFilter) ([]domain.Payment, error) {
	var (
		conditions []string
		args       []any
	)
	addCondition := func(clause string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if filter.Status != nil {
		addCondition("status=$%d", *filter.Status)
	}
	if filter.CreatedFrom != nil {
		addCondition("created_at >= $%d", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		addCondition("created_at <= $%d", *filter.CreatedTo)
	}
	if filter.MinAmount != nil {
		addCondition("amount >= $%d::numeric", filter.MinAmount.String())
	}
	if filter.MaxAmount != nil {
		addCondition("amount <= $%d::numeric", filter.MaxAmount.String())
	}

	query := `SELECT ` + paymentColumns + ` FROM payments`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *paymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	const query = `
        UPDATE payments
        SET amount=$1::numeric, currency=$2, provider=$3, recipient_account=$4, swift_code=$5,
            status=$6, notes=$7, verified_by=$8, verified_at=$9, updated_at=NOW()
        WHERE id=$10`

	cmd, err := r.pool.Exec(ctx, query,
		payment.Amount.String(),
		payment.Currency,
		payment.Provider,
		payment.RecipientAccount,
		payment.SwiftCode,
		payment.Status,
		payment.Notes,
		payment.VerifiedBy,
		payment.VerifiedAt,
		payment.ID,
	)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *paymentRepository) DeletePending(ctx context.Context, id, customerID string) error {
	const query = `DELETE FROM payments WHERE id=$1 AND customer_id=$2 AND status=$3`

	cmd, err := r.pool.Exec(ctx, query, id, customerID, domain.PaymentStatusPending)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *paymentRepository) Stats(ctx context.Context) (*PaymentStats, error) {
	const query = `
        SELECT
            COUNT(*),
            COUNT(*) FILTER (WHERE status='PENDING'),
            COUNT(*) FILTER (WHERE status='VERIFIED'),
            COUNT(*) FILTER (WHERE status='COMPLETED'),
            COUNT(*) FILTER (WHERE status='REJECTED'),
            COALESCE(SUM(amount) FILTER (WHERE status IN ('VERIFIED','COMPLETED')), 0)::text
        FROM payments`

	var (
		stats     PaymentStats
		amountStr string
	)
	if err := r.pool.QueryRow(ctx, query).Scan(
		&stats.Total,
		&stats.Pending,
		&stats.Verified,
		&stats.Completed,
		&stats.Rejected,
		&amountStr,
	); err != nil {
		return nil, translate(err)
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("parse total amount: %w", err)
	}
	stats.TotalAmount = amount
	return &stats, nil
}

type paymentRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func (r *paymentRepository) collect(rows paymentRows) ([]domain.Payment, error) {
	var payments []domain.Payment
	for rows.Next() {
		payment, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *payment)
	}
	return payments, translate(rows.Err())
}

func (r *paymentRepository) scanOne(row rowScanner) (*domain.Payment, error) {
	var (
		p         domain.Payment
		amountStr string
	)
	if err := row.Scan(
		&p.ID,
		&p.Reference,
		&p.CustomerID,
		&amountStr,
		&p.Currency,
		&p.Provider,
		&p.RecipientAccount,
		&p.SwiftCode,
		&p.Status,
		&p.Notes,
		&p.VerifiedBy,
		&p.VerifiedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, translate(err)
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	p.Amount = amount
	return &p, nil
}
