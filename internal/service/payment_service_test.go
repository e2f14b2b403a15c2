package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/payment-portal/internal/crypto"
	"github.com/spec-kit/payment-portal/internal/domain"
	"github.com/spec-kit/payment-portal/internal/events"
	"github.com/spec-kit/payment-portal/internal/repository"
	apperrors "github.com/spec-kit/payment-portal/pkg/util"
)

// fakePaymentRepo keeps payments in memory and applies the same filter semantics
// as the SQL implementation.
type fakePaymentRepo struct {
	byID   map[string]*domain.Payment
	nextID int
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{byID: make(map[string]*domain.Payment)}
}

func (r *fakePaymentRepo) Create(_ context.Context, payment *domain.Payment) error {
	r.nextID++
	payment.ID = fmt.Sprintf("pay-%d", r.nextID)
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = payment.CreatedAt
	clone := *payment
	r.byID[payment.ID] = &clone
	return nil
}

func (r *fakePaymentRepo) GetByID(_ context.Context, id string) (*domain.Payment, error) {
	payment, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *payment
	return &clone, nil
}

func (r *fakePaymentRepo) GetForCustomer(_ context.Context, id, customerID string) (*domain.Payment, error) {
	payment, ok := r.byID[id]
	if !ok || payment.CustomerID != customerID {
		return nil, repository.ErrNotFound
	}
	clone := *payment
	return &clone, nil
}

func (r *fakePaymentRepo) ListByCustomer(_ context.Context, customerID string) ([]domain.Payment, error) {
	var out []domain.Payment
	for _, payment := range r.byID {
		if payment.CustomerID == customerID {
			out = append(out, *payment)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) List(_ context.Context, filter repository.PaymentFilter) ([]domain.Payment, error) {
	var out []domain.Payment
	for _, payment := range r.byID {
		if filter.Status != nil && payment.Status != *filter.Status {
			continue
		}
		if filter.MinAmount != nil && payment.Amount.LessThan(*filter.MinAmount) {
			continue
		}
		if filter.MaxAmount != nil && payment.Amount.GreaterThan(*filter.MaxAmount) {
			continue
		}
		if filter.CreatedFrom != nil && payment.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedTo != nil && payment.CreatedAt.After(*filter.CreatedTo) {
			continue
		}
		out = append(out, *payment)
	}
	return out, nil
}

func (r *fakePaymentRepo) Update(_ context.Context, payment *domain.Payment) error {
	if _, ok := r.byID[payment.ID]; !ok {
		return repository.ErrNotFound
	}
	payment.UpdatedAt = time.Now()
	clone := *payment
	r.byID[payment.ID] = &clone
	return nil
}

func (r *fakePaymentRepo) DeletePending(_ context.Context, id, customerID string) error {
	payment, ok := r.byID[id]
	if !ok || payment.CustomerID != customerID || payment.Status != domain.PaymentStatusPending {
		return repository.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *fakePaymentRepo) Stats(_ context.Context) (*repository.PaymentStats, error) {
	stats := &repository.PaymentStats{}
	for _, payment := range r.byID {
		stats.Total++
		switch payment.Status {
		case domain.PaymentStatusPending:
			stats.Pending++
		case domain.PaymentStatusVerified:
			stats.Verified++
			stats.TotalAmount = stats.TotalAmount.Add(payment.Amount)
		case domain.PaymentStatusCompleted:
			stats.Completed++
			stats.TotalAmount = stats.TotalAmount.Add(payment.Amount)
		case domain.PaymentStatusRejected:
			stats.Rejected++
		}
	}
	return stats, nil
}

type paymentFixture struct {
	service *PaymentService
	repo    *fakePaymentRepo
	cipher  *crypto.FieldCipher
	events  []events.Event
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()

	f := &paymentFixture{
		repo:   newFakePaymentRepo(),
		cipher: crypto.NewFieldCipher("unit-test-field-key"),
	}
	dispatcher := events.NewInMemoryDispatcher()
	capture := func(_ context.Context, e events.Event) error {
		f.events = append(f.events, e)
		return nil
	}
	dispatcher.Subscribe(events.EventPaymentSubmitted, capture)
	dispatcher.Subscribe(events.EventPaymentStatusChanged, capture)

	f.service = NewPaymentService(PaymentDependencies{
		PaymentRepo: f.repo,
		Cipher:      f.cipher,
		Dispatcher:  dispatcher,
		Logger:      zap.NewNop(),
	})
	return f
}

func validSubmission() SubmitPaymentInput {
	return SubmitPaymentInput{
		Amount:           decimal.RequireFromString("1500.50"),
		Currency:         domain.CurrencyUSD,
		Provider:         domain.ProviderSWIFT,
		RecipientAccount: "9876543210",
		SwiftCode:        "SBZAZAJJ",
	}
}

func TestSubmitPaymentEncryptsRecipientFields(t *testing.T) {
	f := newPaymentFixture(t)

	view, err := f.service.Submit(context.Background(), "cust-1", validSubmission())
	require.NoError(t, err)
	require.NotEmpty(t, view.ID)
	assert.NotEmpty(t, view.Reference)
	assert.Equal(t, domain.PaymentStatusPending, view.Status)

	// the view is decrypted for the caller
	assert.Equal(t, "9876543210", view.RecipientAccount)
	assert.Equal(t, "SBZAZAJJ", view.SwiftCode)

	stored, err := f.repo.GetByID(context.Background(), view.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "9876543210", stored.RecipientAccount)
	assert.NotEqual(t, "SBZAZAJJ", stored.SwiftCode)

	decrypted, err := f.cipher.Decrypt(stored.RecipientAccount)
	require.NoError(t, err)
	assert.Equal(t, "9876543210", decrypted)

	require.Len(t, f.events, 1)
	assert.Equal(t, events.EventPaymentSubmitted, f.events[0].Type)
}

func TestSubmitPaymentValidation(t *testing.T) {
	f := newPaymentFixture(t)

	cases := map[string]func(*SubmitPaymentInput){
		"amount below minimum": func(in *SubmitPaymentInput) { in.Amount = decimal.RequireFromString("0.50") },
		"unknown currency":     func(in *SubmitPaymentInput) { in.Currency = "BTC" },
		"unknown provider":     func(in *SubmitPaymentInput) { in.Provider = "Hawala" },
		"missing recipient":    func(in *SubmitPaymentInput) { in.RecipientAccount = "" },
		"swift without code":   func(in *SubmitPaymentInput) { in.SwiftCode = "" },
		"malformed swift code": func(in *SubmitPaymentInput) { in.SwiftCode = "abc" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			input := validSubmission()
			mutate(&input)
			_, err := f.service.Submit(context.Background(), "cust-1", input)
			var domainErr *apperrors.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
		})
	}
}

func TestSubmitPaymentNonSwiftProviderSkipsSwiftCode(t *testing.T) {
	f := newPaymentFixture(t)

	input := validSubmission()
	input.Provider = domain.ProviderPayPal
	input.SwiftCode = ""

	view, err := f.service.Submit(context.Background(), "cust-1", input)
	require.NoError(t, err)
	assert.Empty(t, view.SwiftCode)
}

func TestUpdatePendingOnly(t *testing.T) {
	f := newPaymentFixture(t)

	view, err := f.service.Submit(context.Background(), "cust-1", validSubmission())
	require.NoError(t, err)

	newAmount := decimal.RequireFromString("2000")
	updated, err := f.service.UpdatePending(context.Background(), "cust-1", view.ID, UpdatePaymentInput{
		Amount: &newAmount,
	})
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(newAmount))

	// once reviewed the payment is frozen
	_, err = f.service.Review(context.Background(), "emp-1", view.ID, ReviewPaymentInput{
		Status: domain.PaymentStatusVerified,
	})
	require.NoError(t, err)

	_, err = f.service.UpdatePending(context.Background(), "cust-1", view.ID, UpdatePaymentInput{
		Amount: &newAmount,
	})
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_OPERATION", domainErr.Code)
}

func TestUpdatePendingWrongCustomer(t *testing.T) {
	f := newPaymentFixture(t)

	view, err := f.service.Submit(context.Background(), "cust-1", validSubmission())
	require.NoError(t, err)

	newAmount := decimal.RequireFromString("2000")
	_, err = f.service.UpdatePending(context.Background(), "cust-2", view.ID, UpdatePaymentInput{
		Amount: &newAmount,
	})
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestDeletePendingOnly(t *testing.T) {
	f := newPaymentFixture(t)

	view, err := f.service.Submit(context.Background(), "cust-1", validSubmission())
	require.NoError(t, err)
	require.NoError(t, f.service.DeletePending(context.Background(), "cust-1", view.ID))

	second, err := f.service.Submit(context.Background(), "cust-1", validSubmission())
	require.NoError(t, err)
	_, err = f.service.Review(context.Background(), "emp-1", second.ID, ReviewPaymentInput{
		Status: domain.PaymentStatusRejected,
	})
	require.NoError(t, err)

	err = f.service.DeletePending(context.Background(), "cust-1", second.ID)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestReviewRecordsVerifier(t *testing.T) {
	f := newPaymentFixture(t)

	view, err := f.service.Submit(context.Background(), "cust-1", validSubmission())
	require.NoError(t, err)

	reviewed, err := f.service.Review(context.Background(), "emp-7", view.ID, ReviewPaymentInput{
		Status: domain.PaymentStatusVerified,
		Notes:  "beneficiary confirmed",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusVerified, reviewed.Status)
	require.NotNil(t, reviewed.VerifiedBy)
	assert.Equal(t, "emp-7", *reviewed.VerifiedBy)
	assert.NotNil(t, reviewed.VerifiedAt)
	assert.Equal(t, "beneficiary confirmed", reviewed.Notes)

	require.Len(t, f.events, 2)
	assert.Equal(t, events.EventPaymentStatusChanged, f.events[1].Type)
}

func TestReviewPendingOnly(t *testing.T) {
	f := newPaymentFixture(t)

	view, err := f.service.Submit(context.Background(), "cust-1", validSubmission())
	require.NoError(t, err)

	_, err = f.service.Review(context.Background(), "emp-1", view.ID, ReviewPaymentInput{
		Status: domain.PaymentStatusCompleted,
	})
	require.NoError(t, err)

	_, err = f.service.Review(context.Background(), "emp-2", view.ID, ReviewPaymentInput{
		Status: domain.PaymentStatusRejected,
	})
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_OPERATION", domainErr.Code)
}

func TestReviewRejectsInvalidStatus(t *testing.T) {
	f := newPaymentFixture(t)

	view, err := f.service.Submit(context.Background(), "cust-1", validSubmission())
	require.NoError(t, err)

	_, err = f.service.Review(context.Background(), "emp-1", view.ID, ReviewPaymentInput{
		Status: domain.PaymentStatusPending,
	})
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
}

func TestListFiltersByStatusAndAmount(t *testing.T) {
	f := newPaymentFixture(t)

	small := validSubmission()
	small.Amount = decimal.RequireFromString("100")
	_, err := f.service.Submit(context.Background(), "cust-1", small)
	require.NoError(t, err)

	large, err := f.service.Submit(context.Background(), "cust-2", validSubmission())
	require.NoError(t, err)
	_, err = f.service.Review(context.Background(), "emp-1", large.ID, ReviewPaymentInput{
		Status: domain.PaymentStatusVerified,
	})
	require.NoError(t, err)

	pending := domain.PaymentStatusPending
	views, err := f.service.List(context.Background(), repository.PaymentFilter{Status: &pending})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "cust-1", views[0].CustomerID)

	minAmount := decimal.RequireFromString("1000")
	views, err = f.service.List(context.Background(), repository.PaymentFilter{MinAmount: &minAmount})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "cust-2", views[0].CustomerID)
}

func TestPaymentStats(t *testing.T) {
	f := newPaymentFixture(t)

	first, err := f.service.Submit(context.Background(), "cust-1", validSubmission())
	require.NoError(t, err)
	_, err = f.service.Review(context.Background(), "emp-1", first.ID, ReviewPaymentInput{
		Status: domain.PaymentStatusVerified,
	})
	require.NoError(t, err)

	_, err = f.service.Submit(context.Background(), "cust-1", validSubmission())
	require.NoError(t, err)

	stats, err := f.service.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.Pending)
	assert.Equal(t, int64(1), stats.Verified)
	assert.True(t, stats.TotalAmount.Equal(decimal.RequireFromString("1500.50")))
}
