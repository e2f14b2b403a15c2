package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/payment-portal/internal/crypto"
	"github.com/spec-kit/payment-portal/internal/domain"
	"github.com/spec-kit/payment-portal/internal/events"
	"github.com/spec-kit/payment-portal/internal/repository"
	apperrors "github.com/spec-kit/payment-portal/pkg/util"
)

// SubmitPaymentInput describes a new payment request.
type SubmitPaymentInput struct {
	Amount           decimal.Decimal
	Currency         domain.Currency
	Provider         domain.Provider
	RecipientAccount string
	SwiftCode        string
}

// UpdatePaymentInput carries optional changes to a pending payment.
type UpdatePaymentInput struct {
	Amount           *decimal.Decimal
	Currency         *domain.Currency
	RecipientAccount *string
	SwiftCode        *string
}

// ReviewPaymentInput is an employee's verification decision.
type ReviewPaymentInput struct {
	Status domain.PaymentStatus
	Notes  string
}

// PaymentView is the decrypted payment representation returned to clients.
type PaymentView struct {
	ID               string               `json:"id"`
	Reference        string               `json:"reference"`
	CustomerID       string               `json:"customer_id"`
	Amount           decimal.Decimal      `json:"amount"`
	Currency         domain.Currency      `json:"currency"`
	Provider         domain.Provider      `json:"provider"`
	RecipientAccount string               `json:"recipient_account"`
	SwiftCode        string               `json:"swift_code,omitempty"`
	Status           domain.PaymentStatus `json:"status"`
	Notes            string               `json:"notes,omitempty"`
	VerifiedBy       *string              `json:"verified_by,omitempty"`
	VerifiedAt       *time.Time           `json:"verified_at,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
}

// PaymentService coordinates the payment submission and verification workflow.
type PaymentService struct {
	payments   repository.PaymentRepository
	cipher     *crypto.FieldCipher
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// PaymentDependencies bundles requirements for the payment service.
type PaymentDependencies struct {
	PaymentRepo repository.PaymentRepository
	Cipher      *crypto.FieldCipher
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewPaymentService constructs the service.
func NewPaymentService(deps PaymentDependencies) *PaymentService {
	return &PaymentService{
		payments:   deps.PaymentRepo,
		cipher:     deps.Cipher,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// Submit records a new pending payment for the customer. Recipient identifiers are
// encrypted before persistence.
func (s *PaymentService) Submit(ctx context.Context, customerID string, input SubmitPaymentInput) (*PaymentView, error) {
	if err := validateSubmission(input); err != nil {
		return nil, err
	}

	encryptedRecipient, err := s.cipher.Encrypt(input.RecipientAccount)
	if err != nil {
		return nil, apperrors.NewCryptoError(err)
	}
	encryptedSwift, err := s.cipher.Encrypt(input.SwiftCode)
	if err != nil {
		return nil, apperrors.NewCryptoError(err)
	}

	payment := &domain.Payment{
		Reference:        uuid.NewString(),
		CustomerID:       customerID,
		Amount:           input.Amount,
		Currency:         input.Currency,
		Provider:         input.Provider,
		RecipientAccount: encryptedRecipient,
		SwiftCode:        encryptedSwift,
		Status:           domain.PaymentStatusPending,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}

	s.logger.Info("payment submitted",
		zap.String("payment_id", payment.ID),
		zap.String("customer_id", customerID),
		zap.String("provider", string(payment.Provider)))

	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventPaymentSubmitted,
		SubjectID: payment.ID,
		Actor:     events.Actor{Kind: domain.PrincipalKindCustomer, PrincipalID: customerID},
		Timestamp: time.Now(),
		Payload: events.PaymentSubmittedPayload{
			Reference: payment.Reference,
			Amount:    payment.Amount.String(),
			Currency:  payment.Currency,
			Provider:  payment.Provider,
		},
	})

	return s.view(payment)
}

// ListForCustomer returns the customer's own payments, decrypted for display.
func (s *PaymentService) ListForCustomer(ctx context.Context, customerID string) ([]PaymentView, error) {
	payments, err := s.payments.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return s.views(payments)
}

// UpdatePending modifies a customer's payment while it is still pending.
func (s *PaymentService) UpdatePending(ctx context.Context, customerID, paymentID string, input UpdatePaymentInput) (*PaymentView, error) {
	payment, err := s.payments.GetForCustomer(ctx, paymentID, customerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("payment", nil)
		}
		return nil, err
	}
	if payment.Status != domain.PaymentStatusPending {
		return nil, apperrors.NewInvalidOperation("payment already processed")
	}

	if input.Amount != nil {
		payment.Amount = *input.Amount
	}
	if input.Currency != nil {
		payment.Currency = *input.Currency
	}
	if input.RecipientAccount != nil {
		encrypted, err := s.cipher.Encrypt(*input.RecipientAccount)
		if err != nil {
			return nil, apperrors.NewCryptoError(err)
		}
		payment.RecipientAccount = encrypted
	}
	if input.SwiftCode != nil {
		if *input.SwiftCode != "" && !domain.SwiftCodePattern.MatchString(*input.SwiftCode) {
			return nil, apperrors.NewValidationError("invalid SWIFT code format", nil)
		}
		encrypted, err := s.cipher.Encrypt(*input.SwiftCode)
		if err != nil {
			return nil, apperrors.NewCryptoError(err)
		}
		payment.SwiftCode = encrypted
	}

	if payment.Amount.LessThan(decimal.NewFromInt(1)) {
		return nil, apperrors.NewValidationError("amount must be at least 1", nil)
	}
	if !domain.ValidCurrency(payment.Currency) {
		return nil, apperrors.NewValidationError("invalid currency", nil)
	}

	if err := s.payments.Update(ctx, payment); err != nil {
		return nil, err
	}
	return s.view(payment)
}

// DeletePending removes a customer's payment while it is still pending.
func (s *PaymentService) DeletePending(ctx context.Context, customerID, paymentID string) error {
	if err := s.payments.DeletePending(ctx, paymentID, customerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("payment", nil)
		}
		return err
	}
	return nil
}

// List returns all payments matching the filter, for verification staff.
func (s *PaymentService) List(ctx context.Context, filter repository.PaymentFilter) ([]PaymentView, error) {
	payments, err := s.payments.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.views(payments)
}

// Review applies an employee's verification decision to a pending payment.
func (s *PaymentService) Review(ctx context.Context, employeeID, paymentID string, input ReviewPaymentInput) (*PaymentView, error) {
	if !domain.ValidReviewStatus(input.Status) {
		return nil, apperrors.NewValidationError("status must be VERIFIED, COMPLETED or REJECTED", nil)
	}
	if len(input.Notes) > 500 {
		return nil, apperrors.NewValidationError("notes too long", nil)
	}

	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("payment", nil)
		}
		return nil, err
	}
	if payment.Status != domain.PaymentStatusPending {
		return nil, apperrors.NewInvalidOperation("payment already processed")
	}

	oldStatus := payment.Status
	now := time.Now()
	payment.Status = input.Status
	payment.VerifiedBy = &employeeID
	payment.VerifiedAt = &now
	if input.Notes != "" {
		payment.Notes = input.Notes
	}

	if err := s.payments.Update(ctx, payment); err != nil {
		return nil, err
	}

	s.logger.Info("payment reviewed",
		zap.String("payment_id", payment.ID),
		zap.String("status", string(payment.Status)),
		zap.String("verified_by", employeeID))

	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventPaymentStatusChanged,
		SubjectID: payment.ID,
		Actor:     events.Actor{Kind: domain.PrincipalKindEmployee, PrincipalID: employeeID},
		Timestamp: now,
		Payload: events.PaymentStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: payment.Status,
			Notes:     input.Notes,
		},
	})

	return s.view(payment)
}

// Stats summarizes payments for the verification dashboard.
func (s *PaymentService) Stats(ctx context.Context) (*repository.PaymentStats, error) {
	return s.payments.Stats(ctx)
}

func (s *PaymentService) views(payments []domain.Payment) ([]PaymentView, error) {
	out := make([]PaymentView, 0, len(payments))
	for i := range payments {
		v, err := s.view(&payments[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

func (s *PaymentService) view(payment *domain.Payment) (*PaymentView, error) {
	recipient, err := s.cipher.Decrypt(payment.RecipientAccount)
	if err != nil {
		return nil, apperrors.NewCryptoError(err)
	}
	swift, err := s.cipher.Decrypt(payment.SwiftCode)
	if err != nil {
		return nil, apperrors.NewCryptoError(err)
	}

	return &PaymentView{
		ID:               payment.ID,
		Reference:        payment.Reference,
		CustomerID:       payment.CustomerID,
		Amount:           payment.Amount,
		Currency:         payment.Currency,
		Provider:         payment.Provider,
		RecipientAccount: recipient,
		SwiftCode:        swift,
		Status:           payment.Status,
		Notes:            payment.Notes,
		VerifiedBy:       payment.VerifiedBy,
		VerifiedAt:       payment.VerifiedAt,
		CreatedAt:        payment.CreatedAt,
	}, nil
}

func validateSubmission(input SubmitPaymentInput) error {
	if input.Amount.LessThan(decimal.NewFromInt(1)) {
		return apperrors.NewValidationError("amount must be at least 1", nil)
	}
	if !domain.ValidCurrency(input.Currency) {
		return apperrors.NewValidationError("invalid currency", nil)
	}
	if !domain.ValidProvider(input.Provider) {
		return apperrors.NewValidationError("invalid payment provider", nil)
	}
	if len(input.RecipientAccount) < 5 {
		return apperrors.NewValidationError("recipient account required", nil)
	}
	if input.Provider == domain.ProviderSWIFT && input.SwiftCode == "" {
		return apperrors.NewValidationError("SWIFT code required for SWIFT transfers", nil)
	}
	if input.SwiftCode != "" && !domain.SwiftCodePattern.MatchString(input.SwiftCode) {
		return apperrors.NewValidationError("invalid SWIFT code format", nil)
	}
	return nil
}
