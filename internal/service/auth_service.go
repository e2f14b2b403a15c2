package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/payment-portal/internal/auth"
	"github.com/spec-kit/payment-portal/internal/config"
	"github.com/spec-kit/payment-portal/internal/crypto"
	"github.com/spec-kit/payment-portal/internal/domain"
	"github.com/spec-kit/payment-portal/internal/events"
	"github.com/spec-kit/payment-portal/internal/observability"
	"github.com/spec-kit/payment-portal/internal/repository"
	"github.com/spec-kit/payment-portal/internal/session"
	apperrors "github.com/spec-kit/payment-portal/pkg/util"
)

var (
	emailPattern    = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	idNumberPattern = regexp.MustCompile(`^[0-9]{13}$`)
)

// Subject identifies the caller for authenticated operations.
type Subject struct {
	Kind domain.PrincipalKind
	ID   string
}

// CustomerProfile is the decrypted customer view returned to the client.
type CustomerProfile struct {
	ID            string      `json:"id"`
	FullName      string      `json:"full_name"`
	IDNumber      string      `json:"id_number"`
	AccountNumber string      `json:"account_number"`
	Email         string      `json:"email"`
	Role          domain.Role `json:"role"`
}

// EmployeeProfile is the employee view returned to the client.
type EmployeeProfile struct {
	ID         string            `json:"id"`
	FullName   string            `json:"full_name"`
	EmployeeID string            `json:"employee_id"`
	Email      string            `json:"email"`
	Role       domain.Role       `json:"role"`
	Department domain.Department `json:"department"`
}

// RegisterCustomerInput describes the registration payload.
type RegisterCustomerInput struct {
	FullName      string
	IDNumber      string
	AccountNumber string
	Email         string
	Password      string
}

// LoginInput carries exactly one login-key kind plus the password. PriorSessionID
// is whatever session cookie the client already held, so it can be invalidated.
type LoginInput struct {
	AccountNumber  string
	EmployeeID     string
	Password       string
	PriorSessionID string
}

// LoginResult bundles the fresh session with the authenticated principal's profile.
type LoginResult struct {
	Session  *session.Record
	Role     domain.Role
	Customer *CustomerProfile
	Employee *EmployeeProfile
}

// AuthService coordinates registration, login and session teardown.
type AuthService struct {
	customers  repository.CustomerRepository
	employees  repository.EmployeeRepository
	sessions   *session.Manager
	cipher     *crypto.FieldCipher
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	bcryptCost int
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	CustomerRepo repository.CustomerRepository
	EmployeeRepo repository.EmployeeRepository
	Sessions     *session.Manager
	Cipher       *crypto.FieldCipher
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	Metrics      *observability.Metrics
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		customers:  deps.CustomerRepo,
		employees:  deps.EmployeeRepo,
		sessions:   deps.Sessions,
		cipher:     deps.Cipher,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// RegisterCustomer creates a new customer account. Sensitive identifiers are
// encrypted before they reach the store; uniqueness is enforced by the store's
// unique indexes, not an application-level pre-check.
func (s *AuthService) RegisterCustomer(ctx context.Context, input RegisterCustomerInput) (*CustomerProfile, error) {
	if err := validateRegistration(input); err != nil {
		return nil, err
	}

	encryptedID, err := s.cipher.Encrypt(input.IDNumber)
	if err != nil {
		return nil, apperrors.NewCryptoError(err)
	}
	encryptedAccount, err := s.cipher.Encrypt(input.AccountNumber)
	if err != nil {
		return nil, apperrors.NewCryptoError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	customer := &domain.Customer{
		FullName:      strings.TrimSpace(input.FullName),
		IDNumber:      encryptedID,
		AccountNumber: encryptedAccount,
		Email:         strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash:  hash,
		IsActive:      true,
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewDuplicatePrincipal("account number, ID number or email already registered")
		}
		return nil, err
	}

	s.logger.Info("customer registered", zap.String("customer_id", customer.ID))
	return &CustomerProfile{
		ID:            customer.ID,
		FullName:      customer.FullName,
		IDNumber:      input.IDNumber,
		AccountNumber: input.AccountNumber,
		Email:         customer.Email,
		Role:          domain.RoleCustomer,
	}, nil
}

// Login authenticates either a customer (by account number) or an employee (by
// employee id) and establishes a freshly-identified session. Every failure mode
// surfaces as the same generic invalid-credentials error.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	switch {
	case input.AccountNumber != "" && input.EmployeeID != "":
		return nil, apperrors.NewValidationError("provide either account number or employee id, not both", nil)
	case input.AccountNumber != "":
		return s.loginCustomer(ctx, input)
	case input.EmployeeID != "":
		return s.loginEmployee(ctx, input)
	default:
		return nil, apperrors.NewValidationError("account number or employee id required", nil)
	}
}

func (s *AuthService) loginCustomer(ctx context.Context, input LoginInput) (*LoginResult, error) {
	encryptedAccount, err := s.cipher.Encrypt(input.AccountNumber)
	if err != nil {
		// a lookup key that cannot be encrypted must abort, never fall through
		// to a not-found result
		return nil, apperrors.NewCryptoError(err)
	}

	customer, err := s.customers.GetByEncryptedAccountNumber(ctx, encryptedAccount)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, s.failLogin("customer", "unknown account number")
		}
		return nil, err
	}
	if !customer.IsActive {
		return nil, s.failLogin("customer", "inactive account")
	}
	if err := auth.ComparePassword(customer.PasswordHash, input.Password); err != nil {
		return nil, s.failLogin("customer", "password mismatch")
	}

	idNumber, err := s.cipher.Decrypt(customer.IDNumber)
	if err != nil {
		return nil, apperrors.NewCryptoError(err)
	}

	rec, err := s.sessions.Establish(ctx, input.PriorSessionID, session.Snapshot{
		PrincipalID: customer.ID,
		Kind:        domain.PrincipalKindCustomer,
		Role:        domain.RoleCustomer,
		FullName:    customer.FullName,
		LoginKey:    input.AccountNumber,
	})
	if err != nil {
		return nil, err
	}

	s.publishLogin(ctx, domain.PrincipalKindCustomer, customer.ID, domain.RoleCustomer)
	return &LoginResult{
		Session: rec,
		Role:    domain.RoleCustomer,
		Customer: &CustomerProfile{
			ID:            customer.ID,
			FullName:      customer.FullName,
			IDNumber:      idNumber,
			AccountNumber: input.AccountNumber,
			Email:         customer.Email,
			Role:          domain.RoleCustomer,
		},
	}, nil
}

func (s *AuthService) loginEmployee(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if !domain.EmployeeIDPattern.MatchString(input.EmployeeID) {
		return nil, s.failLogin("employee", "malformed employee id")
	}

	employee, err := s.employees.GetByEmployeeID(ctx, input.EmployeeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, s.failLogin("employee", "unknown employee id")
		}
		return nil, err
	}
	if !employee.IsActive {
		return nil, s.failLogin("employee", "inactive account")
	}
	if err := auth.ComparePassword(employee.PasswordHash, input.Password); err != nil {
		return nil, s.failLogin("employee", "password mismatch")
	}

	rec, err := s.sessions.Establish(ctx, input.PriorSessionID, session.Snapshot{
		PrincipalID: employee.ID,
		Kind:        domain.PrincipalKindEmployee,
		Role:        employee.Role,
		FullName:    employee.FullName,
		LoginKey:    employee.EmployeeID,
	})
	if err != nil {
		return nil, err
	}

	s.publishLogin(ctx, domain.PrincipalKindEmployee, employee.ID, employee.Role)
	return &LoginResult{
		Session: rec,
		Role:    employee.Role,
		Employee: &EmployeeProfile{
			ID:         employee.ID,
			FullName:   employee.FullName,
			EmployeeID: employee.EmployeeID,
			Email:      employee.Email,
			Role:       employee.Role,
			Department: employee.Department,
		},
	}, nil
}

// Logout destroys the server-side session state.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Destroy(ctx, sessionID)
}

// ChangePassword verifies the current password before updating to a new hash.
// A principal deleted mid-session is no longer authenticated, not a server fault.
func (s *AuthService) ChangePassword(ctx context.Context, subject Subject, currentPassword, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	var currentHash string
	var updateHash func(context.Context, string) error
	switch subject.Kind {
	case domain.PrincipalKindCustomer:
		customer, err := s.customers.GetByID(ctx, subject.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotAuthenticated()
			}
			return err
		}
		currentHash = customer.PasswordHash
		updateHash = func(ctx context.Context, hash string) error {
			return s.customers.UpdatePasswordHash(ctx, customer.ID, hash)
		}
	case domain.PrincipalKindEmployee:
		employee, err := s.employees.GetByID(ctx, subject.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotAuthenticated()
			}
			return err
		}
		currentHash = employee.PasswordHash
		updateHash = func(ctx context.Context, hash string) error {
			return s.employees.UpdatePasswordHash(ctx, employee.ID, hash)
		}
	default:
		return apperrors.NewInternalError(errors.New("unknown principal kind"))
	}

	if err := auth.ComparePassword(currentHash, currentPassword); err != nil {
		return apperrors.NewInvalidCredentials()
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	return updateHash(ctx, hash)
}

// failLogin logs the real reason server-side for audit and returns the generic error.
func (s *AuthService) failLogin(kind, reason string) error {
	s.logger.Info("login rejected", zap.String("kind", kind), zap.String("reason", reason))
	s.metrics.RecordLogin(kind, false)
	return apperrors.NewInvalidCredentials()
}

func (s *AuthService) publishLogin(ctx context.Context, kind domain.PrincipalKind, principalID string, role domain.Role) {
	s.metrics.RecordLogin(strings.ToLower(string(kind)), true)
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventLoginSucceeded,
		SubjectID: principalID,
		Actor:     events.Actor{Kind: kind, PrincipalID: principalID},
		Timestamp: time.Now(),
		Payload:   events.LoginSucceededPayload{Role: role},
	})
}

func validateRegistration(input RegisterCustomerInput) error {
	name := strings.TrimSpace(input.FullName)
	if len(name) < 2 || len(name) > 100 {
		return apperrors.NewValidationError("full name must be 2-100 characters", nil)
	}
	if !idNumberPattern.MatchString(input.IDNumber) {
		return apperrors.NewValidationError("ID number must be 13 digits", nil)
	}
	if len(input.AccountNumber) < 10 || len(input.AccountNumber) > 20 {
		return apperrors.NewValidationError("account number must be 10-20 characters", nil)
	}
	if !emailPattern.MatchString(input.Email) {
		return apperrors.NewValidationError("invalid email format", nil)
	}
	return validatePassword(input.Password)
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		return apperrors.NewValidationError("password needs uppercase, lowercase, number and special character", nil)
	}
	return nil
}
