package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/payment-portal/internal/auth"
	"github.com/spec-kit/payment-portal/internal/config"
	"github.com/spec-kit/payment-portal/internal/domain"
	"github.com/spec-kit/payment-portal/internal/events"
	"github.com/spec-kit/payment-portal/internal/repository"
	apperrors "github.com/spec-kit/payment-portal/pkg/util"
)

// CreateEmployeeInput describes an admin-issued employee creation.
type CreateEmployeeInput struct {
	FullName   string
	EmployeeID string
	Email      string
	Password   string
	Role       domain.Role
	Department domain.Department
}

// EmployeeStats aggregates employee counts for the admin dashboard.
type EmployeeStats struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Inactive int64 `json:"inactive"`
	Admins   int64 `json:"admins"`
	Regular  int64 `json:"regular"`
}

// AdminService manages employee accounts.
type AdminService struct {
	employees  repository.EmployeeRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

// NewAdminService builds the service.
func NewAdminService(cfg config.Config, employees repository.EmployeeRepository, dispatcher events.Dispatcher, logger *zap.Logger) *AdminService {
	return &AdminService{
		employees:  employees,
		dispatcher: dispatcher,
		logger:     logger,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// ListEmployees returns all employee accounts.
func (s *AdminService) ListEmployees(ctx context.Context) ([]EmployeeProfileWithStatus, error) {
	employees, err := s.employees.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]EmployeeProfileWithStatus, 0, len(employees))
	for i := range employees {
		out = append(out, employeeProfileWithStatus(&employees[i]))
	}
	return out, nil
}

// EmployeeProfileWithStatus extends the profile with account status for admins.
type EmployeeProfileWithStatus struct {
	EmployeeProfile
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func employeeProfileWithStatus(e *domain.Employee) EmployeeProfileWithStatus {
	return EmployeeProfileWithStatus{
		EmployeeProfile: EmployeeProfile{
			ID:         e.ID,
			FullName:   e.FullName,
			EmployeeID: e.EmployeeID,
			Email:      e.Email,
			Role:       e.Role,
			Department: e.Department,
		},
		IsActive:  e.IsActive,
		CreatedAt: e.CreatedAt,
	}
}

// CreateEmployee provisions a new employee or admin account.
func (s *AdminService) CreateEmployee(ctx context.Context, actor Subject, input CreateEmployeeInput) (*EmployeeProfileWithStatus, error) {
	if err := validateEmployeeInput(input); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	employee := &domain.Employee{
		FullName:     strings.TrimSpace(input.FullName),
		EmployeeID:   input.EmployeeID,
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: hash,
		Role:         input.Role,
		Department:   input.Department,
		IsActive:     true,
	}
	if err := s.employees.Create(ctx, employee); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewDuplicatePrincipal("employee id or email already registered")
		}
		return nil, err
	}

	s.logger.Info("employee created",
		zap.String("employee_id", employee.EmployeeID),
		zap.String("role", string(employee.Role)),
		zap.String("created_by", actor.ID))

	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventEmployeeCreated,
		SubjectID: employee.ID,
		Actor:     events.Actor{Kind: actor.Kind, PrincipalID: actor.ID},
		Timestamp: time.Now(),
		Payload: events.EmployeeCreatedPayload{
			EmployeeID: employee.EmployeeID,
			Role:       employee.Role,
			Department: employee.Department,
		},
	})

	profile := employeeProfileWithStatus(employee)
	return &profile, nil
}

// SetEmployeeActive soft-enables or soft-disables an employee account.
func (s *AdminService) SetEmployeeActive(ctx context.Context, id string, active bool) error {
	if err := s.employees.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("employee", nil)
		}
		return err
	}
	return nil
}

// DeleteEmployee removes an employee account. An admin may not delete the account
// they are logged in with; losing the last admin this way would lock the portal.
func (s *AdminService) DeleteEmployee(ctx context.Context, actor Subject, id string) error {
	employee, err := s.employees.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("employee", nil)
		}
		return err
	}
	if employee.ID == actor.ID {
		return apperrors.NewInvalidOperation("cannot delete your own account")
	}

	if err := s.employees.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("employee", nil)
		}
		return err
	}

	s.logger.Info("employee deleted",
		zap.String("employee_id", employee.EmployeeID),
		zap.String("deleted_by", actor.ID))
	return nil
}

// Stats summarizes employee accounts.
func (s *AdminService) Stats(ctx context.Context) (*EmployeeStats, error) {
	total, err := s.employees.Count(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.employees.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	admins, err := s.employees.CountByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}

	return &EmployeeStats{
		Total:    total,
		Active:   active,
		Inactive: total - active,
		Admins:   admins,
		Regular:  total - admins,
	}, nil
}

// EnsureBootstrapAdmin seeds the first admin account at startup when enabled and no
// admin exists yet. Seeding is deliberately not exposed over HTTP.
func (s *AdminService) EnsureBootstrapAdmin(ctx context.Context, cfg config.BootstrapConfig) error {
	if !cfg.Enabled {
		return nil
	}
	admins, err := s.employees.CountByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if admins > 0 {
		return nil
	}
	if cfg.Password == "" || cfg.Email == "" {
		return errors.New("bootstrap admin requires ADMIN_BOOTSTRAP_EMAIL and ADMIN_BOOTSTRAP_PASSWORD")
	}

	_, err = s.CreateEmployee(ctx, Subject{Kind: domain.PrincipalKindEmployee, ID: "bootstrap"}, CreateEmployeeInput{
		FullName:   cfg.FullName,
		EmployeeID: cfg.EmployeeID,
		Email:      cfg.Email,
		Password:   cfg.Password,
		Role:       domain.RoleAdmin,
		Department: domain.DepartmentAdmin,
	})
	if err != nil {
		return err
	}
	s.logger.Info("bootstrap admin created", zap.String("employee_id", cfg.EmployeeID))
	return nil
}

func validateEmployeeInput(input CreateEmployeeInput) error {
	name := strings.TrimSpace(input.FullName)
	if len(name) < 2 || len(name) > 100 {
		return apperrors.NewValidationError("full name must be 2-100 characters", nil)
	}
	if !domain.EmployeeIDPattern.MatchString(input.EmployeeID) {
		return apperrors.NewValidationError("employee id must match EMP######", nil)
	}
	if !emailPattern.MatchString(input.Email) {
		return apperrors.NewValidationError("invalid email format", nil)
	}
	if !domain.ValidEmployeeRole(input.Role) {
		return apperrors.NewValidationError("role must be employee or admin", nil)
	}
	if !domain.ValidDepartment(input.Department) {
		return apperrors.NewValidationError("invalid department", nil)
	}
	return validatePassword(input.Password)
}
