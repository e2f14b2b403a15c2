package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/payment-portal/internal/api/dto"
	"github.com/spec-kit/payment-portal/internal/auth"
	"github.com/spec-kit/payment-portal/internal/domain"
	"github.com/spec-kit/payment-portal/internal/service"
	apperrors "github.com/spec-kit/payment-portal/pkg/util"
)

// AdminHandler exposes employee account management to administrators.
type AdminHandler struct {
	admin *service.AdminService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: adminService}
}

// ListEmployees handles GET /api/admin/employees.
func (h *AdminHandler) ListEmployees(c *fiber.Ctx) error {
	employees, err := h.admin.ListEmployees(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": employees, "count": len(employees)})
}

// CreateEmployee handles POST /api/admin/employees.
func (h *AdminHandler) CreateEmployee(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	var req dto.CreateEmployeeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	employee, err := h.admin.CreateEmployee(c.UserContext(), actor, service.CreateEmployeeInput{
		FullName:   req.FullName,
		EmployeeID: req.EmployeeID,
		Email:      req.Email,
		Password:   req.Password,
		Role:       domain.Role(req.Role),
		Department: domain.Department(req.Department),
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": employee})
}

// SetActive handles PATCH /api/admin/employees/:id/active.
func (h *AdminHandler) SetActive(c *fiber.Ctx) error {
	var req dto.SetEmployeeActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.IsActive == nil {
		return apperrors.NewValidationError("is_active is required", nil)
	}

	if err := h.admin.SetEmployeeActive(c.UserContext(), c.Params("id"), *req.IsActive); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "employee updated"})
}

// DeleteEmployee handles DELETE /api/admin/employees/:id.
func (h *AdminHandler) DeleteEmployee(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	if err := h.admin.DeleteEmployee(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "employee deleted"})
}

// Stats handles GET /api/admin/employees/stats.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.admin.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

func actorFromContext(c *fiber.Ctx) (service.Subject, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return service.Subject{}, apperrors.NewNotAuthenticated()
	}
	return service.Subject{Kind: principal.Kind, ID: principal.ID}, nil
}
