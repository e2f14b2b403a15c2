package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/payment-portal/internal/api/dto"
	"github.com/spec-kit/payment-portal/internal/auth"
	"github.com/spec-kit/payment-portal/internal/domain"
	"github.com/spec-kit/payment-portal/internal/repository"
	"github.com/spec-kit/payment-portal/internal/service"
	apperrors "github.com/spec-kit/payment-portal/pkg/util"
)

// EmployeePaymentsHandler exposes the verification workflow to staff.
type EmployeePaymentsHandler struct {
	payments *service.PaymentService
}

// NewEmployeePaymentsHandler constructs handler.
func NewEmployeePaymentsHandler(paymentService *service.PaymentService) *EmployeePaymentsHandler {
	return &EmployeePaymentsHandler{payments: paymentService}
}

// List handles GET /api/employee/payments with optional filters.
func (h *EmployeePaymentsHandler) List(c *fiber.Ctx) error {
	filter, err := parsePaymentQuery(c)
	if err != nil {
		return err
	}

	payments, err := h.payments.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": payments, "count": len(payments)})
}

// Review handles PUT /api/employee/verify/:id.
func (h *EmployeePaymentsHandler) Review(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewNotAuthenticated()
	}

	var req dto.ReviewPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	payment, err := h.payments.Review(c.UserContext(), principal.ID, c.Params("id"), service.ReviewPaymentInput{
		Status: domain.PaymentStatus(req.Status),
		Notes:  req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": payment})
}

// Stats handles GET /api/employee/payments/stats.
func (h *EmployeePaymentsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.payments.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"total":        stats.Total,
		"pending":      stats.Pending,
		"verified":     stats.Verified,
		"completed":    stats.Completed,
		"rejected":     stats.Rejected,
		"total_amount": stats.TotalAmount,
	}})
}

func parsePaymentQuery(c *fiber.Ctx) (repository.PaymentFilter, error) {
	var filter repository.PaymentFilter

	if status := c.Query("status"); status != "" {
		s := domain.PaymentStatus(status)
		filter.Status = &s
	}
	if from := c.Query("start_date"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return filter, apperrors.NewValidationError("invalid start_date", nil)
		}
		filter.CreatedFrom = &t
	}
	if to := c.Query("end_date"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return filter, apperrors.NewValidationError("invalid end_date", nil)
		}
		filter.CreatedTo = &t
	}
	if min := c.Query("min_amount"); min != "" {
		d, err := decimal.NewFromString(min)
		if err != nil {
			return filter, apperrors.NewValidationError("invalid min_amount", nil)
		}
		filter.MinAmount = &d
	}
	if max := c.Query("max_amount"); max != "" {
		d, err := decimal.NewFromString(max)
		if err != nil {
			return filter, apperrors.NewValidationError("invalid max_amount", nil)
		}
		filter.MaxAmount = &d
	}
	return filter, nil
}
