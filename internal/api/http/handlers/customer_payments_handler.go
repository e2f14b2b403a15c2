package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/payment-portal/internal/api/dto"
	"github.com/spec-kit/payment-portal/internal/auth"
	"github.com/spec-kit/payment-portal/internal/domain"
	"github.com/spec-kit/payment-portal/internal/service"
	apperrors "github.com/spec-kit/payment-portal/pkg/util"
)

// CustomerPaymentsHandler manages a customer's own payment endpoints.
type CustomerPaymentsHandler struct {
	payments *service.PaymentService
}

// NewCustomerPaymentsHandler constructs handler.
func NewCustomerPaymentsHandler(paymentService *service.PaymentService) *CustomerPaymentsHandler {
	return &CustomerPaymentsHandler{payments: paymentService}
}

// List handles GET /api/customer/payments.
func (h *CustomerPaymentsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewNotAuthenticated()
	}

	payments, err := h.payments.ListForCustomer(c.UserContext(), principal.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": payments, "count": len(payments)})
}

// Submit handles POST /api/customer/payments.
func (h *CustomerPaymentsHandler) Submit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewNotAuthenticated()
	}

	var req dto.SubmitPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return apperrors.NewValidationError("invalid amount", nil)
	}

	payment, err := h.payments.Submit(c.UserContext(), principal.ID, service.SubmitPaymentInput{
		Amount:           amount,
		Currency:         domain.Currency(req.Currency),
		Provider:         domain.Provider(req.Provider),
		RecipientAccount: req.RecipientAccount,
		SwiftCode:        req.SwiftCode,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": payment})
}

// Update handles PUT /api/customer/payments/:id for still-pending payments.
func (h *CustomerPaymentsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewNotAuthenticated()
	}

	var req dto.UpdatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.UpdatePaymentInput{
		RecipientAccount: req.RecipientAccount,
		SwiftCode:        req.SwiftCode,
	}
	if req.Amount != nil {
		amount, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			return apperrors.NewValidationError("invalid amount", nil)
		}
		input.Amount = &amount
	}
	if req.Currency != nil {
		currency := domain.Currency(*req.Currency)
		input.Currency = &currency
	}

	payment, err := h.payments.UpdatePending(c.UserContext(), principal.ID, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": payment})
}

// Delete handles DELETE /api/customer/payments/:id for still-pending payments.
func (h *CustomerPaymentsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewNotAuthenticated()
	}

	if err := h.payments.DeletePending(c.UserContext(), principal.ID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}
