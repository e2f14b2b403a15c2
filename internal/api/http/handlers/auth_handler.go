package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/payment-portal/internal/api/dto"
	"github.com/spec-kit/payment-portal/internal/auth"
	"github.com/spec-kit/payment-portal/internal/service"
	apperrors "github.com/spec-kit/payment-portal/pkg/util"
)

// AuthHandler exposes registration, login and session endpoints.
type AuthHandler struct {
	auth     *service.AuthService
	sessions *auth.SessionMiddleware
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, sessions *auth.SessionMiddleware) *AuthHandler {
	return &AuthHandler{auth: authService, sessions: sessions}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	profile, err := h.auth.RegisterCustomer(c.UserContext(), service.RegisterCustomerInput{
		FullName:      req.FullName,
		IDNumber:      req.IDNumber,
		AccountNumber: req.AccountNumber,
		Email:         req.Email,
		Password:      req.Password,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{"user": profile},
	})
}

// Login handles POST /api/auth/login. On success the session id is regenerated and
// delivered in an HTTP-only cookie.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Password == "" {
		return apperrors.NewValidationError("password required", nil)
	}

	result, err := h.auth.Login(c.UserContext(), service.LoginInput{
		AccountNumber:  req.AccountNumber,
		EmployeeID:     req.EmployeeID,
		Password:       req.Password,
		PriorSessionID: c.Cookies(h.sessions.CookieName()),
	})
	if err != nil {
		return err
	}

	h.sessions.SetCookie(c, result.Session.ID)

	var user any
	if result.Customer != nil {
		user = result.Customer
	} else {
		user = result.Employee
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": user,
			"role": result.Role,
		},
	})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewNotAuthenticated()
	}

	if err := h.auth.Logout(c.UserContext(), principal.SessionID); err != nil {
		return err
	}
	h.sessions.ClearCookie(c)
	return c.JSON(fiber.Map{"data": fiber.Map{"logged_out": true}})
}

// ChangePassword handles POST /api/auth/password/change.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewNotAuthenticated()
	}

	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("current and new password required", nil)
	}

	subject := service.Subject{Kind: principal.Kind, ID: principal.ID}
	if err := h.auth.ChangePassword(c.UserContext(), subject, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"changed": true}})
}
