package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/payment-portal/internal/api/http/handlers"
	"github.com/spec-kit/payment-portal/internal/auth"
	"github.com/spec-kit/payment-portal/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health           *handlers.HealthHandler
	Auth             *handlers.AuthHandler
	CustomerPayments *handlers.CustomerPaymentsHandler
	EmployeePayments *handlers.EmployeePaymentsHandler
	Admin            *handlers.AdminHandler
	Sessions         *auth.SessionMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	api.Post("/auth/register", cfg.Auth.Register)
	api.Post("/auth/login", cfg.Auth.Login)

	protected := api.Group("", cfg.Sessions.Handle, auth.RequireAuthenticated())
	protected.Post("/auth/logout", cfg.Auth.Logout)
	protected.Post("/auth/password/change", cfg.Auth.ChangePassword)

	customer := protected.Group("/customer", auth.RequireRole(domain.RoleCustomer))
	customer.Get("/payments", cfg.CustomerPayments.List)
	customer.Post("/payments", cfg.CustomerPayments.Submit)
	customer.Put("/payments/:id", cfg.CustomerPayments.Update)
	customer.Delete("/payments/:id", cfg.CustomerPayments.Delete)

	employee := protected.Group("/employee", auth.RequireRole(domain.RoleEmployee, domain.RoleAdmin))
	employee.Get("/payments", cfg.EmployeePayments.List)
	employee.Get("/payments/stats", cfg.EmployeePayments.Stats)
	employee.Put("/verify/:id", cfg.EmployeePayments.Review)

	admin := protected.Group("/admin", auth.RequireRole(domain.RoleAdmin))
	admin.Get("/employees", cfg.Admin.ListEmployees)
	admin.Get("/employees/stats", cfg.Admin.Stats)
	admin.Post("/employees", cfg.Admin.CreateEmployee)
	admin.Patch("/employees/:id/active", cfg.Admin.SetActive)
	admin.Delete("/employees/:id", cfg.Admin.DeleteEmployee)
}
