package events

import (
	"time"

	"github.com/spec-kit/payment-portal/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventPaymentSubmitted     EventType = "payment_submitted"
	EventPaymentStatusChanged EventType = "payment_status_changed"
	EventEmployeeCreated      EventType = "employee_created"
	EventLoginSucceeded       EventType = "login_succeeded"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Kind        domain.PrincipalKind `json:"kind"`
	PrincipalID string               `json:"principal_id"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// PaymentSubmittedPayload payload.
type PaymentSubmittedPayload struct {
	Reference string          `json:"reference"`
	Amount    string          `json:"amount"`
	Currency  domain.Currency `json:"currency"`
	Provider  domain.Provider `json:"provider"`
}

// PaymentStatusChangedPayload payload.
type PaymentStatusChangedPayload struct {
	OldStatus domain.PaymentStatus `json:"old_status"`
	NewStatus domain.PaymentStatus `json:"new_status"`
	Notes     string               `json:"notes,omitempty"`
}

// EmployeeCreatedPayload payload.
type EmployeeCreatedPayload struct {
	EmployeeID string            `json:"employee_id"`
	Role       domain.Role       `json:"role"`
	Department domain.Department `json:"department"`
}

// LoginSucceededPayload payload.
type LoginSucceededPayload struct {
	Role domain.Role `json:"role"`
}
