package domain

import "time"

// Customer is the domain model for account holders who submit payments.
// IDNumber and AccountNumber hold ciphertext at rest; AccountNumber doubles as the
// login key, located by exact match on its deterministic ciphertext.
type Customer struct {
	ID            string
	FullName      string
	IDNumber      string
	AccountNumber string
	Email         string
	PasswordHash  string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
