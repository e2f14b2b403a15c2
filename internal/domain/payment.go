package domain

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus enumerates lifecycle states for payment requests.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusVerified  PaymentStatus = "VERIFIED"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusRejected  PaymentStatus = "REJECTED"
)

// Currency enumerates supported payment currencies.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyZAR Currency = "ZAR"
	CurrencyJPY Currency = "JPY"
)

// Provider enumerates supported payment rails.
type Provider string

const (
	ProviderSWIFT        Provider = "SWIFT"
	ProviderPayPal       Provider = "PayPal"
	ProviderWesternUnion Provider = "Western Union"
	ProviderMoneyGram    Provider = "MoneyGram"
)

// SwiftCodePattern validates BIC/SWIFT codes (8 or 11 characters).
var SwiftCodePattern = regexp.MustCompile(`^[A-Z]{6}[A-Z0-9]{2}([A-Z0-9]{3})?$`)

// Payment is the aggregate for cross-border payment requests.
// RecipientAccount and SwiftCode hold ciphertext at rest.
type Payment struct {
	ID               string
	Reference        string
	CustomerID       string
	Amount           decimal.Decimal
	Currency         Currency
	Provider         Provider
	RecipientAccount string
	SwiftCode        string
	Status           PaymentStatus
	Notes            string
	VerifiedBy       *string
	VerifiedAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ValidCurrency reports whether c is a supported currency.
func ValidCurrency(c Currency) bool {
	switch c {
	case CurrencyUSD, CurrencyEUR, CurrencyGBP, CurrencyZAR, CurrencyJPY:
		return true
	}
	return false
}

// ValidProvider reports whether p is a supported provider.
func ValidProvider(p Provider) bool {
	switch p {
	case ProviderSWIFT, ProviderPayPal, ProviderWesternUnion, ProviderMoneyGram:
		return true
	}
	return false
}

// ValidReviewStatus reports whether s is a status an employee may assign.
func ValidReviewStatus(s PaymentStatus) bool {
	switch s {
	case PaymentStatusVerified, PaymentStatusCompleted, PaymentStatusRejected:
		return true
	}
	return false
}
