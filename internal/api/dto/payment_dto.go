package dto

// SubmitPaymentRequest payload for new payments. Amount is a decimal string to
// avoid float rounding on money.
type SubmitPaymentRequest struct {
	Amount           string `json:"amount"`
	Currency         string `json:"currency"`
	Provider         string `json:"provider"`
	RecipientAccount string `json:"recipient_account"`
	SwiftCode        string `json:"swift_code,omitempty"`
}

// UpdatePaymentRequest payload for editing a pending payment.
type UpdatePaymentRequest struct {
	Amount           *string `json:"amount,omitempty"`
	Currency         *string `json:"currency,omitempty"`
	RecipientAccount *string `json:"recipient_account,omitempty"`
	SwiftCode        *string `json:"swift_code,omitempty"`
}

// ReviewPaymentRequest payload for an employee's verification decision.
type ReviewPaymentRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}
