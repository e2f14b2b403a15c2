package dto

// RegisterRequest payload for new customers.
type RegisterRequest struct {
	FullName      string `json:"full_name"`
	IDNumber      string `json:"id_number"`
	AccountNumber string `json:"account_number"`
	Email         string `json:"email"`
	Password      string `json:"password"`
}

// LoginRequest payload for customer or employee login. Exactly one of
// AccountNumber / EmployeeID must be set.
type LoginRequest struct {
	AccountNumber string `json:"account_number,omitempty"`
	EmployeeID    string `json:"employee_id,omitempty"`
	Password      string `json:"password"`
}

// ChangePasswordRequest payload for password changes.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
