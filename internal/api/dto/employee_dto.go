package dto

// CreateEmployeeRequest payload for admin-issued employee creation.
type CreateEmployeeRequest struct {
	FullName   string `json:"full_name"`
	EmployeeID string `json:"employee_id"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

// SetEmployeeActiveRequest payload for soft-enabling or disabling an account.
type SetEmployeeActiveRequest struct {
	IsActive *bool `json:"is_active"`
}
