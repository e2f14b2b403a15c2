package domain

import (
	"regexp"
	"time"
)

// Department enumerates the units an employee belongs to.
type Department string

const (
	DepartmentPayments     Department = "payments"
	DepartmentVerification Department = "verification"
	DepartmentAdmin        Department = "admin"
)

// EmployeeIDPattern is the required login-key format for employees. The id is not
// sensitive the way a national ID is, so it is stored and matched in plaintext.
var EmployeeIDPattern = regexp.MustCompile(`^EMP[0-9]{6}$`)

// Employee models a verification employee or administrator.
type Employee struct {
	ID           string
	FullName     string
	EmployeeID   string
	Email        string
	PasswordHash string
	Role         Role
	Department   Department
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidDepartment reports whether d is a known department.
func ValidDepartment(d Department) bool {
	switch d {
	case DepartmentPayments, DepartmentVerification, DepartmentAdmin:
		return true
	}
	return false
}
