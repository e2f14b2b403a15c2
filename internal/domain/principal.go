package domain

// Role is the closed set of portal roles. Authorization is declarative per endpoint;
// admin does not implicitly include employee access.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

// PrincipalKind differentiates the two principal classes.
type PrincipalKind string

const (
	PrincipalKindCustomer PrincipalKind = "CUSTOMER"
	PrincipalKindEmployee PrincipalKind = "EMPLOYEE"
)

// ValidEmployeeRole reports whether r is assignable to an employee record.
func ValidEmployeeRole(r Role) bool {
	return r == RoleEmployee || r == RoleAdmin
}
