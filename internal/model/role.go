package model

// Role is the closed set of account roles. The value stored in users.role
// and embedded in token claims is always one of these constants; anything
// else is rejected at the role gate.
type Role string

const (
	RoleSuperAdmin Role = "SuperAdmin"
	RoleAdmin      Role = "Admin"
	RoleUser       Role = "User"
)

// Valid reports whether r is one of the predefined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleUser:
		return true
	}
	return false
}

// In reports whether r belongs to the given set.
func (r Role) In(set ...Role) bool {
	for _, s := range set {
		if r == s {
			return true
		}
	}
	return false
}

func (r Role) String() string { return string(r) }
