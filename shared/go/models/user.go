package models

// UserRole is an entry in the roles table; authorization never infers it.
type UserRole string

const (
	UserRoleAdmin       UserRole = "admin"
	UserRoleContributor UserRole = "contributor"
)

// Allows reports whether r satisfies a handler that requires want.
func (r UserRole) Allows(want UserRole) bool {
	switch want {
	case UserRoleContributor:
		return r == UserRoleContributor || r == UserRoleAdmin
	case UserRoleAdmin:
		return r == UserRoleAdmin
	default:
		return false
	}
}
