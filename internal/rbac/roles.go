package rbac

import "telecom-network/internal/auth"

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleOperator   = "operator"
	RoleClient     = auth.RoleClient
	RoleSuperAdmin = "super_admin"
)

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }

// IsKnownRole reports whether tokens may be issued for role.
func IsKnownRole(role string) bool {
	switch role {
	case RoleOperator, RoleClient, RoleSuperAdmin:
		return true
	default:
		return false
	}
}
