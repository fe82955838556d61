package models

import "mintgate/pkg/domain"

// Role labels a permission gate. SuperAdmin administers role membership,
// Admin controls registry configuration, Minter may mint tokens.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleMinter     Role = "minter"
)

// AllRoles returns the fixed role set in grant-seed order.
func AllRoles() []Role {
	return []Role{RoleSuperAdmin, RoleAdmin, RoleMinter}
}

func (r Role) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleMinter:
		return true
	}
	return false
}

// Token is one ownership record. URIOverride is the per-token stored URI
// consulted only when no base URI is configured.
type Token struct {
	ID          domain.TokenID
	Owner       domain.Principal
	URIOverride string
}

// Collection carries the opaque name/symbol labels given at construction.
// The registry surfaces them without interpreting them.
type Collection struct {
	Name   string
	Symbol string
}
