// Package rbac maps each gated operation to the closed set of roles
// allowed to perform it. The whole authorization matrix lives in one
// table so it can be tested on its own.
package rbac

import "veritrust/internal/domain"

const (
	OpAnchor          = "anchor"
	OpRevoke          = "revoke"
	OpAuditRead       = "audit:read"
	OpAdminAccess     = "admin:access"
	OpProtectedAccess = "protected:access"
)

var permissions = map[string][]domain.Role{
	OpAnchor:          {domain.RoleUser, domain.RoleIssuer, domain.RoleAdmin},
	OpRevoke:          {domain.RoleIssuer, domain.RoleAdmin},
	OpAuditRead:       {domain.RoleAdmin},
	OpAdminAccess:     {domain.RoleAdmin},
	OpProtectedAccess: {domain.RoleUser, domain.RoleIssuer, domain.RoleAdmin},
}

type Authorizer struct {
	table map[string]map[domain.Role]bool
}

func NewAuthorizer() *Authorizer {
	table := make(map[string]map[domain.Role]bool, len(permissions))
	for op, roles := range permissions {
		allowed := make(map[domain.Role]bool, len(roles))
		for _, role := range roles {
			allowed[role] = true
		}
		table[op] = allowed
	}
	return &Authorizer{table: table}
}

// Require denies unknown operations and unknown roles outright; only an
// exact (operation, role) match in the table passes.
func (a *Authorizer) Require(actor domain.Actor, operation string) error {
	if actor.ID == "" || !actor.Role.Valid() {
		return domain.ErrInvalidCredential
	}
	allowed, ok := a.table[operation]
	if !ok {
		return domain.ErrForbidden
	}
	if !allowed[actor.Role] {
		return domain.ErrForbidden
	}
	return nil
}
