package domain

import "context"

type Role string

const (
	RoleUser   Role = "user"
	RoleAdmin  Role = "admin"
	RoleIssuer Role = "issuer"
)

// Valid reports whether the role belongs to the closed set this service
// understands. Credentials carrying any other role are rejected outright.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleIssuer:
		return true
	}
	return false
}

// Actor is the verified identity behind a request. It lives for one
// request only and is never persisted here.
type Actor struct {
	ID   string
	Role Role
}

type Authenticator interface {
	Authenticate(ctx context.Context, bearerToken string) (Actor, error)
}

type Authorizer interface {
	Require(actor Actor, operation string) error
}
