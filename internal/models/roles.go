package models

import "github.com/google/uuid"

// Role describes the access level of an authenticated caller.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Actor is the request-scoped authorization context. It is built once from
// verified token claims and passed explicitly into every operation that
// needs to check permissions; nothing reads roles from ambient state.
type Actor struct {
	UserID      uuid.UUID
	DisplayName string
	Role        Role
}

// IsAdmin reports whether the actor may perform content-management operations.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
