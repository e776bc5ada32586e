// Package identity resolves the requesting user from trusted gateway
// headers. Authentication itself happens upstream; services only consume
// the resolved {ID, Role} pair.
package identity

import (
	"net/http"

	apperrors "portbuoy/pkg/errors"
)

const (
	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleDriver   Role = "driver"
)

type User struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanActFor reports whether the user may act on a resource owned by ownerID.
func (u User) CanActFor(ownerID string) bool {
	return u.ID == ownerID || u.IsAdmin()
}

// FromRequest extracts the requester placed on the request by the gateway.
func FromRequest(r *http.Request) (User, error) {
	id := r.Header.Get(HeaderUserID)
	if id == "" {
		return User{}, apperrors.Unauthorized("Missing user identity")
	}

	role := Role(r.Header.Get(HeaderUserRole))
	switch role {
	case RoleAdmin, RoleOperator, RoleDriver:
	default:
		return User{}, apperrors.Unauthorized("Unknown user role")
	}

	return User{ID: id, Role: role}, nil
}
