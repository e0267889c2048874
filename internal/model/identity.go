package model

// Role of an authenticated identity. The identity/session provider is an
// external collaborator; this core only consumes (user id, role) pairs.
type Role string

const (
	// RoleUser may list, get and download documents.
	RoleUser Role = "user"
	// RoleOperator is the single privileged role allowed to upload, delete,
	// reassign and reorder.
	RoleOperator Role = "operator"
)

// Identity is the authenticated caller of a request. A zero UserID means the
// request is unauthenticated.
type Identity struct {
	UserID string
	Role   Role
}

// Authenticated reports whether the identity carries a user id.
func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

// IsOperator reports whether the identity holds the privileged role.
func (i Identity) IsOperator() bool {
	return i.Authenticated() && i.Role == RoleOperator
}
