// Package gate holds the access control policy for the document core:
// exactly one privileged role may mutate documents and order, any
// authenticated identity may read. The gate is consulted synchronously
// before every state-mutating step.
package gate

import (
	"errors"

	"doclib/internal/model"
)

var (
	// ErrUnauthorized means the request carries no authenticated identity.
	ErrUnauthorized = errors.New("gate: authentication required")
	// ErrForbidden means the identity is authenticated but lacks the
	// operator role required for the operation.
	ErrForbidden = errors.New("gate: operator role required")
)

// RequireAuthenticated allows any authenticated identity (read path).
func RequireAuthenticated(id model.Identity) error {
	if !id.Authenticated() {
		return ErrUnauthorized
	}
	return nil
}

// RequireOperator allows only the privileged role (mutating path).
func RequireOperator(id model.Identity) error {
	if !id.Authenticated() {
		return ErrUnauthorized
	}
	if !id.IsOperator() {
		return ErrForbidden
	}
	return nil
}
