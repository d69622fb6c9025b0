// Package auth resolves bearer credentials to a user identity. The
// marketplace does not run an identity provider itself; it verifies
// session tokens issued by the auth frontend and hands the publish flow an
// opaque user id.
package auth

import (
	"context"
	"errors"
	"strings"
)

// ErrUnauthenticated indicates a missing or invalid credential.
var ErrUnauthenticated = errors.New("authentication required")

// Principal is the authenticated user identity.
type Principal struct {
	UserID   string
	Username string
}

// AuthnProvider validates a raw Authorization header value and returns the
// principal it belongs to.
type AuthnProvider interface {
	Authenticate(ctx context.Context, authorization string) (*Principal, error)
}

// ExtractBearer returns the token from a "Bearer <token>" header value, or
// "" when the header is absent or malformed.
func ExtractBearer(authorization string) string {
	const prefix = "Bearer "
	if len(authorization) <= len(prefix) || !strings.EqualFold(authorization[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(authorization[len(prefix):])
}
