package simplefeed

import (
	"context"

	"github.com/google/uuid"
)

// Identity is the per-request authentication result produced by the
// identity middleware and threaded into every operation that enforces
// authorization. The zero value is unauthenticated.
type Identity struct {
	Authenticated bool
	UserID        uuid.UUID
}

type identityKey struct{}

// WithIdentity returns a context carrying the given identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity attached to ctx, or the
// unauthenticated zero value when none was attached.
func IdentityFromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(identityKey{}).(Identity)
	return id
}
