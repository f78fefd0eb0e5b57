package usecase

import (
	"context"

	"portal_backend/internal/feature/auth/domain/entity"
)

// SessionStore abstracts the shared session-record table keyed by token.
// Following Go convention: interfaces are defined by the consumer (usecase),
// not the provider (adapters). Implementations must make every
// read-modify-write on a single token atomic with respect to other requests
// for the same token; no ordering is required across unrelated tokens.
type SessionStore interface {
	// Get retrieves the record for a token.
	// Returns ErrSessionNotFound when no record exists.
	Get(ctx context.Context, token string) (*entity.SessionRecord, error)

	// Put stores or replaces the record for rec.Token atomically.
	Put(ctx context.Context, rec *entity.SessionRecord) error

	// Invalidate flags the record as no longer valid, keeping it in place so
	// a pending request holding the token observes the eviction.
	// Returns ErrSessionNotFound when no record exists.
	Invalidate(ctx context.Context, token string) error

	// Delete removes the record. Deleting an absent token is not an error.
	Delete(ctx context.Context, token string) error
}
