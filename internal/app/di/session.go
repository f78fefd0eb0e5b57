// Package di provides dependency injection factories for creating application components.
package di

import (
	authadapters "portal_backend/internal/feature/auth/adapters"
	"portal_backend/internal/feature/auth/usecase"
	"portal_backend/internal/platform/session"

	"github.com/redis/go-redis/v9"
)

// NewSessionStore creates a SessionStore implementation.
// If Redis is available, it returns a Redis-backed implementation.
// Otherwise, it falls back to an in-process store.
func NewSessionStore(rdb *redis.Client, keyPrefix string) usecase.SessionStore {
	if rdb != nil {
		return session.NewSessionRedis(rdb, keyPrefix)
	}
	return authadapters.NewSessionMemory()
}
