package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"portal_backend/internal/feature/auth/domain/entity"
	"portal_backend/internal/feature/auth/usecase"
)

// SessionRedis implements usecase.SessionStore using Redis, for deployments
// where several server processes must share one session-record table.
// Keys carry no TTL: sessions die only by explicit invalidation, forced
// logout, or supersession by a newer login.
type SessionRedis struct {
	client *redis.Client
	prefix string
}

// Compile-time check to ensure SessionRedis implements SessionStore.
var _ usecase.SessionStore = (*SessionRedis)(nil)

// NewSessionRedis creates a new SessionRedis instance.
func NewSessionRedis(client *redis.Client, prefix string) *SessionRedis {
	return &SessionRedis{
		client: client,
		prefix: prefix,
	}
}

// sessionKey returns the Redis key for a session token.
func (r *SessionRedis) sessionKey(token string) string {
	return fmt.Sprintf("%s:%s", r.prefix, token)
}

// Get retrieves the record for a token.
func (r *SessionRedis) Get(ctx context.Context, token string) (*entity.SessionRecord, error) {
	data, err := r.client.Get(ctx, r.sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, usecase.ErrSessionNotFound
		}
		return nil, err
	}

	var rec entity.SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session record: %w", err)
	}
	return &rec, nil
}

// Put stores or replaces the record for rec.Token.
func (r *SessionRedis) Put(ctx context.Context, rec *entity.SessionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal session record: %w", err)
	}
	return r.client.Set(ctx, r.sessionKey(rec.Token), data, 0).Err()
}

// invalidateScript flips the Valid flag server-side in one step. A client-side
// get-then-put would let a concurrent Put for the same token land in between,
// and the flip would then write back a stale snapshot of the record.
var invalidateScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then
  return 0
end
local rec = cjson.decode(v)
rec['Valid'] = false
redis.call('SET', KEYS[1], cjson.encode(rec))
return 1
`)

// Invalidate flags the record for token as no longer valid, keeping it so a
// pending request holding the token observes the eviction. The flip is atomic
// with respect to concurrent Puts for the same token.
func (r *SessionRedis) Invalidate(ctx context.Context, token string) error {
	n, err := invalidateScript.Run(ctx, r.client, []string{r.sessionKey(token)}).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return usecase.ErrSessionNotFound
	}
	return nil
}

// Delete removes the record. Deleting an absent token is not an error.
func (r *SessionRedis) Delete(ctx context.Context, token string) error {
	return r.client.Del(ctx, r.sessionKey(token)).Err()
}
