package entity

import "time"

// SessionRecord is the ephemeral in-memory state of one login.
// Records live in the session store, keyed by token; they are lost on
// process restart, while User.ActiveSessionID survives. A record superseded
// by a newer login is flagged Valid=false rather than removed, so a pending
// request holding the old token can still observe the eviction.
type SessionRecord struct {
	// Token is the session token, unique per login.
	Token string

	// UserID is the owning user.
	UserID uint

	// RoleLevel and RoleDetail are a cached authorization snapshot,
	// refreshed on every reconciliation pass.
	RoleLevel  int
	RoleDetail string

	// LastActivity and LastSeenURL are updated on every successful pass.
	LastActivity time.Time
	LastSeenURL  string

	// Valid is cleared when the session is superseded by a newer login or
	// explicitly invalidated.
	Valid bool
}

// Clone returns a copy of the record so callers cannot mutate store state.
func (r *SessionRecord) Clone() *SessionRecord {
	c := *r
	return &c
}
