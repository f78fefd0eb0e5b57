// Package usecase はauthフィーチャーのビジネスロジックを実装します。
package usecase

import "errors"

var (
	// ErrAuthenticationFailed is returned on bad credentials. The message is
	// deliberately generic; which factor failed is never revealed.
	ErrAuthenticationFailed = errors.New("invalid username or password")

	// ErrUserNotFound is returned when a user cannot be found by username or ID.
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken is returned when registering a username that already exists.
	ErrUsernameTaken = errors.New("username already exists")

	// ErrSessionNotFound is returned when a token has no record in the session store.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionSuperseded marks a session whose durable token no longer
	// matches: the user logged in elsewhere. Recovered by forced logout.
	ErrSessionSuperseded = errors.New("session superseded by a newer login")

	// ErrSessionInvalidated marks a session that was explicitly invalidated
	// or whose owner no longer exists. Recovered by redirecting to login.
	ErrSessionInvalidated = errors.New("session has been invalidated")

	// ErrPersistenceWrite marks a durable-store failure while updating the
	// active session token. Fail-open by default: logged, request proceeds.
	ErrPersistenceWrite = errors.New("failed to persist active session token")
)
