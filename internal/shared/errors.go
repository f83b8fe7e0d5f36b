package shared

import "errors"

var (
	// ErrNotFound is returned by stores when no bank matches.
	ErrNotFound = errors.New("not found")
	// ErrSessionMissing means the request never passed the session middleware.
	ErrSessionMissing = errors.New("session missing")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when the token is forged or belongs to another session.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
