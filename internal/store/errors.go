package store

import "errors"

// Sentinel errors for store operations. Check with errors.Is().
var (
	// ErrNotFound indicates the requested session does not exist.
	ErrNotFound = errors.New("session not found")

	// ErrStorage indicates a persistence write failed. The mutation was not
	// applied; the previous document remains intact.
	ErrStorage = errors.New("storage write failed")

	// ErrInvalidRole indicates a message role outside {user, assistant}.
	ErrInvalidRole = errors.New("invalid message role")

	// ErrEmptyContent indicates an attempt to append an empty message.
	ErrEmptyContent = errors.New("empty message content")
)
