package core

import "errors"

var (
	// ErrNotFound is returned when a stored object does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidKey is returned for object keys a store cannot hold.
	ErrInvalidKey = errors.New("invalid object key")
	// ErrNotSent is returned when the queue accepted a send without returning a message ID.
	ErrNotSent = errors.New("message not sent")
	// ErrDrainIncomplete is returned when a drain stops at its batch limit while the
	// queue was still returning messages.
	ErrDrainIncomplete = errors.New("drain stopped before queue was empty")
)
