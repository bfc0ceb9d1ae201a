package store

import "errors"

var (
	ErrNotFound = errors.New("class package not found")

	// ErrSlotOverlap is reported when the database rejects a slot that
	// overlaps another slot of the same package.
	ErrSlotOverlap = errors.New("schedule slot overlaps an existing slot")

	// ErrIdempotencyConflict is reported when a create request reuses an
	// idempotency key with a different package definition.
	ErrIdempotencyConflict = errors.New("idempotency key already used for a different package")
)
