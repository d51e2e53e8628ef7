// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as handlers
// to distinguish between different failure scenarios without string
// matching: a zero-row optimistic update is not the same failure as a broken
// database.
package repository

import "errors"

// ErrNotFoundOrStale is returned when an update matched zero rows: the row
// either does not exist or was concurrently modified since the caller read
// it (the updated_on token no longer matches).  The two cases are not
// distinguished.
var ErrNotFoundOrStale = errors.New("not found or concurrently modified")

// ErrUserExists is returned when creating a user whose username is taken.
var ErrUserExists = errors.New("username already exists")

// ErrNoTimeSlot is returned when a booking request resolves to zero time
// slots after splitting and trimming.
var ErrNoTimeSlot = errors.New("no time slot supplied")

// ErrInvalidMonth is returned when a month argument does not parse as
// "YYYY-MM".  Handlers report it as a validation failure, not a server
// error.
var ErrInvalidMonth = errors.New("invalid month")
