// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrNotFound maps to an HTTP 404 while ErrAlreadyFavorite
// maps to a 409.  Unlisted errors are treated as server faults and
// surfaced as a generic 500 without leaking the underlying message.
package repository

import "errors"

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when registering or updating a user
// with an email that another account already uses.  Detection
// relies on the unique key on users.email rather than a prior
// SELECT, so concurrent registrations cannot both succeed.
var ErrEmailExists = errors.New("email already exists")

// ErrAlreadyFavorite is returned when a (user, plant) favorite pair
// already exists.  Handlers translate this into an HTTP 409.
var ErrAlreadyFavorite = errors.New("plant already in favorites")

// ErrNotFavorite is returned when removing a favorite pair that is
// absent.  Handlers translate this into an HTTP 404.
var ErrNotFavorite = errors.New("plant not in favorites")
