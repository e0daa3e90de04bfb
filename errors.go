package palisade

import "errors"

var (
	// ErrAccessDenied is returned by Enforce when a check is denied.
	ErrAccessDenied = errors.New("palisade: access denied")

	// ErrBlockNotFound is returned when a block cannot be found.
	ErrBlockNotFound = errors.New("palisade: block not found")

	// ErrBlockExists is returned when creating a block whose id is taken.
	ErrBlockExists = errors.New("palisade: block already exists")

	// ErrGrantNotFound is returned when a direct grant cannot be found.
	ErrGrantNotFound = errors.New("palisade: grant not found")

	// ErrInvalidGrant is returned when a grant carries a malformed layer id
	// or unknown action. The engine never surfaces it from Check (malformed
	// input denies) but grant writes validate eagerly.
	ErrInvalidGrant = errors.New("palisade: invalid grant")

	// ErrStoreUnavailable wraps transport-level store failures. The core
	// surfaces it without retrying; retry policy belongs to the storage
	// client.
	ErrStoreUnavailable = errors.New("palisade: store unavailable")

	// ErrRelationMembers is returned by domain managers when a delete is
	// refused because the entity still has relation members. The store
	// itself deletes regardless; this guard lives above it.
	ErrRelationMembers = errors.New("palisade: relation members still present")
)
