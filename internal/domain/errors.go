package domain

import "errors"

var (
	// ErrDuplicateNaturalKey is returned when two dimension rows carry the same natural key
	ErrDuplicateNaturalKey = errors.New("duplicate natural key")

	// ErrUnresolvedReference is returned when a fact row references a surrogate
	// key that no dimension row carries
	ErrUnresolvedReference = errors.New("unresolved dimension reference")

	// ErrMissingEventID is returned when a staging event has no event identifier
	ErrMissingEventID = errors.New("missing event id")

	// ErrBadEventTime is returned when a staging event timestamp cannot be parsed
	ErrBadEventTime = errors.New("unparsable event timestamp")

	// ErrSchemaConflict is returned when a declared change cannot be applied to
	// the remote warehouse in place
	ErrSchemaConflict = errors.New("conflicting schema change")

	// ErrProtected is returned when an apply would destroy a protected object
	ErrProtected = errors.New("object is delete protected")
)
