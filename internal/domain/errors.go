package domain

import "errors"

// Sentinel errors for graph operations.
var (
	// ErrInvalidArgument is returned when a required owner is missing or
	// unknown, or a value does not match its declared type.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidOperation is returned when an operation is not valid in the
	// current session state, such as starting a second connection.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrNotFound is returned by lookups that must report absence as an error.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicateID is returned when registering an ID already in use for
	// the same entity kind.
	ErrDuplicateID = errors.New("duplicate entity ID")

	// ErrCorruptDocument is returned when a persisted document cannot be
	// loaded. The load is rolled back before this is returned.
	ErrCorruptDocument = errors.New("corrupt document")
)
