package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped)
// so services can translate them into coded domain errors.
//
// They describe the state of a row, not the validity of a request:
// - ErrNotFound: row does not exist
// - ErrAlreadyUsed: a unique key (case number, association pair) is taken
// - ErrInUse: a restrict rule blocks the delete (a tag still linked to a case)
// - ErrInvalidState: row is in the wrong state for the operation (already tombstoned)
// - ErrUnavailable: backend temporarily unavailable
//
// For validation failures use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInUse        = errors.New("in use")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
