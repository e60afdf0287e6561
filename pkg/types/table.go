package types

import "errors"

// Table provides uniform CRUD operations for a single record type.
// Get and Fetch return any; callers type-assert to *ClipRecord or *RefRecord.
type Table interface {
	// Get retrieves the record with the given ID.
	// Returns ErrNotFound if no record exists with that ID.
	Get(id string) (any, error)

	// Set creates or updates a record. When id is empty a new UUID v7 is
	// generated (clips) or the ref key is used (refs). Returns the ID used.
	Set(id string, data any) (string, error)

	// Delete removes the record with the given ID.
	// Returns ErrNotFound if no record exists with that ID.
	Delete(id string) error

	// Fetch returns all records matching the filter. An empty filter
	// returns every record in the table.
	Fetch(filter map[string]any) ([]any, error)
}

// Table operation errors.
var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidID     = errors.New("invalid record ID")
	ErrInvalidData   = errors.New("invalid record data")
	ErrInvalidFilter = errors.New("invalid filter value type")
	ErrInvalidName   = errors.New("invalid name")
)

// Animation errors. Lookup misses (deleting or querying a time with no
// keyframe, pasting onto a missing ref) are not errors and have no value here.
var (
	ErrNotEnoughKeyframes    = errors.New("not enough keyframes")
	ErrInvalidCurveType      = errors.New("invalid curve type")
	ErrInvalidLength         = errors.New("animation length must be positive")
	ErrChannelMismatch       = errors.New("rotation channels do not share keyframe times")
	ErrSnapshotMismatch      = errors.New("snapshot shape does not match target")
	ErrUnbalancedBulkUpdates = errors.New("EndBulkUpdates called without matching StartBulkUpdates")
	ErrTargetDisposed        = errors.New("target is disposed")
	ErrTargetNotFound        = errors.New("target not found")
	ErrRefNotFound           = errors.New("ref not registered")
	ErrRefInUse              = errors.New("ref still has live targets")
	ErrInvalidRefKind        = errors.New("invalid ref kind")
)
