// Package storage persists an append-only history of observations and
// change events. The history is an audit log: change detection never reads
// it back, so runtime state stays in process memory.
package storage

import (
	"context"
	"time"
)

// Store is the observation history interface.
type Store interface {
	RecordObservation(ctx context.Context, o *Observation) error
	RecordChange(ctx context.Context, c *Change) error
	LatestObservation(ctx context.Context, target string) (*Observation, error)
	ListChanges(ctx context.Context, target string, limit int) ([]*Change, error)
	Close() error
}

// Observation is one successful extraction for a target.
type Observation struct {
	ID        int64
	Target    string
	Value     string
	Changed   bool
	CreatedAt time.Time
}

// Change is one detected transition between observed values.
type Change struct {
	ID        int64
	Target    string
	OldValue  *string
	NewValue  string
	Diff      string
	CreatedAt time.Time
}
