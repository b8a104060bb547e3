package domain

import (
	"context"
	"time"
)

// VersionStore answers the three ordered queries the negotiator needs.
// Implementations return ErrNoVersionFound (possibly wrapped) when the
// query matches nothing.
type VersionStore interface {
	// LatestBefore returns the record with the latest datetime <= t.
	LatestBefore(ctx context.Context, urir string, t time.Time) (Record, error)
	// EarliestAfter returns the record with the earliest datetime >= t.
	EarliestAfter(ctx context.Context, urir string, t time.Time) (Record, error)
	// MostRecent returns the record with the latest datetime.
	MostRecent(ctx context.Context, urir string) (Record, error)
}

// Archive is a VersionStore that also serves TimeMaps and ingestion.
type Archive interface {
	VersionStore

	// Timeline returns mementos for urir in ascending datetime order,
	// skipping offset records. limit <= 0 means no limit.
	Timeline(ctx context.Context, urir string, offset, limit int) ([]Memento, error)
	// Count returns the number of mementos stored for urir.
	Count(ctx context.Context, urir string) (int, error)
	// Get returns a single memento by ID.
	Get(ctx context.Context, id string) (Memento, error)
	// Save inserts or replaces mementos.
	Save(ctx context.Context, mementos ...Memento) error
	// Originals returns the number of distinct original URLs.
	Originals(ctx context.Context) (int, error)
	// Close releases the backend.
	Close() error
}
