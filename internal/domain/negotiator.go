package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Negotiator selects the memento closest to a requested datetime.
// It holds no state besides its store and is safe for concurrent use.
type Negotiator struct {
	store VersionStore
}

// NewNegotiator returns ErrMisconfiguredVersionStore when store is nil.
func NewNegotiator(store VersionStore) (*Negotiator, error) {
	if store == nil {
		return nil, ErrMisconfiguredVersionStore
	}
	return &Negotiator{store: store}, nil
}

// Negotiate returns the memento of req.URL closest to req.AcceptDatetime,
// or the most recent one when no datetime was requested.
func (n *Negotiator) Negotiate(ctx context.Context, req Request) (Record, error) {
	if req.URL == "" {
		return nil, ErrMissingRequestedURL
	}
	if req.AcceptDatetime == nil {
		return n.mostRecent(ctx, req.URL)
	}
	return n.closest(ctx, req.URL, *req.AcceptDatetime)
}

func (n *Negotiator) mostRecent(ctx context.Context, urir string) (Record, error) {
	rec, err := n.store.MostRecent(ctx, urir)
	if err != nil {
		return nil, fmt.Errorf("most recent memento of %s: %w", urir, err)
	}
	return rec, nil
}

func (n *Negotiator) closest(ctx context.Context, urir string, target time.Time) (Record, error) {
	before, err := n.store.LatestBefore(ctx, urir, target)
	if err != nil {
		return nil, fmt.Errorf("memento of %s before %s: %w", urir, HTTPDate(target), err)
	}

	after, err := n.store.EarliestAfter(ctx, urir, target)
	if errors.Is(err, ErrNoVersionFound) {
		return before, nil
	}
	if err != nil {
		return nil, fmt.Errorf("memento of %s after %s: %w", urir, HTTPDate(target), err)
	}

	return Closest(before, after, target), nil
}

// Closest picks between the two neighbours of target. before wins ties.
func Closest(before, after Record, target time.Time) Record {
	if after == nil {
		return before
	}
	if before == nil {
		return after
	}
	if distance(target, before.CapturedAt()) <= distance(target, after.CapturedAt()) {
		return before
	}
	return after
}

func distance(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}
