package index

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/MrSnakeDoc/memento/internal/domain"
)

// MemoryIndex keeps every timeline in memory, sorted by datetime then ID.
// It is the default archive backend and the one used in tests.
type MemoryIndex struct {
	mu        sync.RWMutex
	timelines map[string][]domain.Memento // URI-R -> mementos, ascending
	byID      map[string]domain.Memento   // ID -> Memento
}

// NewMemoryIndex creates a new memory index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		timelines: make(map[string][]domain.Memento),
		byID:      make(map[string]domain.Memento),
	}
}

// Save inserts or replaces mementos, keeping each timeline sorted.
func (idx *MemoryIndex) Save(_ context.Context, mementos ...domain.Memento) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	touched := make(map[string]bool)
	for _, m := range mementos {
		m = m.Identify()
		if old, ok := idx.byID[m.ID]; ok {
			idx.removeLocked(old)
			touched[old.URIR] = true
		}
		idx.byID[m.ID] = m
		idx.timelines[m.URIR] = append(idx.timelines[m.URIR], m)
		touched[m.URIR] = true
	}
	for urir := range touched {
		sortTimeline(idx.timelines[urir])
	}
	return nil
}

func (idx *MemoryIndex) removeLocked(m domain.Memento) {
	tl := idx.timelines[m.URIR]
	for i := range tl {
		if tl[i].ID == m.ID {
			idx.timelines[m.URIR] = append(tl[:i:i], tl[i+1:]...)
			break
		}
	}
	if len(idx.timelines[m.URIR]) == 0 {
		delete(idx.timelines, m.URIR)
	}
}

// LatestBefore returns the latest memento of urir captured at or before t.
func (idx *MemoryIndex) LatestBefore(_ context.Context, urir string, t time.Time) (domain.Record, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	tl := idx.timelines[urir]
	// first memento strictly after t
	i := sort.Search(len(tl), func(i int) bool { return tl[i].Datetime.After(t) })
	if i == 0 {
		return nil, domain.ErrNoVersionFound
	}
	return tl[i-1], nil
}

// EarliestAfter returns the earliest memento of urir captured at or after t.
func (idx *MemoryIndex) EarliestAfter(_ context.Context, urir string, t time.Time) (domain.Record, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	tl := idx.timelines[urir]
	i := sort.Search(len(tl), func(i int) bool { return !tl[i].Datetime.Before(t) })
	if i == len(tl) {
		return nil, domain.ErrNoVersionFound
	}
	return tl[i], nil
}

// MostRecent returns the latest memento of urir.
func (idx *MemoryIndex) MostRecent(_ context.Context, urir string) (domain.Record, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	tl := idx.timelines[urir]
	if len(tl) == 0 {
		return nil, domain.ErrNoVersionFound
	}
	return tl[len(tl)-1], nil
}

// Timeline returns a copy of a slice of the timeline of urir.
func (idx *MemoryIndex) Timeline(_ context.Context, urir string, offset, limit int) ([]domain.Memento, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	tl := idx.timelines[urir]
	if offset < 0 {
		offset = 0
	}
	if offset >= len(tl) {
		return []domain.Memento{}, nil
	}
	end := len(tl)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return append([]domain.Memento(nil), tl[offset:end]...), nil
}

// Count returns the number of mementos of urir.
func (idx *MemoryIndex) Count(_ context.Context, urir string) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.timelines[urir]), nil
}

// Get retrieves a memento by ID
func (idx *MemoryIndex) Get(_ context.Context, id string) (domain.Memento, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	m, ok := idx.byID[id]
	if !ok {
		return domain.Memento{}, fmt.Errorf("memento %s: %w", id, domain.ErrNoVersionFound)
	}
	return m, nil
}

// Originals returns the number of distinct original URLs.
func (idx *MemoryIndex) Originals(_ context.Context) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.timelines), nil
}

// Close is a no-op.
func (idx *MemoryIndex) Close() error { return nil }

func sortTimeline(tl []domain.Memento) {
	sort.Slice(tl, func(i, j int) bool {
		if !tl[i].Datetime.Equal(tl[j].Datetime) {
			return tl[i].Datetime.Before(tl[j].Datetime)
		}
		return tl[i].ID < tl[j].ID
	})
}
