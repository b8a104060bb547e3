package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/memento/internal/domain"
)

// Store is a domain.Archive backed by Redis sorted sets.
//
// Each original URL owns a sorted set of memento IDs scored by their unix
// datetime; equal scores are ordered lexicographically by ID.
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// Save stores mementos and indexes them in their timeline
func (s *Store) Save(ctx context.Context, mementos ...domain.Memento) error {
	if len(mementos) == 0 {
		return nil
	}

	var moved []string
	pipe := s.client.TxPipeline()

	for _, m := range mementos {
		m = m.Identify()

		old, err := s.Get(ctx, m.ID)
		switch {
		case err == nil && old.URIR != m.URIR:
			pipe.ZRem(ctx, TimelineKey(old.URIR), m.ID)
			moved = append(moved, old.URIR)
		case err != nil && !errors.Is(err, domain.ErrNoVersionFound):
			return err
		}

		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to marshal memento %s: %w", m.ID, err)
		}

		pipe.Set(ctx, RecordKey(m.ID), data, 0)
		pipe.ZAdd(ctx, TimelineKey(m.URIR), redis.Z{Score: float64(m.Datetime.Unix()), Member: m.ID})
		pipe.SAdd(ctx, OriginalsKey(), m.URIR)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save mementos: %w", err)
	}

	for _, urir := range moved {
		if err := s.dropEmptyTimeline(ctx, urir); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) dropEmptyTimeline(ctx context.Context, urir string) error {
	n, err := s.client.ZCard(ctx, TimelineKey(urir)).Result()
	if err != nil {
		return fmt.Errorf("failed to count timeline: %w", err)
	}
	if n > 0 {
		return nil
	}
	if err := s.client.SRem(ctx, OriginalsKey(), urir).Err(); err != nil {
		return fmt.Errorf("failed to remove original: %w", err)
	}
	return nil
}

// Get retrieves a memento from Redis by ID
func (s *Store) Get(ctx context.Context, id string) (domain.Memento, error) {
	data, err := s.client.Get(ctx, RecordKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Memento{}, fmt.Errorf("memento %s: %w", id, domain.ErrNoVersionFound)
		}
		return domain.Memento{}, fmt.Errorf("failed to get memento: %w", err)
	}

	var m domain.Memento
	if err := json.Unmarshal(data, &m); err != nil {
		return domain.Memento{}, fmt.Errorf("failed to unmarshal memento: %w", err)
	}
	return m, nil
}

// LatestBefore returns the latest memento of urir captured at or before t
func (s *Store) LatestBefore(ctx context.Context, urir string, t time.Time) (domain.Record, error) {
	ids, err := s.client.ZRevRangeByScore(ctx, TimelineKey(urir), &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(t.Unix(), 10),
		Count: 1,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query timeline: %w", err)
	}
	return s.first(ctx, ids)
}

// EarliestAfter returns the earliest memento of urir captured at or after t
func (s *Store) EarliestAfter(ctx context.Context, urir string, t time.Time) (domain.Record, error) {
	from := t.Unix()
	if t.Nanosecond() > 0 {
		// scores are whole seconds
		from++
	}
	ids, err := s.client.ZRangeByScore(ctx, TimelineKey(urir), &redis.ZRangeBy{
		Min:   strconv.FormatInt(from, 10),
		Max:   "+inf",
		Count: 1,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query timeline: %w", err)
	}
	return s.first(ctx, ids)
}

// MostRecent returns the latest memento of urir
func (s *Store) MostRecent(ctx context.Context, urir string) (domain.Record, error) {
	ids, err := s.client.ZRevRange(ctx, TimelineKey(urir), 0, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query timeline: %w", err)
	}
	return s.first(ctx, ids)
}

func (s *Store) first(ctx context.Context, ids []string) (domain.Record, error) {
	if len(ids) == 0 {
		return nil, domain.ErrNoVersionFound
	}
	m, err := s.Get(ctx, ids[0])
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Timeline returns mementos of urir in ascending order
func (s *Store) Timeline(ctx context.Context, urir string, offset, limit int) ([]domain.Memento, error) {
	if offset < 0 {
		offset = 0
	}
	stop := int64(-1)
	if limit > 0 {
		stop = int64(offset + limit - 1)
	}

	ids, err := s.client.ZRange(ctx, TimelineKey(urir), int64(offset), stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query timeline: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Memento{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = RecordKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get mementos: %w", err)
	}

	mementos := make([]domain.Memento, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Skip records deleted since the range query
			continue
		}
		var m domain.Memento
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal memento: %w", err)
		}
		mementos = append(mementos, m)
	}
	return mementos, nil
}

// Count returns the number of mementos of urir
func (s *Store) Count(ctx context.Context, urir string) (int, error) {
	n, err := s.client.ZCard(ctx, TimelineKey(urir)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count timeline: %w", err)
	}
	return int(n), nil
}

// Originals returns the number of distinct original URLs
func (s *Store) Originals(ctx context.Context) (int, error) {
	n, err := s.client.SCard(ctx, OriginalsKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count originals: %w", err)
	}
	return int(n), nil
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client
func (s *Store) Close() error {
	return s.client.Close()
}
