package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/MrSnakeDoc/memento/internal/domain"
)

const (
	// timelinesBucket holds one sub-bucket per original URL. Keys are
	// timelineKey(datetime, id) so a cursor walks a timeline in order.
	timelinesBucket = "timelines"
	// idsBucket maps a memento ID to its JSON record.
	idsBucket = "ids"
)

// Store is a domain.Archive persisted in a single BoltDB file.
type Store struct {
	db   *bolt.DB
	once sync.Once
}

// Open opens (or creates) the archive at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("bolt path is required")
	}

	cleaned := filepath.Clean(path)
	if dir := filepath.Dir(cleaned); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := bolt.Open(cleaned, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", cleaned, err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{timelinesBucket, idsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// timelineKey encodes the datetime as a sign-flipped big-endian second
// count followed by the ID, so byte order matches (datetime, id) order.
func timelineKey(datetime time.Time, id string) []byte {
	key := make([]byte, 8, 8+len(id))
	binary.BigEndian.PutUint64(key, secondsPrefix(datetime.Unix()))
	return append(key, id...)
}

func secondsPrefix(sec int64) uint64 {
	return uint64(sec) ^ (1 << 63)
}

func seekKey(sec int64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, secondsPrefix(sec))
	return key
}

func checkCtx(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// Save inserts or replaces mementos in one transaction.
func (s *Store) Save(ctx context.Context, mementos ...domain.Memento) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := checkCtx(ctx); err != nil {
			return err
		}

		timelines := tx.Bucket([]byte(timelinesBucket))
		ids := tx.Bucket([]byte(idsBucket))

		for _, m := range mementos {
			m = m.Identify()
			if m.URIR == "" {
				return fmt.Errorf("memento %s has no original url", m.ID)
			}

			if raw := ids.Get([]byte(m.ID)); raw != nil {
				if err := removeFromTimeline(timelines, raw); err != nil {
					return err
				}
			}

			data, err := json.Marshal(m)
			if err != nil {
				return fmt.Errorf("failed to marshal memento %s: %w", m.ID, err)
			}

			timeline, err := timelines.CreateBucketIfNotExists([]byte(m.URIR))
			if err != nil {
				return err
			}
			if err := timeline.Put(timelineKey(m.Datetime, m.ID), data); err != nil {
				return err
			}
			if err := ids.Put([]byte(m.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func removeFromTimeline(timelines *bolt.Bucket, raw []byte) error {
	var old domain.Memento
	if err := json.Unmarshal(raw, &old); err != nil {
		return fmt.Errorf("failed to unmarshal memento: %w", err)
	}

	timeline := timelines.Bucket([]byte(old.URIR))
	if timeline == nil {
		return nil
	}
	if err := timeline.Delete(timelineKey(old.Datetime, old.ID)); err != nil {
		return err
	}
	if k, _ := timeline.Cursor().First(); k == nil {
		return timelines.DeleteBucket([]byte(old.URIR))
	}
	return nil
}

// Get returns a memento by ID
func (s *Store) Get(ctx context.Context, id string) (domain.Memento, error) {
	var m domain.Memento
	err := s.db.View(func(tx *bolt.Tx) error {
		if err := checkCtx(ctx); err != nil {
			return err
		}
		raw := tx.Bucket([]byte(idsBucket)).Get([]byte(id))
		if raw == nil {
			return fmt.Errorf("memento %s: %w", id, domain.ErrNoVersionFound)
		}
		return json.Unmarshal(raw, &m)
	})
	return m, err
}

// seek runs fn with a cursor over the timeline of urir and decodes the
// value at the key fn returns.
func (s *Store) seek(ctx context.Context, urir string, fn func(c *bolt.Cursor) []byte) (domain.Record, error) {
	var m domain.Memento
	err := s.db.View(func(tx *bolt.Tx) error {
		if err := checkCtx(ctx); err != nil {
			return err
		}
		timeline := tx.Bucket([]byte(timelinesBucket)).Bucket([]byte(urir))
		if timeline == nil {
			return domain.ErrNoVersionFound
		}
		v := fn(timeline.Cursor())
		if v == nil {
			return domain.ErrNoVersionFound
		}
		return json.Unmarshal(v, &m)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// LatestBefore returns the latest memento of urir captured at or before t
func (s *Store) LatestBefore(ctx context.Context, urir string, t time.Time) (domain.Record, error) {
	return s.seek(ctx, urir, func(c *bolt.Cursor) []byte {
		k, _ := c.Seek(seekKey(t.Unix() + 1))
		var v []byte
		if k == nil {
			_, v = c.Last()
		} else {
			_, v = c.Prev()
		}
		return v
	})
}

// EarliestAfter returns the earliest memento of urir captured at or after t
func (s *Store) EarliestAfter(ctx context.Context, urir string, t time.Time) (domain.Record, error) {
	from := t.Unix()
	if t.Nanosecond() > 0 {
		from++
	}
	return s.seek(ctx, urir, func(c *bolt.Cursor) []byte {
		_, v := c.Seek(seekKey(from))
		return v
	})
}

// MostRecent returns the latest memento of urir
func (s *Store) MostRecent(ctx context.Context, urir string) (domain.Record, error) {
	return s.seek(ctx, urir, func(c *bolt.Cursor) []byte {
		_, v := c.Last()
		return v
	})
}

// Timeline returns mementos of urir in ascending order
func (s *Store) Timeline(ctx context.Context, urir string, offset, limit int) ([]domain.Memento, error) {
	mementos := []domain.Memento{}
	err := s.db.View(func(tx *bolt.Tx) error {
		if err := checkCtx(ctx); err != nil {
			return err
		}
		timeline := tx.Bucket([]byte(timelinesBucket)).Bucket([]byte(urir))
		if timeline == nil {
			return nil
		}

		c := timeline.Cursor()
		skipped := 0
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if skipped < offset {
				skipped++
				continue
			}
			if limit > 0 && len(mementos) >= limit {
				break
			}
			var m domain.Memento
			if err := json.Unmarshal(v, &m); err != nil {
				return fmt.Errorf("failed to unmarshal memento: %w", err)
			}
			mementos = append(mementos, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mementos, nil
}

// Count returns the number of mementos of urir
func (s *Store) Count(ctx context.Context, urir string) (int, error) {
	n := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		if err := checkCtx(ctx); err != nil {
			return err
		}
		timeline := tx.Bucket([]byte(timelinesBucket)).Bucket([]byte(urir))
		if timeline == nil {
			return nil
		}
		n = timeline.Stats().KeyN
		return nil
	})
	return n, err
}

// Originals returns the number of distinct original URLs
func (s *Store) Originals(ctx context.Context) (int, error) {
	n := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		if err := checkCtx(ctx); err != nil {
			return err
		}
		return tx.Bucket([]byte(timelinesBucket)).ForEach(func(_, v []byte) error {
			if v == nil {
				n++
			}
			return nil
		})
	})
	return n, err
}

// Close shuts down the Bolt DB.
func (s *Store) Close() error {
	var err error
	s.once.Do(func() {
		err = s.db.Close()
	})
	return err
}
