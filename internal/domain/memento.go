package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Record is one archived capture of an original resource.
//
// Integrations backed by their own types implement Record through a small
// adapter; the negotiator and the TimeMap handlers never inspect fields.
type Record interface {
	// OriginalURL is the URI-R of the live resource. Many records share it.
	OriginalURL() string
	// CapturedAt is the Memento-Datetime, the sole ordering and distance key.
	CapturedAt() time.Time
	// Location is the URI-M, either absolute or relative to this site.
	Location() string
}

// Memento is the canonical Record persisted by every store backend.
type Memento struct {
	// ID identifies the memento inside a store.
	// Derived from URIR, Datetime and URIM when left empty (see Identify).
	ID string `json:"id" yaml:"id,omitempty"`

	// URIR is the original resource URL.
	URIR string `json:"original_url" yaml:"original"`

	// URIM is the address of this archived version.
	URIM string `json:"location" yaml:"location"`

	// Datetime is the moment of archival. Stores keep it in UTC at second
	// precision, the resolution of an HTTP-date.
	Datetime time.Time `json:"captured_at" yaml:"datetime"`
}

func (m Memento) OriginalURL() string   { return m.URIR }
func (m Memento) CapturedAt() time.Time { return m.Datetime }
func (m Memento) Location() string      { return m.URIM }

// Identify returns a copy of m with a UTC, second precision datetime and a
// non-empty ID.
func (m Memento) Identify() Memento {
	m.Datetime = m.Datetime.UTC().Truncate(time.Second)
	if m.ID == "" {
		m.ID = MementoID(m.URIR, m.Datetime, m.URIM)
	}
	return m
}

// MementoID hashes the identifying triple of a memento.
func MementoID(urir string, datetime time.Time, urim string) string {
	payload := strings.Join([]string{
		urir,
		datetime.UTC().Format(time.RFC3339Nano),
		urim,
	}, "\n")
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:16])
}

// RecordOriginalURL is the default original-URL hook for Decorator.
func RecordOriginalURL(rec Record) (string, error) {
	return rec.OriginalURL(), nil
}
