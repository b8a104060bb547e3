package manifest

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrSnakeDoc/memento/internal/domain"
)

// ErrEmptyManifest is returned when a manifest holds no usable memento.
var ErrEmptyManifest = errors.New("no valid memento found in manifest")

// Skipped describes a manifest entry the mapper ignored.
type Skipped struct {
	Original string
	Location string
	Reason   string
}

// Mapper converts a Manifest to domain.Memento values
type Mapper struct{}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapMementos flattens the manifest. Entries without a location or with an
// unreadable datetime are skipped and reported; original URLs are
// normalized the same way TimeGate requests are.
func (m *Mapper) MapMementos(manifest Manifest) ([]domain.Memento, []Skipped, error) {
	var (
		mementos []domain.Memento
		skipped  []Skipped
	)

	for _, original := range manifest.Originals {
		urir := strings.TrimSpace(original.URL)
		if urir == "" {
			for _, e := range original.Mementos {
				skipped = append(skipped, Skipped{Location: e.Location, Reason: "missing original url"})
			}
			continue
		}
		urir = domain.NormalizeURL(urir)

		for _, e := range original.Mementos {
			location := strings.TrimSpace(e.Location)
			if location == "" {
				skipped = append(skipped, Skipped{Original: urir, Reason: "missing location"})
				continue
			}

			dt, err := parseDatetime(e.Datetime)
			if err != nil {
				skipped = append(skipped, Skipped{Original: urir, Location: location, Reason: err.Error()})
				continue
			}

			mementos = append(mementos, domain.Memento{
				ID:       strings.TrimSpace(e.ID),
				URIR:     urir,
				URIM:     location,
				Datetime: dt,
			}.Identify())
		}
	}

	if len(mementos) == 0 {
		return nil, skipped, ErrEmptyManifest
	}
	return mementos, skipped, nil
}

func parseDatetime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("missing datetime")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	return domain.ParseAcceptDatetime(value)
}
