package timemap

import (
	"bufio"
	"io"
	"time"

	"github.com/MrSnakeDoc/memento/internal/domain"
)

// IndexItem is one TimeMap fragment of a link index.
type IndexItem struct {
	Link            string
	MinimumDatetime time.Time
	MaximumDatetime time.Time
}

// LinkIndex is a TimeMap pointing at the fragments of a paginated history.
type LinkIndex struct {
	header
	items []IndexItem
}

// NewLinkIndex creates an empty link index for originalURL served at timemapURL.
func NewLinkIndex(originalURL, timemapURL string) *LinkIndex {
	return &LinkIndex{header: header{OriginalURL: originalURL, TimeMapURL: timemapURL}}
}

// WithTimeGate sets the optional TimeGate line and returns l.
func (l *LinkIndex) WithTimeGate(timegateURL string) *LinkIndex {
	l.TimeGateURL = timegateURL
	return l
}

// AddItem appends a fragment covering [minimum, maximum].
func (l *LinkIndex) AddItem(link string, minimum, maximum time.Time) {
	l.items = append(l.items, IndexItem{Link: link, MinimumDatetime: minimum, MaximumDatetime: maximum})
}

// MinimumDatetime returns the earliest fragment start.
func (l *LinkIndex) MinimumDatetime() (time.Time, error) {
	if len(l.items) == 0 {
		return time.Time{}, ErrEmptyTimemap
	}
	earliest := l.items[0].MinimumDatetime
	for _, it := range l.items[1:] {
		if it.MinimumDatetime.Before(earliest) {
			earliest = it.MinimumDatetime
		}
	}
	return earliest, nil
}

// MaximumDatetime returns the latest fragment end.
func (l *LinkIndex) MaximumDatetime() (time.Time, error) {
	if len(l.items) == 0 {
		return time.Time{}, ErrEmptyTimemap
	}
	latest := l.items[0].MaximumDatetime
	for _, it := range l.items[1:] {
		if it.MaximumDatetime.After(latest) {
			latest = it.MaximumDatetime
		}
	}
	return latest, nil
}

// Write renders the document to w. Nothing is written for an empty index.
func (l *LinkIndex) Write(w io.Writer) error {
	from, err := l.MinimumDatetime()
	if err != nil {
		return err
	}
	until, err := l.MaximumDatetime()
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	l.header.write(bw, from, until)
	for i, it := range l.items {
		bw.WriteString("<" + IRIToURI(it.Link) + `>; rel="timemap"; type="` + domain.LinkFormat +
			`"; from="` + httpDate(it.MinimumDatetime) + `"; until="` + httpDate(it.MaximumDatetime) + `"`)
		bw.WriteString(separator(i, len(l.items)))
	}
	return bw.Flush()
}

// String renders the document.
func (l *LinkIndex) String() (string, error) {
	return render(l.Write)
}
