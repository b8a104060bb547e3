package timemap

import (
	"bufio"
	"io"
	"time"
)

// ListItem is one memento line of a link list.
type ListItem struct {
	Link     string
	Datetime time.Time
	First    bool
	Last     bool
}

func (it ListItem) rel() string {
	rel := "memento"
	if it.Last {
		rel = "last " + rel
	}
	if it.First {
		rel = "first " + rel
	}
	return rel
}

// LinkList is a TimeMap listing every memento of an original resource.
//
// Items are rendered in the order they were added. First and Last are caller
// metadata and are not inferred from the datetimes.
type LinkList struct {
	header
	items []ListItem
}

// NewLinkList creates an empty link list for originalURL served at timemapURL.
func NewLinkList(originalURL, timemapURL string) *LinkList {
	return &LinkList{header: header{OriginalURL: originalURL, TimeMapURL: timemapURL}}
}

// WithTimeGate sets the optional TimeGate line and returns l.
func (l *LinkList) WithTimeGate(timegateURL string) *LinkList {
	l.TimeGateURL = timegateURL
	return l
}

// AddItem appends a memento line.
func (l *LinkList) AddItem(link string, datetime time.Time, first, last bool) {
	l.items = append(l.items, ListItem{Link: link, Datetime: datetime, First: first, Last: last})
}

// MinimumDatetime returns the earliest item datetime.
func (l *LinkList) MinimumDatetime() (time.Time, error) {
	if len(l.items) == 0 {
		return time.Time{}, ErrEmptyTimemap
	}
	earliest := l.items[0].Datetime
	for _, it := range l.items[1:] {
		if it.Datetime.Before(earliest) {
			earliest = it.Datetime
		}
	}
	return earliest, nil
}

// MaximumDatetime returns the latest item datetime.
func (l *LinkList) MaximumDatetime() (time.Time, error) {
	if len(l.items) == 0 {
		return time.Time{}, ErrEmptyTimemap
	}
	latest := l.items[0].Datetime
	for _, it := range l.items[1:] {
		if it.Datetime.After(latest) {
			latest = it.Datetime
		}
	}
	return latest, nil
}

// Write renders the document to w. Nothing is written for an empty list.
func (l *LinkList) Write(w io.Writer) error {
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
		bw.WriteString("<" + IRIToURI(it.Link) + `>; rel="` + it.rel() + `"; datetime="` + httpDate(it.Datetime) + `"`)
		bw.WriteString(separator(i, len(l.items)))
	}
	return bw.Flush()
}

// String renders the document.
func (l *LinkList) String() (string, error) {
	return render(l.Write)
}
