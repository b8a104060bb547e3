// Package timemap renders Memento TimeMaps in application/link-format.
//
// Two documents are supported: a link list, with one line per memento, and a
// link index, with one line per TimeMap fragment when a history is paginated.
package timemap

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/MrSnakeDoc/memento/internal/domain"
)

// MIMEType is the Content-Type of a rendered TimeMap.
const MIMEType = domain.LinkFormat + "; charset=utf-8"

// ErrEmptyTimemap is returned when rendering a document without items.
var ErrEmptyTimemap = errors.New("timemap has no items")

// header holds the fields shared by both documents.
type header struct {
	OriginalURL string
	TimeMapURL  string
	// TimeGateURL is optional; when set a timegate line follows the self line.
	TimeGateURL string
}

func (h header) write(w *bufio.Writer, from, until time.Time) {
	fmt.Fprintf(w, "<%s>; rel=\"original\",\n", IRIToURI(h.OriginalURL))
	fmt.Fprintf(w, "<%s>; rel=\"self\"; type=\"%s\"; from=\"%s\"; until=\"%s\",\n",
		IRIToURI(h.TimeMapURL), domain.LinkFormat, httpDate(from), httpDate(until))
	if h.TimeGateURL != "" {
		fmt.Fprintf(w, "<%s>; rel=\"timegate\",\n", IRIToURI(h.TimeGateURL))
	}
}

// separator ends item i of n: a comma on every line but the last.
func separator(i, n int) string {
	if i == n-1 {
		return "\n"
	}
	return ",\n"
}

func render(write func(io.Writer) error) (string, error) {
	var b strings.Builder
	if err := write(&b); err != nil {
		return "", err
	}
	return b.String(), nil
}

// IRIToURI percent-encodes the bytes of s that may not appear in a URI:
// non-ASCII, control characters, space and the link-format delimiters.
// Existing escapes are kept.
func IRIToURI(s string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c > 0x20 && c < 0x7f && !strings.ContainsRune("<>\"{}|\\^`", rune(c)) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func httpDate(t time.Time) string { return domain.HTTPDate(t) }
