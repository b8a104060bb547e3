package timemap

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLinkIndexEmpty(t *testing.T) {
	l := NewLinkIndex("http://example.com/", "tm")
	if _, err := l.String(); !errors.Is(err, ErrEmptyTimemap) {
		t.Errorf("String() error = %v, want ErrEmptyTimemap", err)
	}
}

func TestLinkIndexRender(t *testing.T) {
	l := NewLinkIndex("http://example.com/", "http://archive.test/timemap/link/http://example.com/")
	l.AddItem("http://archive.test/timemap/page/2/http://example.com/", month(time.April), month(time.June))
	l.AddItem("http://archive.test/timemap/page/1/http://example.com/", month(time.January), month(time.March))

	min, _ := l.MinimumDatetime()
	max, _ := l.MaximumDatetime()
	if !min.Equal(month(time.January)) || !max.Equal(month(time.June)) {
		t.Errorf("bounds = [%s, %s], want [Jan, Jun]", min, max)
	}

	got, err := l.String()
	if err != nil {
		t.Fatalf("String() error = %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), got)
	}
	if !strings.Contains(lines[1], `from="Wed, 15 Jan 2020 08:00:00 GMT"; until="Mon, 15 Jun 2020 08:00:00 GMT"`) {
		t.Errorf("self line has wrong range: %s", lines[1])
	}
	expected := `<http://archive.test/timemap/page/2/http://example.com/>; rel="timemap"; type="application/link-format"; from="Wed, 15 Apr 2020 08:00:00 GMT"; until="Mon, 15 Jun 2020 08:00:00 GMT",`
	if lines[2] != expected {
		t.Errorf("line 3 = %s\nwant %s", lines[2], expected)
	}
	if strings.HasSuffix(lines[3], ",") {
		t.Errorf("last line must not end with a comma: %s", lines[3])
	}
}
