package domain

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestPatchVary(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		want     string
	}{
		{"empty", nil, "accept-datetime"},
		{"keeps existing", []string{"Accept-Encoding"}, "Accept-Encoding, accept-datetime"},
		{"no duplicate", []string{"Accept-Encoding, Accept-Datetime"}, "Accept-Encoding, Accept-Datetime"},
		{"multiple header lines", []string{"Origin", "Cookie"}, "Origin, Cookie, accept-datetime"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for _, v := range tt.existing {
				h.Add("Vary", v)
			}
			PatchVary(h, "accept-datetime")
			if got := h.Get("Vary"); got != tt.want {
				t.Errorf("Vary = %q, want %q", got, tt.want)
			}
			if n := len(h.Values("Vary")); n != 1 {
				t.Errorf("Vary has %d lines, want 1", n)
			}
		})
	}
}

func TestFormatLinksUnescapes(t *testing.T) {
	got := FormatLinks(
		Link{URL: "http://example.com/caf%C3%A9", Rel: "original"},
		Link{URL: "http://archive.test/timemap/link/http://example.com/", Rel: "timemap", Type: LinkFormat},
	)
	want := `<http://example.com/café>; rel="original", <http://archive.test/timemap/link/http://example.com/>; rel="timemap"; type="application/link-format"`
	if got != want {
		t.Errorf("FormatLinks() = %q, want %q", got, want)
	}

	if got := Unescape("100%"); got != "100%" {
		t.Errorf("Unescape(invalid) = %q, want input unchanged", got)
	}
}

func TestDecoratorApply(t *testing.T) {
	rec := Memento{
		URIR:     "http://example.com/",
		URIM:     "/web/1",
		Datetime: time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	timemapURL := func(o string) string { return "http://archive.test/timemap/link/" + o }
	timegateURL := func(o string) string { return "http://archive.test/timegate/" + o }

	tests := []struct {
		name      string
		decorator Decorator
		wantErr   error
		wantLink  string
	}{
		{
			name:      "missing original hook",
			decorator: Decorator{TimeMapURL: timemapURL},
			wantErr:   ErrMissingOriginalURLMapping,
		},
		{
			name:      "no timemap route",
			decorator: Decorator{OriginalURL: RecordOriginalURL},
		},
		{
			name:      "timemap only",
			decorator: Decorator{OriginalURL: RecordOriginalURL, TimeMapURL: timemapURL},
			wantLink:  `<http://example.com/>; rel="original", <http://archive.test/timemap/link/http://example.com/>; rel="timemap"; type="application/link-format"`,
		},
		{
			name:      "timemap and timegate",
			decorator: Decorator{OriginalURL: RecordOriginalURL, TimeMapURL: timemapURL, TimeGateURL: timegateURL},
			wantLink: `<http://example.com/>; rel="original", <http://archive.test/timemap/link/http://example.com/>; rel="timemap"; type="application/link-format", ` +
				`<http://archive.test/timegate/http://example.com/>; rel="timegate"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			err := tt.decorator.Apply(h, rec)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Apply() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if len(h) != 0 {
					t.Errorf("headers set despite error: %v", h)
				}
				return
			}

			if got := h.Get(HeaderMementoDatetime); got != "Fri, 01 Jan 2010 00:00:00 GMT" {
				t.Errorf("Memento-Datetime = %q", got)
			}
			if got := h.Get("Vary"); got != "accept-datetime" {
				t.Errorf("Vary = %q", got)
			}
			if got := h.Get("Link"); got != tt.wantLink {
				t.Errorf("Link = %q, want %q", got, tt.wantLink)
			}
		})
	}
}

func TestDecoratorOriginalHookError(t *testing.T) {
	boom := errors.New("no original")
	d := Decorator{
		OriginalURL: func(Record) (string, error) { return "", boom },
		TimeMapURL:  func(o string) string { return o },
	}
	if err := d.Apply(http.Header{}, Memento{}); !errors.Is(err, boom) {
		t.Errorf("Apply() error = %v, want hook error", err)
	}
}
