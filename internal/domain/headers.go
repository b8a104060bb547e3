package domain

import (
	"net/http"
	"net/url"
	"strings"
)

const (
	// HeaderAcceptDatetime is the negotiation request header.
	HeaderAcceptDatetime = "Accept-Datetime"
	// HeaderMementoDatetime carries the archival datetime of a memento.
	HeaderMementoDatetime = "Memento-Datetime"

	// LinkFormat is the media type of a TimeMap.
	LinkFormat = "application/link-format"
)

// Link is one entry of a Link header.
type Link struct {
	URL  string
	Rel  string
	Type string
}

// FormatLinks renders links as a Link header value. URLs are percent-decoded
// so clients see the original URL as it was archived.
func FormatLinks(links ...Link) string {
	parts := make([]string, 0, len(links))
	for _, l := range links {
		var b strings.Builder
		b.WriteString("<")
		b.WriteString(Unescape(l.URL))
		b.WriteString(`>; rel="`)
		b.WriteString(l.Rel)
		b.WriteString(`"`)
		if l.Type != "" {
			b.WriteString(`; type="`)
			b.WriteString(l.Type)
			b.WriteString(`"`)
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, ", ")
}

// Unescape percent-decodes u, returning it unchanged when it is not a
// valid escape sequence.
func Unescape(u string) string {
	if s, err := url.PathUnescape(u); err == nil {
		return s
	}
	return u
}

// PatchVary adds the given header names to Vary, keeping existing values
// and skipping names already present (case-insensitive).
func PatchVary(h http.Header, names ...string) {
	var existing []string
	for _, v := range h.Values("Vary") {
		for _, f := range strings.Split(v, ",") {
			if f = strings.TrimSpace(f); f != "" {
				existing = append(existing, f)
			}
		}
	}
	for _, name := range names {
		found := false
		for _, e := range existing {
			if strings.EqualFold(e, name) {
				found = true
				break
			}
		}
		if !found {
			existing = append(existing, name)
		}
	}
	h.Set("Vary", strings.Join(existing, ", "))
}

// TimeGateLinks returns the Link header of a TimeGate redirect:
// the original resource and its TimeMap.
func TimeGateLinks(original, timemap string) string {
	return FormatLinks(
		Link{URL: original, Rel: "original"},
		Link{URL: timemap, Rel: "timemap", Type: LinkFormat},
	)
}

// Decorator applies Memento headers to a response describing one memento.
type Decorator struct {
	// OriginalURL derives the URI-R of a record. Required.
	OriginalURL func(Record) (string, error)
	// TimeMapURL builds the absolute TimeMap address of a URI-R.
	// When nil no Link header is emitted.
	TimeMapURL func(original string) string
	// TimeGateURL builds the absolute TimeGate address of a URI-R.
	// When nil the timegate relation is omitted.
	TimeGateURL func(original string) string
}

// Apply sets Memento-Datetime, Vary and, when configured, Link on h.
func (d *Decorator) Apply(h http.Header, rec Record) error {
	if d.OriginalURL == nil {
		return ErrMissingOriginalURLMapping
	}

	h.Set(HeaderMementoDatetime, HTTPDate(rec.CapturedAt()))
	PatchVary(h, strings.ToLower(HeaderAcceptDatetime))

	if d.TimeMapURL == nil {
		return nil
	}

	original, err := d.OriginalURL(rec)
	if err != nil {
		return err
	}

	links := []Link{
		{URL: original, Rel: "original"},
		{URL: d.TimeMapURL(original), Rel: "timemap", Type: LinkFormat},
	}
	if d.TimeGateURL != nil {
		links = append(links, Link{URL: d.TimeGateURL(original), Rel: "timegate"})
	}
	h.Set("Link", FormatLinks(links...))
	return nil
}
