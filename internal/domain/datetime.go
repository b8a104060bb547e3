package domain

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// acceptDatetimeLayouts lists the RFC 1123 / RFC 822 compatible layouts
// accepted in Accept-Datetime, most common first.
var acceptDatetimeLayouts = []string{
	http.TimeFormat,
	time.RFC1123,
	time.RFC1123Z,
	time.RFC850,
	time.ANSIC,
	time.RFC822,
	time.RFC822Z,
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 MST",
}

// zoneOffsets holds the zone names RFC 822 defines, in hours east of UTC.
// time.Parse gives any other abbreviation a made-up offset.
var zoneOffsets = map[string]int{
	"GMT": 0, "UTC": 0,
	"EST": -5, "EDT": -4,
	"CST": -6, "CDT": -5,
	"MST": -7, "MDT": -6,
	"PST": -8, "PDT": -7,
}

// ParseAcceptDatetime parses an Accept-Datetime header value.
// The returned time is in UTC.
func ParseAcceptDatetime(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrMalformedNegotiationHeader)
	}
	if rest, ok := strings.CutSuffix(v, " UT"); ok {
		v = rest + " UTC"
	}
	for _, layout := range acceptDatetimeLayouts {
		t, err := time.Parse(layout, v)
		if err != nil {
			continue
		}
		if !strings.Contains(layout, "MST") {
			return t.UTC(), nil
		}
		name, _ := t.Zone()
		hours, ok := zoneOffsets[name]
		if !ok {
			return time.Time{}, fmt.Errorf("%w: unknown time zone %q in %q", ErrMalformedNegotiationHeader, name, value)
		}
		t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(),
			time.FixedZone(name, hours*3600))
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedNegotiationHeader, value)
}

// HTTPDate formats t as an RFC 1123 HTTP-date (always GMT).
func HTTPDate(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}
