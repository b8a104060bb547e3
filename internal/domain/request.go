package domain

import (
	"strings"
	"time"
)

// Request is a parsed TimeGate negotiation request.
type Request struct {
	// URL is the normalized original URL.
	URL string
	// AcceptDatetime is the target datetime; nil asks for the most recent memento.
	AcceptDatetime *time.Time
}

// NewRequest validates and normalizes the raw URL parameter and the
// Accept-Datetime header value. An empty header means "no target datetime";
// a present but unparseable one is an error.
func NewRequest(rawURL, acceptDatetime string) (Request, error) {
	if strings.TrimSpace(rawURL) == "" {
		return Request{}, ErrMissingRequestedURL
	}

	req := Request{URL: NormalizeURL(rawURL)}
	if acceptDatetime == "" {
		return req, nil
	}

	t, err := ParseAcceptDatetime(acceptDatetime)
	if err != nil {
		return Request{}, err
	}
	req.AcceptDatetime = &t
	return req, nil
}
