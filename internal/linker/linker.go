// Package linker turns route names and site-relative locations into the
// absolute URLs that appear in Location and Link headers.
package linker

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Route names understood by Reverse.
const (
	RouteTimeGate    = "timegate"
	RouteTimeMap     = "timemap"
	RouteTimeMapPage = "timemap_page"
	RouteMemento     = "memento"
)

// ErrUnknownRoute is returned by Reverse for a name it cannot build.
var ErrUnknownRoute = errors.New("unknown route name")

// Linker resolves addresses against the public origin of the service.
type Linker struct {
	origin     *url.URL // scheme and host from the public URL, nil = per request
	trustProxy bool
}

// New creates a Linker. publicURL may be empty, in which case the origin is
// taken from each request (TLS state, Host header and, when trustProxy is
// set, X-Forwarded-Proto / X-Forwarded-Host).
func New(publicURL string, trustProxy bool) (*Linker, error) {
	l := &Linker{trustProxy: trustProxy}
	if publicURL == "" {
		return l, nil
	}

	u, err := url.Parse(publicURL)
	if err != nil {
		return nil, fmt.Errorf("invalid public url %q: %w", publicURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("public url %q must include scheme and host", publicURL)
	}
	l.origin = &url.URL{Scheme: u.Scheme, Host: u.Host}
	return l, nil
}

// Origin returns scheme://host for r.
func (l *Linker) Origin(r *http.Request) string {
	if l.origin != nil {
		return l.origin.String()
	}
	return l.scheme(r) + "://" + l.host(r)
}

func (l *Linker) scheme(r *http.Request) string {
	if l.trustProxy {
		if v := firstValue(r.Header.Get("X-Forwarded-Proto")); v != "" {
			return strings.ToLower(v)
		}
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

func (l *Linker) host(r *http.Request) string {
	if l.trustProxy {
		if v := firstValue(r.Header.Get("X-Forwarded-Host")); v != "" {
			return v
		}
	}
	return r.Host
}

func firstValue(v string) string {
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}

// Absolute returns location unchanged when it already has a scheme and
// resolves it against the origin of r (and the request path, for
// path-relative locations) otherwise.
func (l *Linker) Absolute(r *http.Request, location string) string {
	if u, err := url.Parse(location); err == nil && u.IsAbs() {
		return location
	}

	switch {
	case strings.HasPrefix(location, "//"):
		if l.origin != nil {
			return l.origin.Scheme + ":" + location
		}
		return l.scheme(r) + ":" + location
	case strings.HasPrefix(location, "/"):
		return l.Origin(r) + location
	}

	dir := r.URL.EscapedPath()
	if i := strings.LastIndexByte(dir, '/'); i >= 0 {
		dir = dir[:i+1]
	} else {
		dir = "/"
	}
	return l.Origin(r) + dir + location
}

// TimeGatePath returns the path of the TimeGate of original.
func (l *Linker) TimeGatePath(original string) string {
	return "/timegate/" + original
}

// TimeMapPath returns the path of the TimeMap of original.
func (l *Linker) TimeMapPath(original string) string {
	return "/timemap/link/" + original
}

// PagePath returns the path of one TimeMap fragment. Pages start at 1.
func (l *Linker) PagePath(page int, original string) string {
	return "/timemap/page/" + strconv.Itoa(page) + "/" + original
}

// MementoPath returns the path describing the memento with the given ID.
func (l *Linker) MementoPath(id string) string {
	return "/memento/" + url.PathEscape(id)
}

// Reverse returns the site-relative path of a named route for an original
// URL (or a memento ID for RouteMemento).
func (l *Linker) Reverse(name, arg string) (string, error) {
	switch name {
	case RouteTimeGate:
		return l.TimeGatePath(arg), nil
	case RouteTimeMap:
		return l.TimeMapPath(arg), nil
	case RouteMemento:
		return l.MementoPath(arg), nil
	case RouteTimeMapPage:
		return "", fmt.Errorf("%s needs a page number, use PagePath: %w", name, ErrUnknownRoute)
	}
	return "", fmt.Errorf("%q: %w", name, ErrUnknownRoute)
}

// URL is Absolute(r, Reverse(name, arg)).
func (l *Linker) URL(r *http.Request, name, arg string) (string, error) {
	path, err := l.Reverse(name, arg)
	if err != nil {
		return "", err
	}
	return l.Absolute(r, path), nil
}
