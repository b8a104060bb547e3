package mw

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/memento/internal/logger"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCORS(t *testing.T) {
	h := CORS()(okHandler)

	t.Run("simple request", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/timegate/http://example.com/", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("Allow-Origin = %q", got)
		}
		expose := rec.Header().Get("Access-Control-Expose-Headers")
		for _, name := range []string{"Link", "Location", "Memento-Datetime", "Vary"} {
			if !strings.Contains(expose, name) {
				t.Errorf("Expose-Headers %q misses %s", expose, name)
			}
		}
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/timegate/http://example.com/", nil)
		req.Header.Set("Access-Control-Request-Method", "GET")
		req.Header.Set("Access-Control-Request-Headers", "accept-datetime")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "Accept-Datetime" {
			t.Errorf("Allow-Headers = %q", got)
		}
	})
}

func TestRateLimit(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h := RateLimit(RateLimitConfig{
		Burst:             2,
		RefillPerIPPerMin: 60,
		Now:               func() time.Time { return now },
	})(okHandler)

	call := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for i, wantRemaining := range []string{"1", "0"} {
		rec := call("192.0.2.1:1000")
		if rec.Code != http.StatusOK {
			t.Fatalf("call %d status = %d, want 200", i, rec.Code)
		}
		if got := rec.Header().Get("X-RateLimit-Remaining"); got != wantRemaining {
			t.Errorf("call %d remaining = %s, want %s", i, got, wantRemaining)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "2" {
			t.Errorf("call %d limit = %s, want 2", i, got)
		}
	}

	rec := call("192.0.2.1:1001")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q, want 1", got)
	}

	if rec := call("198.51.100.7:1000"); rec.Code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", rec.Code)
	}

	now = now.Add(time.Second)
	if rec := call("192.0.2.1:1000"); rec.Code != http.StatusOK {
		t.Errorf("status after refill = %d, want 200", rec.Code)
	}
}

func TestRateLimitSweep(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newLimiter(RateLimitConfig{
		Burst:             1,
		RefillPerIPPerMin: 1,
		IdleTTL:           time.Minute,
		SweepInterval:     time.Minute,
		Now:               func() time.Time { return now },
	})

	l.take("a", now)
	l.take("b", now)
	now = now.Add(2 * time.Minute)
	l.take("c", now)

	if len(l.buckets) != 1 {
		t.Errorf("buckets = %d, want idle clients swept", len(l.buckets))
	}
	if _, ok := l.buckets["c"]; !ok {
		t.Error("active client was swept")
	}
}

func TestMatchHost(t *testing.T) {
	tests := []struct {
		host    string
		pattern string
		want    bool
	}{
		{"archive.example.org", "archive.example.org", true},
		{"archive.example.org:8080", "archive.example.org", true},
		{"archive.example.org:8080", "archive.example.org:9090", false},
		{"web.example.org", "*.example.org", true},
		{"example.org", "*.example.org", false},
		{"evil.org", "example.org", false},
	}

	for _, tt := range tests {
		if got := matchHost(tt.host, tt.pattern); got != tt.want {
			t.Errorf("matchHost(%q, %q) = %v, want %v", tt.host, tt.pattern, got, tt.want)
		}
	}
}

func TestEnforceHost(t *testing.T) {
	h := EnforceHost([]string{"Archive.Example.org"}, logger.Nop())(okHandler)

	req := httptest.NewRequest(http.MethodPost, "/mementos", nil)
	req.Host = "archive.example.org"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("allowed host status = %d, want 200", rec.Code)
	}

	req.Host = "other.example.org"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("rejected host status = %d, want 403", rec.Code)
	}
}

func TestRequireToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		auth  string
		want  int
	}{
		{"empty token passes", "", "", http.StatusOK},
		{"valid bearer", "t0ken", "Bearer t0ken", http.StatusOK},
		{"missing header", "t0ken", "", http.StatusUnauthorized},
		{"wrong token", "t0ken", "Bearer other", http.StatusUnauthorized},
		{"wrong scheme", "t0ken", "Basic t0ken", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RequireToken(tt.token, logger.Nop())(okHandler)
			req := httptest.NewRequest(http.MethodPost, "/mementos", nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") == "" {
				t.Error("401 without WWW-Authenticate")
			}
		})
	}
}

func TestAllowOnlyCIDRS(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		trustProxy bool
		remoteAddr string
		forwarded  string
		want       int
	}{
		{"empty list passes", nil, false, "203.0.113.9:1", "", http.StatusOK},
		{"inside cidr", []string{"10.0.0.0/8"}, false, "10.1.2.3:1", "", http.StatusOK},
		{"outside cidr", []string{"10.0.0.0/8"}, false, "203.0.113.9:1", "", http.StatusForbidden},
		{"forwarded ignored without proxy trust", []string{"10.0.0.0/8"}, false, "203.0.113.9:1", "10.1.2.3", http.StatusForbidden},
		{"forwarded used with proxy trust", []string{"10.0.0.0/8"}, true, "127.0.0.1:1", "10.1.2.3", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := AllowOnlyCIDRS(tt.allowed, tt.trustProxy, logger.Nop())(okHandler)
			req := httptest.NewRequest(http.MethodGet, "/status", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestLogCapturesStatus(t *testing.T) {
	h := Log(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("body"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "body" {
		t.Errorf("response = %d %q", rec.Code, rec.Body.String())
	}
}
