package httpserver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/memento/internal/domain"
	"github.com/MrSnakeDoc/memento/internal/httpserver/deps"
	"github.com/MrSnakeDoc/memento/internal/index"
	"github.com/MrSnakeDoc/memento/internal/linker"
	"github.com/MrSnakeDoc/memento/internal/logger"
)

func newTestServer(t *testing.T, configure func(*deps.Deps)) *httptest.Server {
	t.Helper()

	archive := index.NewMemoryIndex()
	err := archive.Save(context.Background(), domain.Memento{
		URIR:     "http://example.com/",
		URIM:     "/web/20100101000000/http://example.com/",
		Datetime: time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	negotiator, err := domain.NewNegotiator(archive)
	if err != nil {
		t.Fatalf("NewNegotiator() error = %v", err)
	}
	links, err := linker.New("https://archive.example.org", false)
	if err != nil {
		t.Fatalf("linker.New() error = %v", err)
	}

	d := deps.Deps{
		Logger:          logger.Nop(),
		StartTime:       time.Now(),
		TimeNow:         time.Now,
		Archive:         archive,
		Backend:         "memory",
		Negotiator:      negotiator,
		Linker:          links,
		IncludeTimeGate: true,
		RateBurst:       100,
		RatePerMin:      100,
	}
	if configure != nil {
		configure(&d)
	}

	srv := httptest.NewServer(NewRouter(time.Second, d.Logger, d))
	t.Cleanup(srv.Close)
	return srv
}

func noRedirect(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

func TestRouterTimeGate(t *testing.T) {
	srv := newTestServer(t, nil)
	client := &http.Client{CheckRedirect: noRedirect}

	for _, method := range []string{http.MethodGet, http.MethodHead} {
		t.Run(method, func(t *testing.T) {
			req, _ := http.NewRequest(method, srv.URL+"/timegate/http://example.com/", nil)
			req.Header.Set("Accept-Datetime", "Thu, 01 Jul 2010 00:00:00 GMT")
			resp, err := client.Do(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer func() { _ = resp.Body.Close() }()

			if resp.StatusCode != http.StatusFound {
				t.Fatalf("status = %d, want 302", resp.StatusCode)
			}
			want := "https://archive.example.org/web/20100101000000/http://example.com/"
			if got := resp.Header.Get("Location"); got != want {
				t.Errorf("Location = %q, want %q", got, want)
			}
			if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
				t.Error("CORS headers missing on public route")
			}
			if resp.Header.Get("X-RateLimit-Limit") == "" {
				t.Error("rate limit headers missing on public route")
			}
		})
	}
}

func TestRouterTimeMap(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/timemap/link/http://example.com/")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/link-format") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestRouterRateLimit(t *testing.T) {
	srv := newTestServer(t, func(d *deps.Deps) {
		d.RateBurst = 1
		d.RatePerMin = 1
	})

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		resp, err := http.Get(srv.URL + "/timemap/link/http://example.com/")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		_ = resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("status codes = %v, want [200 429]", codes)
	}

	// Admin routes are not rate limited.
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", resp.StatusCode)
	}
}

func TestRouterAdminRestrictions(t *testing.T) {
	srv := newTestServer(t, func(d *deps.Deps) {
		d.AllowedCIDRS = []string{"10.0.0.0/8"}
	})

	body := `{"original_url": "http://example.com/", "location": "/web/x", "captured_at": "2020-01-01T00:00:00Z"}`
	resp, err := http.Post(srv.URL+"/mementos", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("ingest status = %d, want 403", resp.StatusCode)
	}

	for _, path := range []string{"/status", "/readyz"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("%s status = %d, want 403", path, resp.StatusCode)
		}
	}

	// Public routes stay open.
	resp, err = http.Get(srv.URL + "/timemap/link/http://example.com/")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("timemap status = %d, want 200", resp.StatusCode)
	}
}

func TestRouterIngestDisabledByDefault(t *testing.T) {
	srv := newTestServer(t, nil)
	client := &http.Client{CheckRedirect: noRedirect}

	body := `{"original_url": "http://example.com/", "location": "https://evil.example/phish", "captured_at": "2030-01-01T00:00:00Z"}`
	resp, err := http.Post(srv.URL+"/mementos", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("ingest status = %d, want 404 without CIDRs or token", resp.StatusCode)
	}

	resp, err = client.Get(srv.URL + "/timegate/http://example.com/")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()
	want := "https://archive.example.org/web/20100101000000/http://example.com/"
	if got := resp.Header.Get("Location"); got != want {
		t.Errorf("Location = %q, want %q", got, want)
	}
}

func TestRouterIngestHostOnlyStaysDisabled(t *testing.T) {
	srv := newTestServer(t, func(d *deps.Deps) {
		d.AllowedHosts = []string{"127.0.0.1"}
	})

	body := `{"original_url": "http://example.com/", "location": "/web/x", "captured_at": "2020-01-01T00:00:00Z"}`
	resp, err := http.Post(srv.URL+"/mementos", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("ingest status = %d, want 404 with only a host restriction", resp.StatusCode)
	}
}

func TestRouterIngestToken(t *testing.T) {
	srv := newTestServer(t, func(d *deps.Deps) {
		d.IngestToken = "t0ken"
	})

	body := `{"original_url": "http://example.com/", "location": "/web/x", "captured_at": "2020-01-01T00:00:00Z"}`
	tests := []struct {
		name   string
		auth   string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer t0ken", http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodPost, srv.URL+"/mementos", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			_ = resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}
}

// stalledArchive blocks until the request deadline.
type stalledArchive struct {
	*index.MemoryIndex
}

func (stalledArchive) Count(ctx context.Context, _ string) (int, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func TestRouterRequestTimeout(t *testing.T) {
	srv := newTestServer(t, func(d *deps.Deps) {
		d.Archive = stalledArchive{index.NewMemoryIndex()}
	})

	resp, err := http.Get(srv.URL + "/timemap/link/http://example.com/")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want 504", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if len(body) != 0 {
		t.Errorf("body = %q, want only the timeout middleware's status", body)
	}
}

func TestRouterIngestThenNegotiate(t *testing.T) {
	srv := newTestServer(t, func(d *deps.Deps) {
		d.AllowedCIDRS = []string{"127.0.0.1/32", "::1/128"}
	})
	client := &http.Client{CheckRedirect: noRedirect}

	body := `{"original_url": "http://example.com/", "location": "https://elsewhere.example/snap/1", "captured_at": "2015-01-01T00:00:00Z"}`
	resp, err := http.Post(srv.URL+"/mementos", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("ingest status = %d, want 201", resp.StatusCode)
	}

	resp, err = client.Get(srv.URL + "/timegate/http://example.com/")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()
	if got := resp.Header.Get("Location"); got != "https://elsewhere.example/snap/1" {
		t.Errorf("Location = %q, want the absolute ingested location", got)
	}
}
