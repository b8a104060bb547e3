// Package storetest provides the functional tests every domain.Archive
// backend must pass. A backend test wraps Run with its constructor:
//
//	func TestArchive(t *testing.T) {
//		storetest.Run(t, func(t *testing.T) domain.Archive {
//			return newBackend(t)
//		})
//	}
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrSnakeDoc/memento/internal/domain"
)

// Factory returns an empty archive. It is called once per sub-test.
type Factory func(t *testing.T) domain.Archive

const (
	example = "http://example.com/"
	other   = "http://other.example/"
)

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Fixture is the history loaded by every test.
func Fixture() []domain.Memento {
	return []domain.Memento{
		{URIR: example, URIM: "/memento/2012", Datetime: at(2012, 6, 1)},
		{URIR: example, URIM: "/memento/2010", Datetime: at(2010, 1, 1)},
		{URIR: example, URIM: "/memento/2011", Datetime: at(2011, 3, 1)},
		{URIR: other, URIM: "/memento/other", Datetime: at(2011, 1, 1)},
	}
}

// Run executes the contract tests against archives built by newArchive.
func Run(t *testing.T, newArchive Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, a domain.Archive)
	}{
		{"LatestBefore", testLatestBefore},
		{"EarliestAfter", testEarliestAfter},
		{"MostRecent", testMostRecent},
		{"UnknownURL", testUnknownURL},
		{"Timeline", testTimeline},
		{"Count", testCount},
		{"Get", testGet},
		{"SaveIsIdempotent", testSaveIsIdempotent},
		{"EqualDatetimes", testEqualDatetimes},
		{"Negotiate", testNegotiate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newArchive(t)
			t.Cleanup(func() { _ = a.Close() })
			if err := a.Save(context.Background(), Fixture()...); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			tt.fn(t, a)
		})
	}
}

// location returns the URI-M of a query result, failing the test on error.
func location(t *testing.T) func(domain.Record, error) string {
	return func(rec domain.Record, err error) string {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return rec.Location()
	}
}

func testLatestBefore(t *testing.T, a domain.Archive) {
	ctx := context.Background()

	if got := location(t)(a.LatestBefore(ctx, example, at(2011, 1, 1))); got != "/memento/2010" {
		t.Errorf("LatestBefore(2011-01-01) = %s, want /memento/2010", got)
	}
	if got := location(t)(a.LatestBefore(ctx, example, at(2011, 3, 1))); got != "/memento/2011" {
		t.Errorf("LatestBefore(exact) = %s, want /memento/2011", got)
	}
	if _, err := a.LatestBefore(ctx, example, at(2009, 1, 1)); !errors.Is(err, domain.ErrNoVersionFound) {
		t.Errorf("LatestBefore(2009) error = %v, want ErrNoVersionFound", err)
	}
}

func testEarliestAfter(t *testing.T, a domain.Archive) {
	ctx := context.Background()

	if got := location(t)(a.EarliestAfter(ctx, example, at(2011, 1, 1))); got != "/memento/2011" {
		t.Errorf("EarliestAfter(2011-01-01) = %s, want /memento/2011", got)
	}
	if got := location(t)(a.EarliestAfter(ctx, example, at(2012, 6, 1))); got != "/memento/2012" {
		t.Errorf("EarliestAfter(exact) = %s, want /memento/2012", got)
	}
	if got := location(t)(a.EarliestAfter(ctx, example, at(2011, 3, 1).Add(500*time.Millisecond))); got != "/memento/2012" {
		t.Errorf("EarliestAfter(sub-second) = %s, want /memento/2012", got)
	}
	if _, err := a.EarliestAfter(ctx, example, at(2013, 1, 1)); !errors.Is(err, domain.ErrNoVersionFound) {
		t.Errorf("EarliestAfter(2013) error = %v, want ErrNoVersionFound", err)
	}
}

func testMostRecent(t *testing.T, a domain.Archive) {
	rec, err := a.MostRecent(context.Background(), example)
	if got := location(t)(rec, err); got != "/memento/2012" {
		t.Errorf("MostRecent() = %s, want /memento/2012", got)
	}
	if rec.OriginalURL() != example {
		t.Errorf("MostRecent().OriginalURL() = %s, want %s", rec.OriginalURL(), example)
	}
	if !rec.CapturedAt().Equal(at(2012, 6, 1)) {
		t.Errorf("MostRecent().CapturedAt() = %s", rec.CapturedAt())
	}
}

func testUnknownURL(t *testing.T, a domain.Archive) {
	ctx := context.Background()
	const unknown = "http://unknown.example/"

	if _, err := a.MostRecent(ctx, unknown); !errors.Is(err, domain.ErrNoVersionFound) {
		t.Errorf("MostRecent() error = %v, want ErrNoVersionFound", err)
	}
	if _, err := a.LatestBefore(ctx, unknown, at(2011, 1, 1)); !errors.Is(err, domain.ErrNoVersionFound) {
		t.Errorf("LatestBefore() error = %v, want ErrNoVersionFound", err)
	}
	if _, err := a.EarliestAfter(ctx, unknown, at(2011, 1, 1)); !errors.Is(err, domain.ErrNoVersionFound) {
		t.Errorf("EarliestAfter() error = %v, want ErrNoVersionFound", err)
	}
	tl, err := a.Timeline(ctx, unknown, 0, 0)
	if err != nil || len(tl) != 0 {
		t.Errorf("Timeline() = %v, %v; want empty", tl, err)
	}
}

func testTimeline(t *testing.T, a domain.Archive) {
	ctx := context.Background()

	tl, err := a.Timeline(ctx, example, 0, 0)
	if err != nil {
		t.Fatalf("Timeline() error = %v", err)
	}
	want := []string{"/memento/2010", "/memento/2011", "/memento/2012"}
	if len(tl) != len(want) {
		t.Fatalf("Timeline() returned %d mementos, want %d", len(tl), len(want))
	}
	for i := range want {
		if tl[i].URIM != want[i] {
			t.Errorf("Timeline()[%d] = %s, want %s", i, tl[i].URIM, want[i])
		}
		if tl[i].ID == "" {
			t.Errorf("Timeline()[%d] has no ID", i)
		}
	}

	page, err := a.Timeline(ctx, example, 1, 1)
	if err != nil {
		t.Fatalf("Timeline(1, 1) error = %v", err)
	}
	if len(page) != 1 || page[0].URIM != "/memento/2011" {
		t.Errorf("Timeline(1, 1) = %v, want [/memento/2011]", page)
	}

	past, err := a.Timeline(ctx, example, 10, 5)
	if err != nil || len(past) != 0 {
		t.Errorf("Timeline(10, 5) = %v, %v; want empty", past, err)
	}
}

func testCount(t *testing.T, a domain.Archive) {
	ctx := context.Background()

	if n, err := a.Count(ctx, example); err != nil || n != 3 {
		t.Errorf("Count(example) = %d, %v; want 3", n, err)
	}
	if n, err := a.Count(ctx, "http://unknown.example/"); err != nil || n != 0 {
		t.Errorf("Count(unknown) = %d, %v; want 0", n, err)
	}
	if n, err := a.Originals(ctx); err != nil || n != 2 {
		t.Errorf("Originals() = %d, %v; want 2", n, err)
	}
}

func testGet(t *testing.T, a domain.Archive) {
	ctx := context.Background()

	want := domain.Memento{URIR: other, URIM: "/memento/other", Datetime: at(2011, 1, 1)}.Identify()
	got, err := a.Get(ctx, want.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.URIR != want.URIR || got.URIM != want.URIM || !got.Datetime.Equal(want.Datetime) {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}

	if _, err := a.Get(ctx, "missing"); !errors.Is(err, domain.ErrNoVersionFound) {
		t.Errorf("Get(missing) error = %v, want ErrNoVersionFound", err)
	}
}

func testSaveIsIdempotent(t *testing.T, a domain.Archive) {
	ctx := context.Background()

	if err := a.Save(ctx, Fixture()...); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if n, _ := a.Count(ctx, example); n != 3 {
		t.Errorf("Count() after saving twice = %d, want 3", n)
	}
}

func testEqualDatetimes(t *testing.T, a domain.Archive) {
	ctx := context.Background()
	const twins = "http://twins.example/"

	first := domain.Memento{ID: "a", URIR: twins, URIM: "/memento/a", Datetime: at(2015, 1, 1)}
	second := domain.Memento{ID: "b", URIR: twins, URIM: "/memento/b", Datetime: at(2015, 1, 1)}
	if err := a.Save(ctx, second, first); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// ties are ordered by ID
	if got := location(t)(a.LatestBefore(ctx, twins, at(2015, 1, 1))); got != "/memento/b" {
		t.Errorf("LatestBefore() on tie = %s, want /memento/b", got)
	}
	if got := location(t)(a.EarliestAfter(ctx, twins, at(2015, 1, 1))); got != "/memento/a" {
		t.Errorf("EarliestAfter() on tie = %s, want /memento/a", got)
	}
}

func testNegotiate(t *testing.T, a domain.Archive) {
	n, err := domain.NewNegotiator(a)
	if err != nil {
		t.Fatalf("NewNegotiator() error = %v", err)
	}

	target := at(2010, 7, 1)
	rec, err := n.Negotiate(context.Background(), domain.Request{URL: example, AcceptDatetime: &target})
	if got := location(t)(rec, err); got != "/memento/2010" {
		t.Errorf("Negotiate(2010-07-01) = %s, want /memento/2010", got)
	}
}
