package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/memento/internal/domain"
	"github.com/MrSnakeDoc/memento/internal/httpserver/deps"
	"github.com/MrSnakeDoc/memento/internal/logger"
	"github.com/MrSnakeDoc/memento/internal/timemap"
)

// TimeMap serves the TimeMap of an original URL: a link list, or a link
// index over fixed-size pages once the history outgrows one page.
func TimeMap(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		original, count, err := lookupOriginal(ctx, d, r)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}

		self, timegate, err := originalLinks(d, r, original)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		size := d.TimeMapPageSize

		if size > 0 && count > size {
			idx, err := buildLinkIndex(ctx, d, r, original, self, timegate, count)
			if err != nil {
				writeError(w, r, d.Logger, err)
				return
			}
			writeTimeMap(w, r, d.Logger, idx.Write)
			return
		}

		mementos, err := d.Archive.Timeline(ctx, original, 0, 0)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		list := buildLinkList(d, r, original, self, timegate, mementos, 0, len(mementos))
		writeTimeMap(w, r, d.Logger, list.Write)
	}
}

// TimeMapPage serves one fragment of a paginated TimeMap as a link list.
func TimeMapPage(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		page, err := strconv.Atoi(chi.URLParam(r, "page"))
		if err != nil || page < 1 {
			writeError(w, r, d.Logger, fmt.Errorf("timemap page %q: %w", chi.URLParam(r, "page"), domain.ErrNoVersionFound))
			return
		}

		original, count, err := lookupOriginal(ctx, d, r)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}

		size := d.TimeMapPageSize
		if size <= 0 {
			// without pagination the whole history is page 1
			size = count
		}
		offset := (page - 1) * size
		if offset >= count {
			writeError(w, r, d.Logger, fmt.Errorf("timemap page %d of %s: %w", page, original, domain.ErrNoVersionFound))
			return
		}

		mementos, err := d.Archive.Timeline(ctx, original, offset, size)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}

		_, timegate, err := originalLinks(d, r, original)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		self := d.Linker.Absolute(r, d.Linker.PagePath(page, original))
		list := buildLinkList(d, r, original, self, timegate, mementos, offset, count)
		writeTimeMap(w, r, d.Logger, list.Write)
	}
}

// lookupOriginal normalizes the requested URL and counts its mementos.
// An unknown URL is reported as ErrNoVersionFound.
func lookupOriginal(ctx context.Context, d deps.Deps, r *http.Request) (string, int, error) {
	raw := requestedURL(r)
	if raw == "" {
		return "", 0, domain.ErrMissingRequestedURL
	}
	original := domain.NormalizeURL(raw)

	count, err := d.Archive.Count(ctx, original)
	if err != nil {
		return "", 0, fmt.Errorf("count mementos of %s: %w", original, err)
	}
	if count == 0 {
		return "", 0, fmt.Errorf("timemap of %s: %w", original, domain.ErrNoVersionFound)
	}
	return original, count, nil
}

// buildLinkList renders mementos found at offset of a history of total
// mementos; first and last markers refer to the whole history. An empty
// timegate leaves the TimeGate link out.
func buildLinkList(d deps.Deps, r *http.Request, original, self, timegate string, mementos []domain.Memento, offset, total int) *timemap.LinkList {
	list := timemap.NewLinkList(original, self)
	if timegate != "" {
		list.WithTimeGate(timegate)
	}
	for i, m := range mementos {
		pos := offset + i
		list.AddItem(d.Linker.Absolute(r, m.URIM), m.Datetime, pos == 0, pos == total-1)
	}
	return list
}

func buildLinkIndex(ctx context.Context, d deps.Deps, r *http.Request, original, self, timegate string, count int) (*timemap.LinkIndex, error) {
	size := d.TimeMapPageSize
	pages := (count + size - 1) / size

	idx := timemap.NewLinkIndex(original, self)
	if timegate != "" {
		idx.WithTimeGate(timegate)
	}

	for page := 1; page <= pages; page++ {
		offset := (page - 1) * size
		first, err := d.Archive.Timeline(ctx, original, offset, 1)
		if err != nil {
			return nil, err
		}
		last, err := d.Archive.Timeline(ctx, original, min(offset+size, count)-1, 1)
		if err != nil {
			return nil, err
		}
		if len(first) == 0 || len(last) == 0 {
			// history shrank since it was counted
			break
		}
		idx.AddItem(d.Linker.Absolute(r, d.Linker.PagePath(page, original)), first[0].Datetime, last[0].Datetime)
	}
	return idx, nil
}

// writeTimeMap renders into a buffer first so a failure still produces a
// clean error response.
func writeTimeMap(w http.ResponseWriter, r *http.Request, log logger.Logger, write func(io.Writer) error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		writeError(w, r, log, err)
		return
	}

	w.Header().Set("Content-Type", timemap.MIMEType)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Debug("failed to write timemap", logger.Error(err))
	}
}
