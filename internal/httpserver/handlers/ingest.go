package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/memento/internal/domain"
	"github.com/MrSnakeDoc/memento/internal/httpserver/deps"
	"github.com/MrSnakeDoc/memento/internal/linker"
	"github.com/MrSnakeDoc/memento/internal/logger"
)

const maxIngestBody = 1 << 20

type ingestResponse struct {
	Saved    int      `json:"saved"`
	IDs      []string `json:"ids"`
	Mementos []string `json:"mementos"`
}

// Ingest stores the mementos posted as a JSON object or array.
func Ingest(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxIngestBody))
		if err != nil {
			writeError(w, r, d.Logger, fmt.Errorf("%w: %v", errBadPayload, err))
			return
		}

		mementos, err := decodeMementos(body)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}

		resp := ingestResponse{
			Saved:    len(mementos),
			IDs:      make([]string, len(mementos)),
			Mementos: make([]string, len(mementos)),
		}
		for i, m := range mementos {
			resp.IDs[i] = m.ID
			if resp.Mementos[i], err = d.Linker.URL(r, linker.RouteMemento, m.ID); err != nil {
				writeError(w, r, d.Logger, err)
				return
			}
		}

		if err := d.Archive.Save(r.Context(), mementos...); err != nil {
			writeError(w, r, d.Logger, fmt.Errorf("save mementos: %w", err))
			return
		}

		d.Logger.Info("mementos ingested",
			logger.Int("count", len(mementos)),
			logger.String("remote_ip", r.RemoteAddr))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			d.Logger.Debug("failed to write response", logger.Error(err))
		}
	}
}

// decodeMementos accepts one memento or a list, validates every entry and
// returns them identified and with normalized original URLs.
func decodeMementos(body []byte) ([]domain.Memento, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", errBadPayload)
	}

	var mementos []domain.Memento
	if body[0] == '[' {
		if err := json.Unmarshal(body, &mementos); err != nil {
			return nil, fmt.Errorf("%w: %v", errBadPayload, err)
		}
	} else {
		var m domain.Memento
		if err := json.Unmarshal(body, &m); err != nil {
			return nil, fmt.Errorf("%w: %v", errBadPayload, err)
		}
		mementos = []domain.Memento{m}
	}

	if len(mementos) == 0 {
		return nil, fmt.Errorf("%w: no memento", errBadPayload)
	}

	for i, m := range mementos {
		m.URIR = strings.TrimSpace(m.URIR)
		m.URIM = strings.TrimSpace(m.URIM)
		switch {
		case m.URIR == "":
			return nil, fmt.Errorf("%w: memento %d has no original_url", errBadPayload, i)
		case m.URIM == "":
			return nil, fmt.Errorf("%w: memento %d has no location", errBadPayload, i)
		case m.Datetime.IsZero():
			return nil, fmt.Errorf("%w: memento %d has no captured_at", errBadPayload, i)
		}
		m.URIR = domain.NormalizeURL(m.URIR)
		mementos[i] = m.Identify()
	}
	return mementos, nil
}
