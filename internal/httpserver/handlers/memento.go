package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/memento/internal/domain"
	"github.com/MrSnakeDoc/memento/internal/httpserver/deps"
	"github.com/MrSnakeDoc/memento/internal/logger"
)

type mementoResponse struct {
	ID          string `json:"id"`
	OriginalURL string `json:"original_url"`
	Location    string `json:"location"`
	Datetime    string `json:"memento_datetime"`
	TimeMap     string `json:"timemap"`
	TimeGate    string `json:"timegate,omitempty"`
}

// Memento describes one memento and decorates the response with its
// Memento-Datetime and Link headers.
func Memento(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := d.Archive.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}

		timemapURL, timegateURL, err := originalLinks(d, r, m.URIR)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}

		// m is the only record decorated here, so its links are resolved once.
		decorator := domain.Decorator{
			OriginalURL: domain.RecordOriginalURL,
			TimeMapURL:  func(string) string { return timemapURL },
		}
		if timegateURL != "" {
			decorator.TimeGateURL = func(string) string { return timegateURL }
		}

		if err := decorator.Apply(w.Header(), m); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}

		resp := mementoResponse{
			ID:          m.ID,
			OriginalURL: m.URIR,
			Location:    domain.Unescape(d.Linker.Absolute(r, m.URIM)),
			Datetime:    domain.HTTPDate(m.Datetime),
			TimeMap:     timemapURL,
			TimeGate:    timegateURL,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			d.Logger.Debug("failed to write response", logger.Error(err))
		}
	}
}
