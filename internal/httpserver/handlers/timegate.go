package handlers

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/memento/internal/domain"
	"github.com/MrSnakeDoc/memento/internal/httpserver/deps"
	"github.com/MrSnakeDoc/memento/internal/linker"
	"github.com/MrSnakeDoc/memento/internal/logger"
)

// TimeGate redirects to the memento closest to Accept-Datetime, or to the
// most recent one when the header is absent.
func TimeGate(d deps.Deps) http.HandlerFunc {
	vary := strings.ToLower(domain.HeaderAcceptDatetime)

	return func(w http.ResponseWriter, r *http.Request) {
		req, err := domain.NewRequest(requestedURL(r), r.Header.Get(domain.HeaderAcceptDatetime))
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}

		rec, err := d.Negotiator.Negotiate(r.Context(), req)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}

		timemapURL, err := d.Linker.URL(r, linker.RouteTimeMap, req.URL)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		location := domain.Unescape(d.Linker.Absolute(r, rec.Location()))

		h := w.Header()
		domain.PatchVary(h, vary)
		h.Set("Link", domain.TimeGateLinks(req.URL, timemapURL))
		h.Set("Location", location)
		w.WriteHeader(http.StatusFound)

		d.Logger.Debug("timegate negotiated",
			logger.String("original", req.URL),
			logger.Bool("accept_datetime", req.AcceptDatetime != nil),
			logger.Time("memento_datetime", rec.CapturedAt()),
			logger.String("location", location))
	}
}
