package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/memento/internal/domain"
	"github.com/MrSnakeDoc/memento/internal/logger"
	"github.com/MrSnakeDoc/memento/internal/timemap"
)

// errBadPayload marks request bodies the ingest endpoint cannot accept.
var errBadPayload = errors.New("invalid payload")

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrMissingRequestedURL),
		errors.Is(err, domain.ErrMalformedNegotiationHeader),
		errors.Is(err, errBadPayload):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoVersionFound),
		errors.Is(err, timemap.ErrEmptyTimemap):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as a plain text response. Server-side failures are
// logged and their details kept out of the body. Once the request context
// is done nothing is written: the timeout middleware answers 504 itself and
// a cancelled client is gone.
func writeError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	if ctxErr := r.Context().Err(); ctxErr != nil {
		log.Warn("request abandoned",
			logger.String("path", r.URL.Path),
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.String("reason", ctxErr.Error()),
			logger.Error(err))
		return
	}

	status := statusFor(err)
	msg := err.Error()

	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			logger.String("path", r.URL.Path),
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.Error(err))
		msg = "the archive could not answer this request"
	} else {
		log.Debug("request rejected",
			logger.String("path", r.URL.Path),
			logger.Int("status", status),
			logger.Error(err))
	}

	http.Error(w, fmt.Sprintf("%s (%d): %s", http.StatusText(status), status, msg), status)
}

// requestedURL returns the original URL carried by a wildcard route,
// including the query string the client sent after it.
func requestedURL(r *http.Request) string {
	u := chi.URLParam(r, "*")
	if u != "" && r.URL.RawQuery != "" {
		u += "?" + r.URL.RawQuery
	}
	return u
}
