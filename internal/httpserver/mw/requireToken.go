package mw

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/memento/internal/logger"
)

// RequireToken allows only requests carrying "Authorization: Bearer <token>".
// If token is empty, it acts as a passthrough.
func RequireToken(token string, log logger.Logger) func(http.Handler) http.Handler {
	if token == "" {
		log.Debug("RequireToken: empty token, passthrough mode")
		return func(next http.Handler) http.Handler { return next }
	}

	want := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), want) != 1 {
				log.Warn("bearer token rejected",
					logger.String("remote_addr", r.RemoteAddr),
					logger.String("path", r.URL.Path))
				w.Header().Set("WWW-Authenticate", `Bearer realm="memento"`)
				http.Error(w, "Unauthorized (401): missing or invalid token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
