package mw

import (
	"net/http"
	"strings"
)

// exposedHeaders are the Memento headers browser clients need to read.
var exposedHeaders = []string{"Link", "Location", "Memento-Datetime", "Vary"}

// CORS lets browser-based Memento clients call the service from any origin
// and read the Memento headers of its responses. Preflight requests are
// answered directly.
func CORS() func(http.Handler) http.Handler {
	expose := strings.Join(exposedHeaders, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", "*")
			h.Set("Access-Control-Expose-Headers", expose)

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Accept-Datetime")
				h.Set("Access-Control-Max-Age", "86400")
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
