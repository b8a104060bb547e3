package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/memento/internal/httpserver/deps"
	"github.com/MrSnakeDoc/memento/internal/httpserver/mw"
)

type (
	Registrar func(r chi.Router, d deps.Deps)
	// Middleware builds a middleware once deps are known.
	Middleware func(d deps.Deps) func(http.Handler) http.Handler
)

type entry struct {
	reg Registrar
	mws []Middleware
}

var registry []entry

// Register a registrar with optional middlewares shared by all of its routes.
func Register(reg Registrar, mws ...Middleware) {
	registry = append(registry, entry{reg: reg, mws: mws})
}

// RegisterAll is called once from server.NewRouter.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, e := range registry {
		if len(e.mws) == 0 {
			e.reg(r, d)
			continue
		}
		built := make([]func(http.Handler) http.Handler, 0, len(e.mws))
		for _, m := range e.mws {
			built = append(built, m(d))
		}
		e.reg(r.With(built...), d)
	}
}

// adminCIDRs restricts a route to MEMENTO_ALLOWED_CIDRS.
func adminCIDRs(d deps.Deps) func(http.Handler) http.Handler {
	return mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)
}

// adminHost restricts a route to MEMENTO_ALLOWED_HOSTS.
func adminHost(d deps.Deps) func(http.Handler) http.Handler {
	return mw.EnforceHost(d.AllowedHosts, d.Logger)
}

// ingestToken requires MEMENTO_INGEST_TOKEN as a bearer token when set.
func ingestToken(d deps.Deps) func(http.Handler) http.Handler {
	return mw.RequireToken(d.IngestToken, d.Logger)
}

// publicRateLimit is one per-IP limiter shared by every route of a registrar.
func publicRateLimit(d deps.Deps) func(http.Handler) http.Handler {
	return mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.RateBurst,
		RefillPerIPPerMin: d.RatePerMin,
		MaxEntries:        10000,
		TrustProxy:        d.TrustProxy,
	})
}
