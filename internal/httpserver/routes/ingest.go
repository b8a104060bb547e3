package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/memento/internal/httpserver/deps"
	"github.com/MrSnakeDoc/memento/internal/httpserver/handlers"
)

func init() { Register(registerIngest, adminCIDRs, adminHost, ingestToken) }

// registerIngest mounts the write endpoint only behind a client restriction:
// a Host header alone is not one, any client can send it.
func registerIngest(r chi.Router, d deps.Deps) {
	if len(d.AllowedCIDRS) == 0 && d.IngestToken == "" {
		d.Logger.Warn("POST /mementos disabled, set MEMENTO_ALLOWED_CIDRS or MEMENTO_INGEST_TOKEN to enable it")
		return
	}
	r.Post("/mementos", handlers.Ingest(d))
}
