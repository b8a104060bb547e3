package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/memento/internal/httpserver/deps"
	"github.com/MrSnakeDoc/memento/internal/httpserver/handlers"
)

func init() { Register(registerReadyz, adminCIDRs) }

func registerReadyz(r chi.Router, d deps.Deps) {
	r.Get("/readyz", handlers.Readyz(d))
}
