package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/memento/internal/httpserver/deps"
	"github.com/MrSnakeDoc/memento/internal/httpserver/handlers"
)

func init() { Register(registerMemento, publicRateLimit) }

// registerMemento mounts the public Memento routes.
func registerMemento(r chi.Router, d deps.Deps) {
	r.Get("/timegate/*", handlers.TimeGate(d))
	r.Get("/timemap/link/*", handlers.TimeMap(d))
	r.Get("/timemap/page/{page}/*", handlers.TimeMapPage(d))
	r.Get("/memento/{id}", handlers.Memento(d))
}
