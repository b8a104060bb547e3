package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/memento/internal/httpserver/deps"
)

type componentStatus struct {
	OK         bool   `json:"ok"`
	Backend    string `json:"backend,omitempty"`
	Originals  *int   `json:"originals,omitempty"`
	Loaded     *int   `json:"mementos_loaded,omitempty"`
	LastReload string `json:"last_reload,omitempty"`
	Mode       string `json:"mode,omitempty"`
	Error      string `json:"error,omitempty"`
}

type statusResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Status reports the state of the archive and of the manifest reloader.
func Status(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")

		components := map[string]componentStatus{
			"archive":  archiveStatus(r, d),
			"manifest": manifestStatus(d),
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(statusResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func archiveStatus(r *http.Request, d deps.Deps) componentStatus {
	if err := checkArchive(r.Context(), d); err != nil {
		return componentStatus{OK: false, Backend: d.Backend, Error: err.Error()}
	}
	n, err := d.Archive.Originals(r.Context())
	if err != nil {
		return componentStatus{OK: false, Backend: d.Backend, Error: err.Error()}
	}
	return componentStatus{OK: true, Backend: d.Backend, Originals: &n}
}

func manifestStatus(d deps.Deps) componentStatus {
	if d.Reloader == nil {
		return componentStatus{OK: true, Mode: "disabled"}
	}

	last, loaded := d.Reloader.LastReload()
	if last.IsZero() {
		return componentStatus{OK: false, Mode: "enabled", LastReload: "never"}
	}
	return componentStatus{
		OK:         true,
		Mode:       "enabled",
		Loaded:     &loaded,
		LastReload: last.Format("2006-01-02 15:04:05"),
	}
}

func determineMode(components map[string]componentStatus) string {
	// Without the archive nothing can be negotiated
	if archive, exists := components["archive"]; exists && !archive.OK {
		return "critical"
	}

	// A failing manifest leaves ingested mementos available
	if manifest, exists := components["manifest"]; exists && !manifest.OK {
		return "degraded"
	}

	return "operational"
}
