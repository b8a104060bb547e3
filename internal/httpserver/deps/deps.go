package deps

import (
	"time"

	"github.com/MrSnakeDoc/memento/internal/domain"
	"github.com/MrSnakeDoc/memento/internal/linker"
	"github.com/MrSnakeDoc/memento/internal/logger"
)

// ReloadStatus reports the last successful manifest reload.
type ReloadStatus interface {
	LastReload() (time.Time, int)
}

type Deps struct {
	Logger          logger.Logger
	StartTime       time.Time
	Version         string
	Commit          string
	BuildDate       string
	GoVersion       string
	TimeNow         func() time.Time   // for testing, defaults to time.Now
	AllowedHosts    []string           // Host headers allowed to access admin routes
	AllowedCIDRS    []string           // IPs allowed to access admin routes
	TrustProxy      bool               // true if running behind a trusted reverse proxy (e.g., cloudflared)
	IngestToken     string             // Bearer token required by POST /mementos, empty = none
	Archive         domain.Archive     // Memento storage backend
	Backend         string             // Name of the archive backend, reported by /status
	Negotiator      *domain.Negotiator // TimeGate negotiator over Archive
	Linker          *linker.Linker     // Absolute URL builder
	TimeMapPageSize int                // Mementos per TimeMap page, 0 = never paginate
	IncludeTimeGate bool               // Add timegate relations to TimeMaps and memento Link headers
	RateBurst       int                // Per-IP burst on public routes
	RatePerMin      int                // Per-IP refill rate on public routes
	ReloadTrigger   chan struct{}      // Channel to trigger manual manifest reload (nil if manifest disabled)
	Reloader        ReloadStatus       // Manifest reload status (nil if manifest disabled)
}
