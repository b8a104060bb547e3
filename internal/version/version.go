// Package version holds build metadata reported by /healthz and the startup log.
//
// Set at build time, e.g.:
//
//	go build -ldflags "-X github.com/MrSnakeDoc/memento/internal/version.Version=v0.1.0" ./cmd/memento
package version

import (
	"runtime"
	"time"
)

var (
	Version   = "dev"                           // ex: v0.1.0
	Commit    = "none"                          // ex: abcd123
	BuildDate = time.Now().Format(time.RFC3339) // ex: 2026-10-16T18:42:00Z
	GoVersion = runtime.Version()
)
