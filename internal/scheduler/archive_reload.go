package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/memento/internal/domain"
	"github.com/MrSnakeDoc/memento/internal/logger"
	"github.com/MrSnakeDoc/memento/internal/sources/manifest"
)

// ArchiveReloader periodically loads the archive manifest into an archive.
// Reloads upsert: mementos removed from the manifest stay in the archive.
type ArchiveReloader struct {
	loader        *manifest.Loader
	mapper        *manifest.Mapper
	archive       domain.Archive
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}

	mu         sync.RWMutex
	lastReload time.Time
	loaded     int
}

// NewArchiveReloader creates a new archive reloader
func NewArchiveReloader(
	manifestFile string,
	archive domain.Archive,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *ArchiveReloader {
	return &ArchiveReloader{
		loader:        manifest.NewLoader(manifestFile),
		mapper:        manifest.NewMapper(),
		archive:       archive,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start loads the manifest once, then keeps reloading it in the background
// on every tick and on every manual trigger.
func (ar *ArchiveReloader) Start(ctx context.Context) error {
	if err := ar.Reload(ctx); err != nil {
		return fmt.Errorf("initial reload failed: %w", err)
	}

	// A zero interval disables periodic reloads; manual triggers still work.
	var tick <-chan time.Time
	stopTicker := func() {}
	if ar.interval > 0 {
		ticker := time.NewTicker(ar.interval)
		tick, stopTicker = ticker.C, ticker.Stop
	}

	go ar.loop(ctx, tick, stopTicker)
	return nil
}

func (ar *ArchiveReloader) loop(ctx context.Context, tick <-chan time.Time, stopTicker func()) {
	defer stopTicker()
	for {
		select {
		case <-tick:
			if err := ar.Reload(ctx); err != nil {
				ar.logger.Error("failed to reload archive manifest",
					logger.Error(err))
			}
		case <-ar.manualTrigger:
			ar.logger.Info("manual reload triggered")
			if err := ar.Reload(ctx); err != nil {
				ar.logger.Error("failed to reload archive manifest",
					logger.Error(err))
			}
		case <-ar.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop stops the reloader
func (ar *ArchiveReloader) Stop() {
	ar.stopOnce.Do(func() { close(ar.stopCh) })
}

// Reload loads the manifest and saves its mementos into the archive
func (ar *ArchiveReloader) Reload(ctx context.Context) error {
	ar.logger.Info("reloading archive manifest",
		logger.String("file", ar.loader.Path()))

	doc, err := ar.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}

	mementos, skipped, err := ar.mapper.MapMementos(doc)
	for _, s := range skipped {
		ar.logger.Warn("skipping manifest entry",
			logger.String("original", s.Original),
			logger.String("location", s.Location),
			logger.String("reason", s.Reason))
	}
	if err != nil {
		return fmt.Errorf("failed to map manifest: %w", err)
	}

	if err := ar.archive.Save(ctx, mementos...); err != nil {
		return fmt.Errorf("failed to save mementos: %w", err)
	}

	ar.mu.Lock()
	ar.lastReload = time.Now()
	ar.loaded = len(mementos)
	ar.mu.Unlock()

	ar.logger.Info("archive manifest loaded",
		logger.Int("mementos", len(mementos)),
		logger.Int("skipped", len(skipped)))
	return nil
}

// LastReload returns the time of the last successful reload and the
// number of mementos it loaded.
func (ar *ArchiveReloader) LastReload() (time.Time, int) {
	ar.mu.RLock()
	defer ar.mu.RUnlock()
	return ar.lastReload, ar.loaded
}
