package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// ReferenceRefresher reloads the cached reference lists.
type ReferenceRefresher interface {
	Refresh(ctx context.Context) error
}

// ReferenceSyncWorker periodically refreshes the category, manufacturer and
// discount lists so form loads rarely hit the backend.
type ReferenceSyncWorker struct {
	refs     ReferenceRefresher
	interval time.Duration
}

// NewReferenceSyncWorker constructs a ReferenceSyncWorker.
func NewReferenceSyncWorker(refs ReferenceRefresher, interval time.Duration) *ReferenceSyncWorker {
	return &ReferenceSyncWorker{
		refs:     refs,
		interval: interval,
	}
}

// Start begins the periodic sync loop and listens for context cancellation.
// A zero interval disables the worker.
func (w *ReferenceSyncWorker) Start(ctx context.Context) {
	if w.interval <= 0 {
		log.Info().Msg("Reference sync worker disabled")
		return
	}
	log.Info().Dur("interval", w.interval).Msg("Starting reference sync worker")

	// Run immediately on start
	w.run(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Reference sync worker stopped")
			return
		}
	}
}

func (w *ReferenceSyncWorker) run(ctx context.Context) {
	start := time.Now()
	if err := w.refs.Refresh(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to refresh reference lists")
		return
	}
	log.Debug().Dur("duration", time.Since(start)).Msg("Reference lists refreshed")
}
