package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// ImageSweeper deletes staged images no live draft refers to.
type ImageSweeper interface {
	SweepImages(ctx context.Context, olderThan time.Duration) (int, error)
}

// ImageSweepWorker periodically removes images left behind by drafts that
// expired or were abandoned.
type ImageSweepWorker struct {
	images   ImageSweeper
	interval time.Duration
	grace    time.Duration
}

// NewImageSweepWorker constructs an ImageSweepWorker. Images younger than
// grace are never touched.
func NewImageSweepWorker(images ImageSweeper, interval, grace time.Duration) *ImageSweepWorker {
	return &ImageSweepWorker{
		images:   images,
		interval: interval,
		grace:    grace,
	}
}

// Start begins the periodic sweep loop and listens for context cancellation.
// A zero interval disables the worker.
func (w *ImageSweepWorker) Start(ctx context.Context) {
	if w.interval <= 0 {
		log.Info().Msg("Image sweep worker disabled")
		return
	}
	log.Info().Dur("interval", w.interval).Dur("grace", w.grace).Msg("Starting image sweep worker")

	w.run(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Image sweep worker stopped")
			return
		}
	}
}

func (w *ImageSweepWorker) run(ctx context.Context) {
	removed, err := w.images.SweepImages(ctx, w.grace)
	if err != nil {
		log.Error().Err(err).Msg("Failed to sweep staged images")
		return
	}
	if removed > 0 {
		log.Info().Int("removed", removed).Msg("Orphaned images removed")
	}
}
