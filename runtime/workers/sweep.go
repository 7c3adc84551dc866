package workers

import (
	"chat-room/services"
	"context"
	"log/slog"
	"time"
)

// SweepWorker turns silence into departures. Every interval it takes a
// staleness snapshot at tick start and asks the presence service to
// evict everyone who has not heartbeated within the threshold. It owns
// no request-path state: the shared store is the only communication
// channel with the request handlers.
type SweepWorker struct {
	log       *slog.Logger
	presence  services.IPresenceService
	interval  time.Duration
	threshold time.Duration
}

func NewSweepWorker(
	log *slog.Logger,
	presence services.IPresenceService,
	interval, threshold time.Duration,
) *SweepWorker {
	return &SweepWorker{
		log:       log,
		presence:  presence,
		interval:  interval,
		threshold: threshold,
	}
}

func (w *SweepWorker) Run(ctx context.Context) error {
	w.log.Info("Starting presence sweep worker", "interval", w.interval, "threshold", w.threshold)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case tick := <-ticker.C:
			// One cutoff per tick: every participant is judged
			// against the same staleness snapshot.
			if err := w.presence.EvictStale(tick.UTC().Add(-w.threshold)); err != nil {
				w.log.Error("Sweep tick failed", "err", err)
			}
		}
	}
}
