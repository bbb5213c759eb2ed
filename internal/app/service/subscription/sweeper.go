package subscription

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Sweeper runs the expiry sweep once at start and then on a fixed daily
// schedule, independent of request handlers.
type Sweeper struct {
	svc      *Service
	log      *zap.SugaredLogger
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

func NewSweeper(svc *Service, log *zap.SugaredLogger) *Sweeper {
	return &Sweeper{
		svc:      svc,
		log:      log,
		interval: 24 * time.Hour,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (w *Sweeper) run() {
	defer close(w.done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Infow("subscription expiry sweeper started", "interval", w.interval)
	w.sweep()

	for {
		select {
		case <-ticker.C:
			w.sweep()
		case <-w.stop:
			return
		}
	}
}

func (w *Sweeper) sweep() {
	expired, err := w.svc.ExpireDue(context.Background())
	if err != nil {
		w.log.Errorw("subscription expiry sweep failed", "err", err)
		return
	}
	if expired > 0 {
		w.log.Infow("subscription expiry sweep completed", "expired", expired)
	}
}

func registerSweeper(lc fx.Lifecycle, w *Sweeper) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go w.run()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			close(w.stop)
			select {
			case <-w.done:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		},
	})
}
