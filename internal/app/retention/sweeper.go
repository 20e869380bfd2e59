// Package retention runs the out-of-band cleanup the request path never
// performs: old exchanges, delivered relay messages and expired menu contexts.
package retention

import (
	"context"
	"time"

	"github.com/pixelharbor/concierge/internal/app/menu"
	"github.com/pixelharbor/concierge/internal/domain"
	"github.com/pixelharbor/concierge/internal/observability"
)

// Sweeper deletes records older than the retention window on a fixed
// interval.
type Sweeper struct {
	exchanges domain.ExchangeStore
	relay     domain.RelayStore
	navigator *menu.Navigator
	window    time.Duration
	interval  time.Duration
	now       func() time.Time
}

func NewSweeper(
	exchanges domain.ExchangeStore,
	relay domain.RelayStore,
	navigator *menu.Navigator,
	window, interval time.Duration,
) *Sweeper {
	return &Sweeper{
		exchanges: exchanges,
		relay:     relay,
		navigator: navigator,
		window:    window,
		interval:  interval,
		now:       time.Now,
	}
}

// Run sweeps once at startup and then on every tick until ctx is cancelled.
// Intended to be started as a goroutine from main.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.SweepOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce performs a single cleanup pass. Each deletion is independent and
// failures are logged without stopping the others.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	log := observability.Logger()
	cutoff := s.now().Add(-s.window)

	if n, err := s.exchanges.DeleteExchangesBefore(ctx, cutoff); err != nil {
		log.Error("failed to clean up old exchanges", "error", err)
	} else if n > 0 {
		log.Info("cleaned up old exchanges", "count", n)
	}

	if n, err := s.relay.DeleteDeliveredBefore(ctx, cutoff); err != nil {
		log.Error("failed to clean up delivered relay messages", "error", err)
	} else if n > 0 {
		log.Info("cleaned up delivered relay messages", "count", n)
	}

	if n := s.navigator.Sweep(); n > 0 {
		log.Info("dropped expired menu contexts", "count", n)
	}
}
