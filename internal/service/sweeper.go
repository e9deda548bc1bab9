package service

import (
	"context"
	"errors"
	"time"

	"shelf/internal/logger"
)

// Refresher re-evaluates the controller against the current time.
type Refresher interface {
	Refresh(ctx context.Context) error
}

type SweeperService struct {
	home Refresher
	log  *logger.Logger
}

func NewSweeperService(home Refresher, log *logger.Logger) *SweeperService {
	if log == nil {
		log = logger.NewNop()
	}
	return &SweeperService{home: home, log: log.Component("sweeper")}
}

// Run refreshes once per tick until ctx is cancelled. A non-positive tick defaults to one second.
func (s *SweeperService) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		tick = time.Second
	}
	t := time.NewTicker(tick)
	defer t.Stop()

	s.log.Infow("sweeper_started", "interval", tick.String())
	for {
		select {
		case <-ctx.Done():
			s.log.Infow("sweeper_stopped")
			return
		case <-t.C:
			if err := s.home.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.log.Warnw("sweep_failed", "err", err)
			}
		}
	}
}
