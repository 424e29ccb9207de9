package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"dealsweep/config"
)

// RunFunc performs one full export run. ErrAlreadyRunning from the run
// layer is expected when a schedule fires while a run is still going.
type RunFunc func(ctx context.Context) error

// Scheduler repeats export runs on a cron expression or fixed interval.
type Scheduler struct {
	cfg    *config.SchedulerConfig
	run    RunFunc
	cron   *cron.Cron
	ticker *time.Ticker
	stopCh chan struct{}
}

func New(cfg *config.SchedulerConfig, run RunFunc) *Scheduler {
	return &Scheduler{
		cfg:    cfg,
		run:    run,
		cron:   cron.New(),
		stopCh: make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	switch {
	case s.cfg.Cron != "":
		log.Printf("Scheduling runs with cron: %s", s.cfg.Cron)
		_, err := s.cron.AddFunc(s.cfg.Cron, func() { s.fire(ctx) })
		if err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		s.cron.Start()
	case s.cfg.Interval > 0:
		log.Printf("Scheduling runs every %s", s.cfg.Interval)
		s.ticker = time.NewTicker(s.cfg.Interval)
		go func() {
			for {
				select {
				case <-s.ticker.C:
					s.fire(ctx)
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	default:
		return fmt.Errorf("no schedule configured: set SCRAPE_CRON or SCRAPE_INTERVAL")
	}

	return nil
}

func (s *Scheduler) fire(ctx context.Context) {
	if err := s.run(ctx); err != nil {
		log.Printf("Scheduled run error: %v", err)
	}
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
}
