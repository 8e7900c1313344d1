package files

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/pkg/errors"

	"github.com/trezcool/artlearn/core"
)

// OrphanSweeper is implemented by material.Service.
type OrphanSweeper interface {
	SweepOrphans(ctx context.Context, minAge time.Duration) (int, error)
}

// Sweeper periodically deletes uploaded files that no material refers to.
// A file must be older than one interval to be swept, so uploads in flight are left alone.
type Sweeper struct {
	scheduler *gocron.Scheduler
	svc       OrphanSweeper
	interval  time.Duration
	logger    core.Logger
}

func NewSweeper(svc OrphanSweeper, interval time.Duration, logger core.Logger) *Sweeper {
	return &Sweeper{
		scheduler: gocron.NewScheduler(time.UTC),
		svc:       svc,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the sweep, first run after one interval. It does nothing when the interval is not positive.
func (s *Sweeper) Start() error {
	if s.interval <= 0 {
		return nil
	}
	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(s.run)
	if err != nil {
		return errors.Wrap(err, "scheduling orphan sweep")
	}
	s.scheduler.StartAsync()
	return nil
}

func (s *Sweeper) Stop() {
	s.scheduler.Stop()
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.svc.SweepOrphans(ctx, s.interval)
	if err != nil {
		s.logger.Error(fmt.Sprintf("sweeping orphan uploads: %v", err), err)
		return
	}
	if n > 0 {
		s.logger.Info(fmt.Sprintf("swept %d orphan upload(s)", n))
	}
}
