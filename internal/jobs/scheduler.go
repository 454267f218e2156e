package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// AssignmentChecker is the store query the integrity sweep runs.
type AssignmentChecker interface {
	CountDanglingAssignments(ctx context.Context) (int, error)
}

// Scheduler runs the nightly assignment-integrity sweep. The restrict
// foreign key should keep the dangling count at zero; a non-zero count
// means the block-on-delete invariant was bypassed somewhere and is
// worth a loud log line.
type Scheduler struct {
	cron     *cron.Cron
	accounts AssignmentChecker
	log      zerolog.Logger
}

func NewScheduler(accounts AssignmentChecker, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		accounts: accounts,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 0 3 * * *", s.sweepAssignments); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits for any running sweep to finish, bounded at five seconds.
func (s *Scheduler) Stop() {
	select {
	case <-s.cron.Stop().Done():
	case <-time.After(5 * time.Second):
	}
}

func (s *Scheduler) sweepAssignments() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	count, err := s.accounts.CountDanglingAssignments(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("assignment integrity sweep failed")
		return
	}

	if count > 0 {
		s.log.Error().Int("dangling", count).Msg("patients with unresolved doctor references")
		return
	}
	s.log.Debug().Msg("assignment integrity sweep clean")
}
