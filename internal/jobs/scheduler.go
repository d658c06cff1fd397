package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Scheduler runs the recurring background jobs (nightly insight
// generation) on cron expressions.
type Scheduler struct {
	scheduler  gocron.Scheduler
	instanceID string
	loc        *time.Location
}

func NewScheduler(loc *time.Location) (*Scheduler, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(loc),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		scheduler:  scheduler,
		instanceID: uuid.New().String(),
		loc:        loc,
	}, nil
}

// Register adds a job on a standard 5-field cron expression. The
// expression is validated up front so a bad config fails at startup, not
// at first trigger.
func (s *Scheduler) Register(name, cronExpr string, task func()) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(cronExpr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}

	cronWithTZ := fmt.Sprintf("CRON_TZ=%s %s", s.loc.String(), cronExpr)
	_, err := s.scheduler.NewJob(
		gocron.CronJob(cronWithTZ, false),
		gocron.NewTask(task),
		gocron.WithName(name),
	)
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", name, err)
	}

	log.Printf("📅 Registered job %s (cron: %s, tz: %s)", name, cronExpr, s.loc)
	return nil
}

// Start begins executing registered jobs.
func (s *Scheduler) Start() {
	s.scheduler.Start()
	log.Printf("🚀 Job scheduler started (instance: %s)", s.instanceID)
}

// Stop shuts the scheduler down, waiting for running jobs.
func (s *Scheduler) Stop() {
	if err := s.scheduler.Shutdown(); err != nil {
		log.Printf("⚠️ Scheduler shutdown error: %v", err)
	}
}
