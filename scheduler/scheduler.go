package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/easytrack/easytrack-api/services"
)

// Scheduler runs the daily recurring-transaction pass.
type Scheduler struct {
	cron      *cron.Cron
	recurring *services.RecurringService
	log       *logrus.Logger
}

func New(recurring *services.RecurringService, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		recurring: recurring,
		log:       log,
	}
}

// Start registers the daily job and launches the cron loop. The pass also
// runs once at startup so templates that came due while the service was down
// are picked up immediately.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc("@daily", s.run)
	if err != nil {
		return err
	}
	s.cron.Start()

	go s.run()
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	processed, err := s.recurring.Process(ctx, time.Now())
	if err != nil {
		s.log.WithError(err).Error("recurring transaction pass failed")
		return
	}
	s.log.WithField("processed", processed).Info("recurring transaction pass finished")
}
