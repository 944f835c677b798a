package notifications

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/safetydesk/safetydesk/internal/pkg/ctxlog"
)

// Scheduler runs the overdue digest on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	service *Service
}

// NewScheduler schedules the digest with a standard 5-field cron
// expression.
func NewScheduler(schedule string, service *Service) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{cron: c, service: service}

	if _, err := c.AddFunc(schedule, s.runDigest); err != nil {
		return nil, fmt.Errorf("invalid digest schedule %q: %w", schedule, err)
	}

	return s, nil
}

// Start begins running scheduled jobs in their own goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	ctxlog.FromContext(ctx).Info("digest scheduler started")
	s.cron.Start()
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runDigest() {
	ctx := context.Background()
	if _, err := s.service.SendOverdueDigest(ctx); err != nil {
		ctxlog.FromContext(ctx).Error("scheduled digest failed", "error", err)
	}
}
