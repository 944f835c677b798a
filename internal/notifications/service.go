// Package notifications dispatches incident mail: synchronous critical
// alerts, background assignment notices, and the daily overdue digest.
package notifications

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/safetydesk/safetydesk/internal/domain"
	"github.com/safetydesk/safetydesk/internal/notifications/email"
	"github.com/safetydesk/safetydesk/internal/pkg/ctxlog"
)

// dueSoonWindow marks assignments whose due date is this close.
const dueSoonWindow = 3 * 24 * time.Hour

// Config controls the dispatcher.
type Config struct {
	Enabled         bool
	AlertRecipients []string
}

// MailSender delivers one rendered message. Satisfied by the SMTP
// sender in the email subpackage.
type MailSender interface {
	Send(ctx context.Context, subject, body string, html bool, recipients []string) error
}

// EmailLookup resolves a user's email address. Satisfied by the catalog
// service.
type EmailLookup interface {
	UserEmail(ctx context.Context, userID int64) (string, error)
}

// ActionSource supplies the overdue actions for the digest. Satisfied
// by the incidents repository.
type ActionSource interface {
	ListOverdueActions(ctx context.Context) ([]domain.Action, error)
}

// Service renders and dispatches notifications. It implements the
// incidents.Notifier interface.
type Service struct {
	config   Config
	sender   MailSender
	renderer *Renderer
	queue    *Queue
	users    EmailLookup
	actions  ActionSource
}

// NewService creates a notification dispatcher.
func NewService(config Config, sender MailSender, renderer *Renderer, queue *Queue, users EmailLookup, actions ActionSource) *Service {
	// Configured recipient entries may themselves hold several
	// addresses separated by commas or semicolons.
	var recipients []string
	for _, entry := range config.AlertRecipients {
		recipients = append(recipients, email.SplitRecipients(entry)...)
	}
	config.AlertRecipients = recipients

	return &Service{
		config:   config,
		sender:   sender,
		renderer: renderer,
		queue:    queue,
		users:    users,
		actions:  actions,
	}
}

// SendCriticalAlert mails the configured alert recipients about a
// critical incident. Synchronous: the error is returned to the caller.
func (s *Service) SendCriticalAlert(ctx context.Context, incident *domain.Incident) error {
	logger := ctxlog.FromContext(ctx)

	if !s.config.Enabled {
		logger.Info("notifications disabled, skipping critical alert", "incident_id", incident.ID)
		return nil
	}

	subject, body, err := s.renderer.RenderCriticalAlert(incident)
	if err != nil {
		recordSent("critical_alert", "failed")
		return fmt.Errorf("render critical alert: %w", err)
	}

	start := time.Now()
	if err := s.sender.Send(ctx, subject, body, true, s.config.AlertRecipients); err != nil {
		recordSent("critical_alert", "failed")
		return fmt.Errorf("send critical alert: %w", err)
	}

	recordSent("critical_alert", "success")
	recordSendDuration("critical_alert", time.Since(start))
	logger.Info("critical alert sent",
		"incident_id", incident.ID, "recipient_count", len(s.config.AlertRecipients))
	return nil
}

// NotifyActionAssigned queues an assignment notice for the action's
// assignee. Fire and forget: failures are logged, never returned.
func (s *Service) NotifyActionAssigned(ctx context.Context, action *domain.Action) {
	logger := ctxlog.FromContext(ctx)

	if !s.config.Enabled {
		logger.Info("notifications disabled, skipping assignment notice", "action_id", action.ID)
		return
	}

	address := action.AssignedToEmail
	if address == "" {
		resolved, err := s.users.UserEmail(ctx, action.AssignedToID)
		if err != nil {
			logger.Error("failed to resolve assignee email",
				"action_id", action.ID, "user_id", action.AssignedToID, "error", err)
			return
		}
		address = resolved
	}
	if address == "" {
		logger.Info("assignee has no email, skipping assignment notice",
			"action_id", action.ID, "user_id", action.AssignedToID)
		return
	}

	dueSoon := action.DueDate != nil &&
		action.DueDate.After(time.Now()) &&
		action.DueDate.Before(time.Now().Add(dueSoonWindow))

	subject, body, err := s.renderer.RenderActionAssigned(action, dueSoon)
	if err != nil {
		logger.Error("failed to render assignment notice", "action_id", action.ID, "error", err)
		return
	}

	s.queue.Submit(ctx, Task{
		ID:   uuid.New(),
		Kind: "action_assigned",
		Run: func(ctx context.Context) error {
			return s.sender.Send(ctx, subject, body, false, []string{address})
		},
	})
}

// SendOverdueDigest queues one digest message per assignee holding
// overdue actions. Returns the number of digests queued; send failures
// are logged by the queue, never returned.
func (s *Service) SendOverdueDigest(ctx context.Context) (int, error) {
	logger := ctxlog.FromContext(ctx)

	if !s.config.Enabled {
		logger.Info("notifications disabled, skipping overdue digest")
		return 0, nil
	}

	actions, err := s.actions.ListOverdueActions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list overdue actions: %w", err)
	}
	if len(actions) == 0 {
		logger.Info("no overdue actions, digest skipped")
		return 0, nil
	}

	now := time.Now()
	grouped := make(map[int64][]DigestItem)
	for _, action := range actions {
		grouped[action.AssignedToID] = append(grouped[action.AssignedToID], DigestItem{
			Action:      action,
			DaysOverdue: action.DaysOverdue(now),
		})
	}

	// Stable ordering keeps the queue contents deterministic.
	assignees := make([]int64, 0, len(grouped))
	for id := range grouped {
		assignees = append(assignees, id)
	}
	sort.Slice(assignees, func(i, j int) bool { return assignees[i] < assignees[j] })

	queued := 0
	for _, assigneeID := range assignees {
		items := grouped[assigneeID]

		address := items[0].Action.AssignedToEmail
		if address == "" {
			resolved, err := s.users.UserEmail(ctx, assigneeID)
			if err != nil {
				logger.Error("failed to resolve digest recipient",
					"user_id", assigneeID, "error", err)
				continue
			}
			address = resolved
		}
		if address == "" {
			logger.Info("digest recipient has no email, skipping", "user_id", assigneeID)
			continue
		}

		subject, body, err := s.renderer.RenderOverdueDigest(items[0].Action.AssignedToName, items)
		if err != nil {
			logger.Error("failed to render digest", "user_id", assigneeID, "error", err)
			continue
		}

		if s.queue.Submit(ctx, Task{
			ID:   uuid.New(),
			Kind: "overdue_digest",
			Run: func(ctx context.Context) error {
				return s.sender.Send(ctx, subject, body, false, []string{address})
			},
		}) {
			queued++
		}
	}

	logger.Info("overdue digest queued", "assignees", len(grouped), "queued", queued)
	return queued, nil
}
