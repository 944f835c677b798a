package incidents

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/safetydesk/safetydesk/internal/domain"
	"github.com/safetydesk/safetydesk/internal/pkg/ctxlog"
)

// Title length limit in characters.
const maxTitleLength = 200

// incidentDateWindow is how far back an incident date may lie.
const incidentDateWindow = 10 // years

// Default pagination values.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// AlertPolicy controls when a critical alert fires after create.
type AlertPolicy struct {
	Enabled           bool
	CriticalThreshold int
}

// Notifier sends incident notifications. The critical alert is
// synchronous and reports failure; assignment notifications are
// fire-and-forget.
type Notifier interface {
	SendCriticalAlert(ctx context.Context, incident *domain.Incident) error
	NotifyActionAssigned(ctx context.Context, action *domain.Action)
}

// Service implements incident lifecycle logic.
type Service struct {
	repo     Repository
	notifier Notifier
	policy   AlertPolicy
}

// NewService creates a new incident service. notifier may be nil when
// notifications are disabled.
func NewService(repo Repository, notifier Notifier, policy AlertPolicy) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		policy:   policy,
	}
}

// IncidentInput holds the full writable field set of an incident.
type IncidentInput struct {
	Title            string
	Description      string
	SeverityLevel    int
	IncidentDate     time.Time
	LocationID       int64
	DepartmentID     int64
	CategoryID       int64
	ReportedByID     int64
	Status           domain.IncidentStatus
	RootCause        string
	InjuriesInvolved bool
	WitnessCount     int
	EstimatedCost    *float64
	ClosedByID       *int64
}

func (in IncidentInput) toDomain() *domain.Incident {
	return &domain.Incident{
		Title:            strings.TrimSpace(in.Title),
		Description:      in.Description,
		SeverityLevel:    in.SeverityLevel,
		IncidentDate:     in.IncidentDate,
		LocationID:       in.LocationID,
		DepartmentID:     in.DepartmentID,
		CategoryID:       in.CategoryID,
		ReportedByID:     in.ReportedByID,
		Status:           in.Status,
		RootCause:        in.RootCause,
		InjuriesInvolved: in.InjuriesInvolved,
		WitnessCount:     in.WitnessCount,
		EstimatedCost:    in.EstimatedCost,
		ClosedByID:       in.ClosedByID,
	}
}

// validate checks every rule and reports all violations together.
// Boundary values (exactly now, exactly ten years ago, exactly 200
// characters) are accepted.
func validateIncident(in IncidentInput, requireStatus bool) error {
	now := time.Now()
	verr := &ValidationError{}

	if strings.TrimSpace(in.Title) == "" {
		verr.add("title is required")
	} else if utf8.RuneCountInString(strings.TrimSpace(in.Title)) > maxTitleLength {
		verr.add(fmt.Sprintf("title cannot exceed %d characters", maxTitleLength))
	}

	if in.SeverityLevel < domain.SeverityMin || in.SeverityLevel > domain.SeverityMax {
		verr.add(fmt.Sprintf("severity must be between %d and %d", domain.SeverityMin, domain.SeverityMax))
	}

	if in.IncidentDate.IsZero() {
		verr.add("incident date is required")
	} else {
		if in.IncidentDate.After(now) {
			verr.add("incident date cannot be in the future")
		}
		if in.IncidentDate.Before(now.AddDate(-incidentDateWindow, 0, 0)) {
			verr.add(fmt.Sprintf("incident date cannot be more than %d years in the past", incidentDateWindow))
		}
	}

	if in.WitnessCount < 0 {
		verr.add("witness count cannot be negative")
	}

	if in.EstimatedCost != nil && *in.EstimatedCost < 0 {
		verr.add("estimated cost cannot be negative")
	}

	if requireStatus && !in.Status.IsValid() {
		verr.add(fmt.Sprintf("invalid status: %q", in.Status))
	}

	return verr.orNil()
}

// List returns a page of non-archived incidents with the total count.
func (s *Service) List(ctx context.Context, params ListParams) ([]domain.Incident, int, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > MaxPageSize {
		params.PageSize = DefaultPageSize
	}

	return s.repo.List(ctx, params)
}

// GetByID returns an incident with resolved display names. Archived
// incidents remain retrievable by id.
func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Incident, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates and records a new incident, returning its id. Status
// always starts as Open. When the severity reaches the configured
// threshold a critical alert is sent synchronously; alert failures are
// logged and never fail the create.
func (s *Service) Create(ctx context.Context, input IncidentInput) (int64, error) {
	if err := validateIncident(input, false); err != nil {
		return 0, err
	}

	incident := input.toDomain()
	incident.Status = domain.StatusOpen

	id, err := s.repo.Create(ctx, incident)
	if err != nil {
		return 0, fmt.Errorf("create incident: %w", err)
	}

	s.maybeSendCriticalAlert(ctx, id, input.SeverityLevel)

	return id, nil
}

func (s *Service) maybeSendCriticalAlert(ctx context.Context, id int64, severity int) {
	if s.notifier == nil || !s.policy.Enabled || severity < s.policy.CriticalThreshold {
		return
	}

	logger := ctxlog.FromContext(ctx)

	// Re-read by id so the alert carries resolved display names.
	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		logger.Error("failed to load incident for critical alert", "incident_id", id, "error", err)
		return
	}

	if err := s.notifier.SendCriticalAlert(ctx, incident); err != nil {
		logger.Error("critical alert failed", "incident_id", id, "error", err)
	}
}

// Update validates and replaces the full field set of an incident.
// Returns false when no row was modified.
func (s *Service) Update(ctx context.Context, id int64, input IncidentInput) (bool, error) {
	if err := validateIncident(input, true); err != nil {
		return false, err
	}

	incident := input.toDomain()
	incident.ID = id

	modified, err := s.repo.Update(ctx, incident)
	if err != nil {
		return false, fmt.Errorf("update incident: %w", err)
	}
	return modified, nil
}

// Delete archives an incident. Archived incidents disappear from
// listings but stay retrievable by id. Returns false when no row was
// modified.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	archived, err := s.repo.Archive(ctx, id)
	if err != nil {
		return false, fmt.Errorf("archive incident: %w", err)
	}
	return archived, nil
}

// Search returns incidents matching the filters with the total count.
// Absent filters do not narrow the result.
func (s *Service) Search(ctx context.Context, filters SearchFilters) ([]domain.Incident, int, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 || filters.PageSize > MaxPageSize {
		filters.PageSize = DefaultPageSize
	}

	return s.repo.Search(ctx, filters)
}

// ActionInput holds the writable field set of a follow-up action.
type ActionInput struct {
	Description   string
	Type          string
	AssignedToID  int64
	CreatedByID   int64
	DueDate       *time.Time
	CompletedDate *time.Time
	Status        string
	Notes         string
}

func validateAction(in ActionInput) (domain.ActionType, error) {
	verr := &ValidationError{}

	if strings.TrimSpace(in.Description) == "" {
		verr.add("action description is required")
	}

	actionType, err := domain.ParseActionType(in.Type)
	if err != nil {
		verr.add(err.Error())
	}

	return actionType, verr.orNil()
}

// ListActions returns all actions for an incident.
func (s *Service) ListActions(ctx context.Context, incidentID int64) ([]domain.Action, error) {
	return s.repo.ListActions(ctx, incidentID)
}

// CreateAction validates and records a follow-up action, returning its
// id. The assignee is notified best-effort in the background.
func (s *Service) CreateAction(ctx context.Context, incidentID int64, input ActionInput) (int64, error) {
	actionType, err := validateAction(input)
	if err != nil {
		return 0, err
	}

	if _, err := s.repo.GetByID(ctx, incidentID); err != nil {
		return 0, err
	}

	action := &domain.Action{
		IncidentID:   incidentID,
		Description:  strings.TrimSpace(input.Description),
		Type:         actionType,
		AssignedToID: input.AssignedToID,
		CreatedByID:  input.CreatedByID,
		DueDate:      input.DueDate,
		Status:       input.Status,
		Notes:        input.Notes,
	}
	if action.Status == "" {
		action.Status = domain.ActionStatusPending
	}

	id, err := s.repo.CreateAction(ctx, action)
	if err != nil {
		return 0, fmt.Errorf("create action: %w", err)
	}

	s.notifyAssignment(ctx, id)

	return id, nil
}

func (s *Service) notifyAssignment(ctx context.Context, actionID int64) {
	if s.notifier == nil {
		return
	}

	action, err := s.repo.GetAction(ctx, actionID)
	if err != nil {
		ctxlog.FromContext(ctx).Error("failed to load action for assignment notification",
			"action_id", actionID, "error", err)
		return
	}

	s.notifier.NotifyActionAssigned(ctx, action)
}

// UpdateAction validates and replaces an action's writable fields.
// No notification is sent on update. Returns false when no row was
// modified.
func (s *Service) UpdateAction(ctx context.Context, id int64, input ActionInput) (bool, error) {
	actionType, err := validateAction(input)
	if err != nil {
		return false, err
	}

	action := &domain.Action{
		ID:            id,
		Description:   strings.TrimSpace(input.Description),
		Type:          actionType,
		AssignedToID:  input.AssignedToID,
		DueDate:       input.DueDate,
		CompletedDate: input.CompletedDate,
		Status:        input.Status,
		Notes:         input.Notes,
	}
	if action.Status == "" {
		action.Status = domain.ActionStatusPending
	}

	modified, err := s.repo.UpdateAction(ctx, action)
	if err != nil {
		return false, fmt.Errorf("update action: %w", err)
	}
	return modified, nil
}

// ListOverdueActions returns actions whose due date has passed and that
// have not been completed.
func (s *Service) ListOverdueActions(ctx context.Context) ([]domain.Action, error) {
	return s.repo.ListOverdueActions(ctx)
}
