package domain

import (
	"fmt"
	"strings"
	"time"
)

// ActionType classifies a follow-up action on an incident.
type ActionType string

const (
	ActionCorrective    ActionType = "Corrective"
	ActionPreventive    ActionType = "Preventive"
	ActionInvestigation ActionType = "Investigation"
)

// ParseActionType parses an action type string case-insensitively.
func ParseActionType(s string) (ActionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "corrective":
		return ActionCorrective, nil
	case "preventive":
		return ActionPreventive, nil
	case "investigation":
		return ActionInvestigation, nil
	}
	return "", fmt.Errorf("invalid action type: %q", s)
}

// ActionStatusPending is the default status for newly created actions.
// Action status is free-form text, only the type is an enum.
const ActionStatusPending = "Pending"

// Action represents a corrective, preventive, or investigative follow-up
// assigned to a user for an incident.
type Action struct {
	ID              int64      `json:"id"`
	IncidentID      int64      `json:"incident_id"`
	IncidentTitle   string     `json:"incident_title,omitempty"`
	Description     string     `json:"description"`
	Type            ActionType `json:"action_type"`
	AssignedToID    int64      `json:"assigned_to_id"`
	AssignedToName  string     `json:"assigned_to_name,omitempty"`
	AssignedToEmail string     `json:"-"`
	CreatedByID     int64      `json:"created_by_id"`
	CreatedByName   string     `json:"created_by_name,omitempty"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	CompletedDate   *time.Time `json:"completed_date,omitempty"`
	Status          string     `json:"status"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// DaysOverdue returns how many whole days the action is past its due date
// as of now. Returns 0 when there is no due date or it has not passed.
func (a *Action) DaysOverdue(now time.Time) int {
	if a.DueDate == nil || a.CompletedDate != nil {
		return 0
	}
	days := int(now.Sub(*a.DueDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
