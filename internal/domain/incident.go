// Package domain contains the core entities shared across the application.
package domain

import (
	"strings"
	"time"
)

// IncidentStatus represents the lifecycle state of an incident.
type IncidentStatus string

const (
	StatusOpen        IncidentStatus = "Open"
	StatusInProgress  IncidentStatus = "In Progress"
	StatusUnderReview IncidentStatus = "Under Review"
	StatusClosed      IncidentStatus = "Closed"
	StatusArchived    IncidentStatus = "Archived"
)

// IsValid reports whether the status is one of the known lifecycle states.
func (s IncidentStatus) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusUnderReview, StatusClosed, StatusArchived:
		return true
	}
	return false
}

// Severity bounds for incidents.
const (
	SeverityMin = 1
	SeverityMax = 5
)

// Incident represents a recorded safety or operational incident.
// Display names are resolved by the store on reads and are empty on writes.
type Incident struct {
	ID               int64          `json:"id"`
	Title            string         `json:"title"`
	Description      string         `json:"description,omitempty"`
	SeverityLevel    int            `json:"severity_level"`
	SeverityLabel    string         `json:"severity_label,omitempty"`
	IncidentDate     time.Time      `json:"incident_date"`
	LocationID       int64          `json:"location_id"`
	LocationName     string         `json:"location_name,omitempty"`
	DepartmentID     int64          `json:"department_id"`
	DepartmentName   string         `json:"department_name,omitempty"`
	CategoryID       int64          `json:"category_id"`
	CategoryName     string         `json:"category_name,omitempty"`
	ReportedByID     int64          `json:"reported_by_id"`
	ReportedByName   string         `json:"reported_by_name,omitempty"`
	Status           IncidentStatus `json:"status"`
	RootCause        string         `json:"root_cause,omitempty"`
	InjuriesInvolved bool           `json:"injuries_involved"`
	WitnessCount     int            `json:"witness_count"`
	EstimatedCost    *float64       `json:"estimated_cost,omitempty"`
	ClosedByID       *int64         `json:"closed_by_id,omitempty"`
	ClosedByName     string         `json:"closed_by_name,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// SeverityLabel returns the display label for a severity level.
// Unknown levels map to "Unknown" rather than an error.
func SeverityLabel(level int) string {
	switch level {
	case 1:
		return "Low"
	case 2:
		return "Moderate"
	case 3:
		return "Significant"
	case 4:
		return "High"
	case 5:
		return "Critical"
	default:
		return "Unknown"
	}
}

// SeverityClass returns the CSS class used to render a severity level.
func SeverityClass(level int) string {
	switch level {
	case 1:
		return "severity-low"
	case 2:
		return "severity-moderate"
	case 3:
		return "severity-significant"
	case 4:
		return "severity-high"
	case 5:
		return "severity-critical"
	default:
		return "severity-unknown"
	}
}

// StatusBadgeClass returns the badge CSS class for a status, matched
// case-insensitively. Unrecognized statuses fall back to badge-light.
func StatusBadgeClass(status string) string {
	switch strings.ToLower(status) {
	case "open":
		return "badge-danger"
	case "in progress":
		return "badge-warning"
	case "under review":
		return "badge-info"
	case "closed":
		return "badge-success"
	case "archived":
		return "badge-secondary"
	default:
		return "badge-light"
	}
}
