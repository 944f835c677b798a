package notifications

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"strings"
	"text/template"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/safetydesk/safetydesk/internal/domain"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var titleCaser = cases.Title(language.English)

// DigestItem is one overdue action in an assignee's digest.
type DigestItem struct {
	Action      domain.Action
	DaysOverdue int
}

// Renderer renders notification messages from embedded templates.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer creates a renderer and parses all message templates.
func NewRenderer() (*Renderer, error) {
	funcMap := template.FuncMap{
		"title":         titleCaser.String,
		"upper":         strings.ToUpper,
		"escapeHTML":    html.EscapeString,
		"severityLabel": domain.SeverityLabel,
		"formatTime":    formatTime,
		"formatDate":    formatDate,
	}

	r := &Renderer{templates: make(map[string]*template.Template)}

	for _, name := range []string{"critical_alert", "action_assigned", "overdue_digest"} {
		filename := fmt.Sprintf("templates/%s.tmpl", name)

		content, err := templatesFS.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", filename, err)
		}

		tmpl, err := template.New(name).Funcs(funcMap).Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}

		r.templates[name] = tmpl
	}

	return r, nil
}

// RenderCriticalAlert renders the critical incident alert. The body is
// HTML.
func (r *Renderer) RenderCriticalAlert(incident *domain.Incident) (subject, body string, err error) {
	subject = fmt.Sprintf("[%s] Incident #%d: %s",
		strings.ToUpper(domain.SeverityLabel(incident.SeverityLevel)), incident.ID, incident.Title)

	body, err = r.render("critical_alert", incident)
	return subject, body, err
}

type assignmentData struct {
	Action  *domain.Action
	DueSoon bool
}

// RenderActionAssigned renders the assignment notification. dueSoon
// marks actions due within the next few days.
func (r *Renderer) RenderActionAssigned(action *domain.Action, dueSoon bool) (subject, body string, err error) {
	subject = fmt.Sprintf("Action assigned: %s (incident #%d)", action.Type, action.IncidentID)

	body, err = r.render("action_assigned", assignmentData{Action: action, DueSoon: dueSoon})
	return subject, body, err
}

type digestData struct {
	AssigneeName string
	Items        []DigestItem
}

// RenderOverdueDigest renders one assignee's overdue action digest.
func (r *Renderer) RenderOverdueDigest(assigneeName string, items []DigestItem) (subject, body string, err error) {
	subject = fmt.Sprintf("Overdue actions: %d item(s) need attention", len(items))

	body, err = r.render("overdue_digest", digestData{AssigneeName: assigneeName, Items: items})
	return subject, body, err
}

func (r *Renderer) render(name string, data any) (string, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("template not found: %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func formatTime(t time.Time) string {
	return t.Format("2006-01-02 15:04 MST")
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
