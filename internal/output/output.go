// Package output provides styled terminal output helpers (success, error,
// warning, task formatting) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/marcus/tdash/internal/models"
	"github.com/marcus/tdash/internal/views"
)

var (
	// Styles
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	statusStyles = map[models.Status]lipgloss.Style{
		models.StatusInbox:      lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		models.StatusActive:     lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.StatusWaitingFor: lipgloss.NewStyle().Foreground(lipgloss.Color("141")),
		models.StatusSomeday:    lipgloss.NewStyle().Foreground(lipgloss.Color("110")),
		models.StatusCompleted:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		models.StatusDeleted:    lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
	}
	priorityStyles = map[models.Priority]lipgloss.Style{
		models.PriorityUrgent: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		models.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
		models.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
}

// JSON outputs data as JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// Error codes for structured JSON output
const (
	ErrCodeNotFound      = "not_found"
	ErrCodeInvalidInput  = "invalid_input"
	ErrCodeDatabaseError = "database_error"
	ErrCodeQuotaExceeded = "quota_exceeded"
	ErrCodeUnauthorized  = "unauthorized"
)

// JSONError outputs an error as JSON
func JSONError(code, message string) {
	data, _ := json.Marshal(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
	fmt.Println(string(data))
}

// FormatStatus formats a status with color
func FormatStatus(s models.Status) string {
	style, ok := statusStyles[s]
	if !ok {
		return string(s)
	}
	return style.Render(fmt.Sprintf("[%s]", s))
}

// FormatPriority formats a priority
func FormatPriority(p models.Priority) string {
	style, ok := priorityStyles[p]
	if !ok {
		return fmt.Sprintf("[%s]", p)
	}
	return style.Render(fmt.Sprintf("[%s]", p))
}

// ShortID trims uuid-style ids for list output.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// FormatTaskShort formats a task on one line, fitted to width cells.
// A width of zero or less disables truncation.
func FormatTaskShort(t models.Task, width int) string {
	title := t.Title
	if width > 0 {
		// id, priority, status and padding take roughly 40 cells
		title = Truncate(title, width-40)
	}

	var parts []string
	parts = append(parts, titleStyle.Render(ShortID(t.ID)))
	parts = append(parts, FormatPriority(t.Priority()))
	parts = append(parts, title)
	if t.Type != models.TypeTodo {
		parts = append(parts, subtleStyle.Render(string(t.Type)))
	}
	if t.DueDate != nil {
		parts = append(parts, subtleStyle.Render("due "+FormatRelative(*t.DueDate)))
	}
	if t.Status == models.StatusDeleted {
		parts = append(parts, errorStyle.Render("[deleted]"))
	} else {
		parts = append(parts, FormatStatus(t.Status))
	}
	return strings.Join(parts, "  ")
}

// FormatTaskLong formats a task with every populated field.
func FormatTaskLong(t models.Task) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s: %s", t.ID, t.Title)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Status: %s\n", FormatStatus(t.Status)))
	sb.WriteString(fmt.Sprintf("Type: %s | Priority: %s | Category: %s", t.Type, t.Priority(), t.Category))
	if !t.Clarified {
		sb.WriteString(" | Unclarified")
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Urgent: %t | Important: %t\n", t.Urgent, t.Important))

	if len(t.Tags) > 0 {
		sb.WriteString(fmt.Sprintf("Tags: %s\n", strings.Join(t.Tags, ", ")))
	}
	if t.Context != "" {
		sb.WriteString(fmt.Sprintf("Context: %s\n", t.Context))
	}
	if t.NextAction != "" {
		sb.WriteString(fmt.Sprintf("Next action: %s\n", t.NextAction))
	}
	if t.DelegatedTo != "" {
		sb.WriteString(fmt.Sprintf("Waiting on: %s\n", t.DelegatedTo))
	}
	if t.GoalID != "" {
		sb.WriteString(fmt.Sprintf("Goal: %s\n", t.GoalID))
	}
	if t.TimeEstimate != nil {
		sb.WriteString(fmt.Sprintf("Estimate: %dm\n", *t.TimeEstimate))
	}

	if t.Description != "" {
		sb.WriteString("\n")
		sb.WriteString(subtleStyle.Render("Description:"))
		sb.WriteString("\n")
		sb.WriteString(t.Description)
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Created: %s (%s)\n", t.CreatedAt.Format("2006-01-02 15:04"), FormatTimeAgo(t.CreatedAt)))
	if t.DueDate != nil {
		sb.WriteString(fmt.Sprintf("Due: %s (%s)\n", t.DueDate.Format("2006-01-02"), FormatRelative(*t.DueDate)))
	}
	if t.ScheduledDate != nil {
		sb.WriteString(fmt.Sprintf("Scheduled: %s (%s)\n", t.ScheduledDate.Format("2006-01-02"), FormatRelative(*t.ScheduledDate)))
	}
	if t.CompletedAt != nil {
		sb.WriteString(fmt.Sprintf("Completed: %s\n", FormatTimeAgo(*t.CompletedAt)))
	}
	if t.DeletedAt != nil {
		sb.WriteString(fmt.Sprintf("Deleted: %s\n", FormatTimeAgo(*t.DeletedAt)))
	}
	return sb.String()
}

// FormatCounts renders the dashboard header line.
func FormatCounts(c views.Counts) string {
	return fmt.Sprintf("inbox %d  active %d  waiting %d  someday %d  done %d  trash %d  projects %d",
		c.Inbox, c.Active, c.WaitingFor, c.Someday, c.Completed, c.Deleted, c.Projects)
}

// FormatRelative renders a past or future time relative to now, e.g.
// "3 days from now".
func FormatRelative(t time.Time) string {
	return humanize.Time(t)
}

// FormatBytes renders a byte count, e.g. "5.2 MB".
func FormatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// FormatTimeAgo formats a time as a human-readable "ago" string
func FormatTimeAgo(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		return t.Format("2006-01-02")
	}
}

// TaskOneLiner returns a concise single-line task representation
// Format: "3f2a9c1e \"Title\" [status]"
func TaskOneLiner(t models.Task) string {
	return fmt.Sprintf("%s \"%s\" %s", ShortID(t.ID), t.Title, FormatStatus(t.Status))
}

// StatusBadge returns a status indicator with symbol
// e.g., "○ inbox", "▶ active", "✓ completed"
func StatusBadge(status models.Status) string {
	symbols := map[models.Status]string{
		models.StatusInbox:      "○",
		models.StatusActive:     "▶",
		models.StatusWaitingFor: "◎",
		models.StatusSomeday:    "…",
		models.StatusCompleted:  "✓",
		models.StatusDeleted:    "✗",
	}
	symbol, ok := symbols[status]
	if !ok {
		symbol = "?"
	}
	style, hasStyle := statusStyles[status]
	if hasStyle {
		return style.Render(fmt.Sprintf("%s %s", symbol, status))
	}
	return fmt.Sprintf("%s %s", symbol, status)
}

// SectionHeader returns a formatted section header for CLI output
// e.g., "\nINBOX:\n"
func SectionHeader(title string) string {
	return fmt.Sprintf("\n%s:\n", strings.ToUpper(title))
}
