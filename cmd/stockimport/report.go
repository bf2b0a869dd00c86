package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/JonMunkholm/stockstage/internal/core"
	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	summaryStyle = lipgloss.NewStyle().Bold(true)
)

// recordStatus classifies a record for display.
func recordStatus(rec core.StagedRecord) (string, lipgloss.Style) {
	switch {
	case rec.State == core.StateFailed:
		return "FAILED", errorStyle
	case rec.Blocked():
		return "BLOCKED", errorStyle
	case len(rec.Issues) > 0:
		return "FLAGGED", warnStyle
	default:
		return "OK", okStyle
	}
}

// formatIssues renders issues as "field: reason (value)" joined by "; ".
func formatIssues(issues []core.ValidationIssue) string {
	parts := make([]string, len(issues))
	for i, issue := range issues {
		field := issue.Field
		if field == "" {
			field = "row"
		}
		parts[i] = fmt.Sprintf("%s: %s", field, issue.Message)
		if issue.Value != "" && issue.Reason != core.ReasonColumnCountMismatch {
			parts[i] += fmt.Sprintf(" (%q)", issue.Value)
		}
	}
	return strings.Join(parts, "; ")
}

// renderRecords writes one line per record.
func renderRecords(w io.Writer, records []core.StagedRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, mutedStyle.Render("No records."))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("#"),
		headerStyle.Render("Line"),
		headerStyle.Render("Name"),
		headerStyle.Render("Status"),
		headerStyle.Render("Issues")); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, rec := range records {
		status, style := recordStatus(rec)
		issues := formatIssues(rec.Issues)
		if rec.FailureReason != "" {
			issues = strings.TrimPrefix(issues+"; "+rec.FailureReason, "; ")
		}
		if _, err := fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n",
			rec.Index,
			rec.Line,
			rec.Fields[core.FieldName].String(),
			style.Render(status),
			issues); err != nil {
			return fmt.Errorf("failed to write record row: %w", err)
		}
	}
	return tw.Flush()
}

func renderSummary(s core.BatchSummary) string {
	line := fmt.Sprintf("%d records: %d clean, %d blocked", s.Total, s.Clean, s.Blocked)
	if s.Blocked > 0 {
		return summaryStyle.Inherit(errorStyle).Render(line)
	}
	return summaryStyle.Inherit(okStyle).Render(line)
}

// renderResult writes the submission outcome followed by the records left in
// the batch.
func renderResult(w io.Writer, r core.SubmissionResult, remaining []core.StagedRecord) error {
	lines := []string{
		okStyle.Render(fmt.Sprintf("committed: %d", r.CommittedCount)),
		failedStyle(len(r.Failed)).Render(fmt.Sprintf("failed:    %d", len(r.Failed))),
		failedStyle(len(r.Skipped)).Render(fmt.Sprintf("skipped:   %d", len(r.Skipped))),
	}
	if _, err := fmt.Fprintln(w, strings.Join(lines, "\n")); err != nil {
		return err
	}
	if len(remaining) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return renderRecords(w, remaining)
}

func failedStyle(n int) lipgloss.Style {
	if n > 0 {
		return errorStyle
	}
	return mutedStyle
}
