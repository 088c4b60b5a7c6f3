// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/sop-question-agent/internal/pipeline"
	"github.com/jonathan/sop-question-agent/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// UpdateFunc returns a pipeline update callback that prints one progress
// line per stage.
func (p *Printer) UpdateFunc() pipeline.UpdateFunc {
	return p.PrintUpdate
}

// PrintUpdate prints a one-line progress summary for a stage update.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintUpdate(u pipeline.Update) {
	line := fmt.Sprintf("▸ %-10s %-18s %d event(s)", u.Stage, u.Agent, len(u.AuditLog))
	if len(u.PiiSpans) > 0 {
		line += fmt.Sprintf(", %d PII span(s)", len(u.PiiSpans))
	}
	for _, e := range u.AuditLog {
		if msg, ok := e.Data["message"].(string); ok && msg != "" {
			line += fmt.Sprintf(" [%s: %s]", e.Event, truncate(msg, 40))
		}
	}
	fmt.Fprintln(p.out, line)
}

// PrintRedaction outputs the redacted input and a count of PII spans by type.
func (p *Printer) PrintRedaction(redacted string, spans []types.PiiSpan) {
	if redacted == "" {
		return
	}

	var sb strings.Builder
	counts := map[string]int{}
	for _, s := range spans {
		counts[s.PiiType]++
	}
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	sb.WriteString(fmt.Sprintf("PII spans: %d\n", len(spans)))
	for _, k := range kinds {
		sb.WriteString(fmt.Sprintf("  • %s × %d\n", k, counts[k]))
	}
	sb.WriteString("\n")
	sb.WriteString(strings.TrimRight(redacted, "\n"))

	p.printBox("REDACTED INPUT", sb.String())
}

// PrintBeatPlan outputs the missing details the planner found for each beat.
func (p *Printer) PrintBeatPlan(plan types.SectionPlan) {
	if len(plan) == 0 {
		return
	}

	var sb strings.Builder
	for i, item := range plan {
		sb.WriteString(fmt.Sprintf("Beat %s: %d missing\n", item.Beat, len(item.Missing)))
		count := min(len(item.Missing), 3)
		for j := 0; j < count; j++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", item.Missing[j]))
		}
		if len(item.Missing) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(item.Missing)-3))
		}
		if i < len(plan)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("BEAT PLAN", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintQuestions outputs the final questions grouped by beat.
func (p *Printer) PrintQuestions(final types.QuestionsByBeat) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total questions: %d\n", final.Total()))

	for _, beat := range types.AllBeats() {
		qs := final[beat]
		sb.WriteString(fmt.Sprintf("\nBeat %s\n", beat))
		if len(qs) == 0 {
			sb.WriteString("  (none)\n")
			continue
		}
		count := min(len(qs), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, qs[i].Question))
			sb.WriteString(fmt.Sprintf("     intent: %s\n", qs[i].Intent))
		}
	}

	p.printBox("FINAL QUESTIONS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintValidationReport outputs the validation outcome with its errors,
// warnings and repair history.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintValidationReport(report *types.ValidationReport, attempts int) {
	if report == nil {
		return
	}
	if report.OK && len(report.Warnings) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, fmt.Sprintf("✅ VALIDATION PASSED (repair attempts: %d)", attempts))
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("OK: %t    Repair attempts: %d\n", report.OK, attempts))
	sections := []struct {
		title string
		icon  string
		items []string
	}{
		{"Errors", "⚠", report.Errors},
		{"Warnings", "!", report.Warnings},
		{"Repairs", "↻", report.RepairsApplied},
	}
	for _, sec := range sections {
		if len(sec.items) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n%s:\n", sec.title))
		for _, item := range sec.items {
			sb.WriteString(fmt.Sprintf("%s %s\n", sec.icon, item))
		}
	}

	p.printBox("VALIDATION REPORT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintResponse prints every section of a formatted run.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintResponse(resp pipeline.Response) {
	if resp.FallbackUsed {
		fmt.Fprintln(p.out, "⚠ pipeline failed; showing fallback questions")
	}
	p.PrintRedaction(resp.RedactedInput, resp.PiiSpans)
	p.PrintBeatPlan(resp.BeatPlan)
	p.PrintQuestions(resp.FinalQuestionsByBeat)
	p.PrintValidationReport(resp.ValidationReport, resp.AttemptCount)
	fmt.Fprintf(p.out, "run %s: %d audit events\n", resp.RunID, len(resp.AuditTimeline))
}
