package redaction

import (
	"strings"

	"github.com/jonathan/sop-question-agent/internal/types"
)

// Canonicalize renders a profile into the fixed text layout every later stage
// grounds against. The output depends only on the profile.
func Canonicalize(p types.ApplicantProfile) string {
	var sb strings.Builder
	sb.WriteString("Scholarship: ")
	sb.WriteString(strings.TrimSpace(p.ProgramName))
	sb.WriteString("\nScholarship type: ")
	sb.WriteString(string(p.ProgramCategory))
	sb.WriteString("\nGoal: ")
	sb.WriteString(strings.TrimSpace(p.Goal))
	sb.WriteString("\nResume points:\n")
	for _, b := range p.ResumeBullets {
		sb.WriteString("- ")
		sb.WriteString(strings.TrimSpace(b))
		sb.WriteString("\n")
	}
	return sb.String()
}
