package types

// ValidationReport is the outcome of one validation pass. The latest report is authoritative.
type ValidationReport struct {
	OK             bool     `json:"ok"`
	Errors         []string `json:"errors"`
	Warnings       []string `json:"warnings"`
	RepairsApplied []string `json:"repairs_applied"`
}

// NewValidationReport returns a report with non-nil slices so it serializes as empty arrays.
func NewValidationReport(ok bool) *ValidationReport {
	return &ValidationReport{
		OK:             ok,
		Errors:         []string{},
		Warnings:       []string{},
		RepairsApplied: []string{},
	}
}
