// internal/model/report.go
package model

import "time"

// Report is the exported campaign artifact. Persisting it beyond the run is
// the caller's concern.
type Report struct {
	Summary  ReportSummary   `json:"summary"`
	Failures []ReportFailure `json:"failures"`
	OptOuts  []string        `json:"opt_outs"`
}

type ReportSummary struct {
	Timestamp       time.Time `json:"timestamp"`
	TotalRecipients int       `json:"total_recipients"`
	Sent            int       `json:"sent"`
	Failed          int       `json:"failed"`
	Skipped         int       `json:"skipped"`
	OptedOut        int       `json:"opted_out"`
	Pending         int       `json:"pending"`
	// SuccessRate is a percentage: sent / (sent + failed) * 100. Skipped and
	// opted-out recipients are excluded from the denominator.
	SuccessRate float64 `json:"success_rate"`
}

type ReportFailure struct {
	Name        string `json:"name"`
	Destination string `json:"destination"`
	Error       string `json:"error"`
}
