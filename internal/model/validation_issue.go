// internal/model/validation_issue.go
package model

type Severity string

const (
	SeverityFatal   Severity = "fatal"
	SeverityWarning Severity = "warning"
)

// ValidationIssue is a problem found while validating campaign input. Fatal
// issues abort processing before dispatch; warnings are attached to the
// campaign and never block a row on their own.
type ValidationIssue struct {
	Severity Severity `json:"severity"`
	Row      int      `json:"row,omitempty"` // 0 for dataset-level issues
	Message  string   `json:"message"`
}
