// internal/apperrors/errors.go
package apperrors

import "fmt"

// SchemaError is fatal: the input cannot be processed at all. No rows are
// returned and no dispatch happens.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// Helper constructors
func NewMissingColumn(column string) error {
	return &SchemaError{Reason: fmt.Sprintf("required column %q is missing", column)}
}

func NewEmptyDataset() error {
	return &SchemaError{Reason: "dataset contains no rows"}
}

// ConfigError is fatal and pre-run: the dispatch step cannot start at all,
// as opposed to a per-recipient failure.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

func NewChannelNotConfigured() error {
	return &ConfigError{Reason: "outbound channel not configured and test mode is off"}
}

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID string
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign %s not found", e.CampaignID)
}

func NewCampaignNotFound(id string) error {
	return &ErrCampaignNotFound{CampaignID: id}
}
