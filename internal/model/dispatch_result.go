// internal/model/dispatch_result.go
package model

import "time"

type Status string

const (
	StatusPending  Status = "pending"
	StatusSent     Status = "sent"
	StatusFailed   Status = "failed"
	StatusSkipped  Status = "skipped"
	StatusOptedOut Status = "opted_out"
)

// Terminal reports whether no further transition can occur for this status
// within a campaign.
func (s Status) Terminal() bool { return s != StatusPending }

// DispatchResult is the one-shot outcome for a single recipient. A result is
// written exactly once per recipient per campaign.
type DispatchResult struct {
	Row       int        `json:"row"`
	Status    Status     `json:"status"`
	Reason    string     `json:"reason,omitempty"`     // human-readable, set for failed/skipped/opted_out
	MessageID string     `json:"message_id,omitempty"` // channel-assigned, or synthetic in test mode
	SentAt    *time.Time `json:"sent_at,omitempty"`
}
