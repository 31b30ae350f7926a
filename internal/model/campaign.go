// internal/model/campaign.go
package model

import "time"

type Campaign struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Channel   string    `json:"channel"` // sms, email
	TestMode  bool      `json:"test_mode"`
	CreatedAt time.Time `json:"created_at"`

	Recipients []Recipient       `json:"recipients"`
	Issues     []ValidationIssue `json:"issues,omitempty"`

	// Results is parallel to Recipients: Results[i] is the terminal outcome
	// for Recipients[i]. Populated by a dispatch run; until then every entry
	// is pending.
	Results []DispatchResult `json:"results,omitempty"`
}

// Stats counts results by status. Recipients not yet dispatched count as
// pending.
func (c *Campaign) Stats() map[string]int {
	stats := map[string]int{
		"total":     len(c.Recipients),
		"pending":   0,
		"sent":      0,
		"failed":    0,
		"skipped":   0,
		"opted_out": 0,
	}
	for _, res := range c.Results {
		stats[string(res.Status)]++
	}
	if len(c.Results) == 0 {
		stats["pending"] = len(c.Recipients)
	}
	return stats
}
