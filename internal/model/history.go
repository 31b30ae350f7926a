// internal/model/history.go
package model

import "time"

// HistoryEntry is one append-only campaign log record.
type HistoryEntry struct {
	ID              int       `db:"id" json:"id"`
	Timestamp       time.Time `db:"created_at" json:"timestamp"`
	CampaignName    string    `db:"campaign_name" json:"campaign_name"`
	Channel         string    `db:"channel" json:"channel"`
	TotalRecipients int       `db:"total_recipients" json:"total_recipients"`
	Sent            int       `db:"sent" json:"sent"`
	Failed          int       `db:"failed" json:"failed"`
	TestMode        bool      `db:"test_mode" json:"test_mode"`
	Status          string    `db:"status" json:"status"` // completed, cancelled
}

// HistorySummary aggregates all logged campaigns. OptOuts is the current
// registry count, filled in by the service rather than the history store.
type HistorySummary struct {
	TotalCampaigns int     `json:"total_campaigns"`
	TotalSent      int     `json:"total_sent"`
	TotalFailed    int     `json:"total_failed"`
	AvgSuccessRate float64 `json:"avg_success_rate"`
	OptOuts        int     `json:"opt_outs"`
}
