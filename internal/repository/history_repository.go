// internal/repository/history_repository.go
package repository

import (
	"database/sql"
	"time"

	"github.com/reviewgarden/outreach-backend/internal/model"
)

// HistoryRepositoryInterface defines the methods the service needs for the
// append-only campaign log.
type HistoryRepositoryInterface interface {
	Append(entry *model.HistoryEntry) error
	List(limit int) ([]model.HistoryEntry, error)
	Summary() (*model.HistorySummary, error)
}

type HistoryRepository struct {
	DB *sql.DB
}

func (r *HistoryRepository) Append(entry *model.HistoryEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	query := `
        INSERT INTO campaign_history (created_at, campaign_name, channel, total_recipients, sent, failed, test_mode, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id
    `
	return r.DB.QueryRow(
		query,
		entry.Timestamp,
		entry.CampaignName,
		entry.Channel,
		entry.TotalRecipients,
		entry.Sent,
		entry.Failed,
		entry.TestMode,
		entry.Status,
	).Scan(&entry.ID)
}

func (r *HistoryRepository) List(limit int) ([]model.HistoryEntry, error) {
	if limit < 1 || limit > 500 {
		limit = 50
	}
	query := `
        SELECT id, created_at, campaign_name, channel, total_recipients, sent, failed, test_mode, status
        FROM campaign_history
        ORDER BY id DESC
        LIMIT $1
    `
	rows, err := r.DB.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []model.HistoryEntry{}
	for rows.Next() {
		var e model.HistoryEntry
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.CampaignName, &e.Channel, &e.TotalRecipients, &e.Sent, &e.Failed, &e.TestMode, &e.Status); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *HistoryRepository) Summary() (*model.HistorySummary, error) {
	query := `
        SELECT COUNT(*), COALESCE(SUM(sent), 0), COALESCE(SUM(failed), 0)
        FROM campaign_history
    `
	var s model.HistorySummary
	if err := r.DB.QueryRow(query).Scan(&s.TotalCampaigns, &s.TotalSent, &s.TotalFailed); err != nil {
		return nil, err
	}
	if attempted := s.TotalSent + s.TotalFailed; attempted > 0 {
		s.AvgSuccessRate = float64(s.TotalSent) / float64(attempted) * 100
	}
	return &s, nil
}

var _ HistoryRepositoryInterface = (*HistoryRepository)(nil)
