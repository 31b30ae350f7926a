// internal/report/aggregator.go
package report

import (
	"time"

	"github.com/reviewgarden/outreach-backend/internal/model"
)

// Aggregate folds per-recipient results into the campaign report. optOuts is
// the current process-wide opt-out list, included verbatim.
func Aggregate(campaign *model.Campaign, results []model.DispatchResult, optOuts []string, now time.Time) *model.Report {
	summary := model.ReportSummary{
		Timestamp:       now,
		TotalRecipients: len(campaign.Recipients),
	}

	var failures []model.ReportFailure
	for i, res := range results {
		switch res.Status {
		case model.StatusSent:
			summary.Sent++
		case model.StatusFailed:
			summary.Failed++
			failure := model.ReportFailure{Error: res.Reason}
			if i < len(campaign.Recipients) {
				failure.Name = campaign.Recipients[i].CustomerName
				failure.Destination = campaign.Recipients[i].Phone
			}
			failures = append(failures, failure)
		case model.StatusSkipped:
			summary.Skipped++
		case model.StatusOptedOut:
			summary.OptedOut++
		default:
			summary.Pending++
		}
	}

	// Skipped and opted-out rows are excluded from the denominator; an
	// all-skipped campaign reports 0%, not a division error.
	if attempted := summary.Sent + summary.Failed; attempted > 0 {
		summary.SuccessRate = float64(summary.Sent) / float64(attempted) * 100
	}

	if failures == nil {
		failures = []model.ReportFailure{}
	}
	if optOuts == nil {
		optOuts = []string{}
	}
	return &model.Report{Summary: summary, Failures: failures, OptOuts: optOuts}
}

// HistoryEntry builds the append-only campaign log record from a report.
func HistoryEntry(campaign *model.Campaign, rep *model.Report, status string) model.HistoryEntry {
	return model.HistoryEntry{
		Timestamp:       rep.Summary.Timestamp,
		CampaignName:    campaign.Name,
		Channel:         campaign.Channel,
		TotalRecipients: rep.Summary.TotalRecipients,
		Sent:            rep.Summary.Sent,
		Failed:          rep.Summary.Failed,
		TestMode:        campaign.TestMode,
		Status:          status,
	}
}
