// internal/report/csv.go
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/reviewgarden/outreach-backend/internal/model"
)

// WriteRecipientCSV writes the row-per-recipient table for downstream
// storage.
func WriteRecipientCSV(w io.Writer, campaign *model.Campaign, results []model.DispatchResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Row", "Business Name", "Customer Name", "Phone", "Status", "Reason", "Message ID", "Sent At"}); err != nil {
		return err
	}
	for i, rec := range campaign.Recipients {
		res := model.DispatchResult{Status: model.StatusPending}
		if i < len(results) {
			res = results[i]
		}
		sentAt := ""
		if res.SentAt != nil {
			sentAt = res.SentAt.Format(time.RFC3339)
		}
		row := []string{
			strconv.Itoa(rec.Row),
			rec.BusinessName,
			rec.CustomerName,
			rec.Phone,
			string(res.Status),
			res.Reason,
			res.MessageID,
			sentAt,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummaryCSV writes the one-row summary table.
func WriteSummaryCSV(w io.Writer, rep *model.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Timestamp", "Total Recipients", "Sent", "Failed", "Skipped", "Opted Out", "Success Rate"}); err != nil {
		return err
	}
	s := rep.Summary
	row := []string{
		s.Timestamp.Format(time.RFC3339),
		strconv.Itoa(s.TotalRecipients),
		strconv.Itoa(s.Sent),
		strconv.Itoa(s.Failed),
		strconv.Itoa(s.Skipped),
		strconv.Itoa(s.OptedOut),
		fmt.Sprintf("%.2f%%", s.SuccessRate),
	}
	if err := cw.Write(row); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
