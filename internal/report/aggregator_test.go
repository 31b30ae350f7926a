package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewgarden/outreach-backend/internal/model"
)

func strPtr(s string) *string { return &s }

func sampleCampaign() *model.Campaign {
	return &model.Campaign{
		ID:      "c1",
		Name:    "June push",
		Channel: "sms",
		Recipients: []model.Recipient{
			{Row: 1, BusinessName: "Garden Cafe", CustomerName: "Alice Smith", Phone: "+15551110000"},
			{Row: 2, BusinessName: "Garden Cafe", CustomerName: "Bob Jones", Phone: "+15552220000"},
			{Row: 3, BusinessName: "Garden Cafe", CustomerName: "Cara Lee", Phone: "+15553330000"},
			{Row: 4, BusinessName: "Garden Cafe", CustomerName: "Dan Wu", Phone: "+15554440000"},
		},
	}
}

func sampleResults() []model.DispatchResult {
	sent := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	return []model.DispatchResult{
		{Row: 1, Status: model.StatusSent, MessageID: "SM1", SentAt: &sent},
		{Row: 2, Status: model.StatusFailed, Reason: "invalid-destination-format (code 21211): bad number"},
		{Row: 3, Status: model.StatusSkipped, Reason: "missing name or phone"},
		{Row: 4, Status: model.StatusOptedOut, Reason: "destination opted out"},
	}
}

func TestAggregateCounts(t *testing.T) {
	now := time.Date(2025, 6, 15, 13, 0, 0, 0, time.UTC)
	rep := Aggregate(sampleCampaign(), sampleResults(), []string{"+15554440000"}, now)

	assert.Equal(t, 4, rep.Summary.TotalRecipients)
	assert.Equal(t, 1, rep.Summary.Sent)
	assert.Equal(t, 1, rep.Summary.Failed)
	assert.Equal(t, 1, rep.Summary.Skipped)
	assert.Equal(t, 1, rep.Summary.OptedOut)
	assert.Equal(t, now, rep.Summary.Timestamp)

	// 1 sent / (1 sent + 1 failed); skipped and opted-out excluded.
	assert.InDelta(t, 50.0, rep.Summary.SuccessRate, 0.001)

	require.Len(t, rep.Failures, 1)
	assert.Equal(t, "Bob Jones", rep.Failures[0].Name)
	assert.Equal(t, "+15552220000", rep.Failures[0].Destination)
	assert.Contains(t, rep.Failures[0].Error, "invalid-destination-format")

	assert.Equal(t, []string{"+15554440000"}, rep.OptOuts)
}

func TestAggregateGuardsDivideByZero(t *testing.T) {
	c := sampleCampaign()
	results := []model.DispatchResult{
		{Row: 1, Status: model.StatusSkipped},
		{Row: 2, Status: model.StatusSkipped},
		{Row: 3, Status: model.StatusOptedOut},
		{Row: 4, Status: model.StatusPending},
	}

	rep := Aggregate(c, results, nil, time.Now())

	assert.Equal(t, 0.0, rep.Summary.SuccessRate)
	assert.Equal(t, 1, rep.Summary.Pending)
	assert.NotNil(t, rep.Failures)
	assert.NotNil(t, rep.OptOuts)
}

func TestHistoryEntryFromReport(t *testing.T) {
	c := sampleCampaign()
	c.TestMode = true
	rep := Aggregate(c, sampleResults(), nil, time.Date(2025, 6, 15, 13, 0, 0, 0, time.UTC))

	entry := HistoryEntry(c, rep, "completed")

	assert.Equal(t, "June push", entry.CampaignName)
	assert.Equal(t, "sms", entry.Channel)
	assert.Equal(t, 4, entry.TotalRecipients)
	assert.Equal(t, 1, entry.Sent)
	assert.Equal(t, 1, entry.Failed)
	assert.True(t, entry.TestMode)
	assert.Equal(t, "completed", entry.Status)
}

func TestWriteRecipientCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRecipientCSV(&buf, sampleCampaign(), sampleResults()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5) // header + 4 rows
	assert.Contains(t, lines[0], "Customer Name")
	assert.Contains(t, lines[1], "sent")
	assert.Contains(t, lines[2], "failed")
	assert.Contains(t, lines[3], "skipped")
	assert.Contains(t, lines[4], "opted_out")
}

func TestWriteSummaryCSV(t *testing.T) {
	rep := Aggregate(sampleCampaign(), sampleResults(), nil, time.Date(2025, 6, 15, 13, 0, 0, 0, time.UTC))

	var buf bytes.Buffer
	require.NoError(t, WriteSummaryCSV(&buf, rep))
	assert.Contains(t, buf.String(), "50.00%")
}

func TestSegments(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	day := func(d int) *time.Time {
		t := now.AddDate(0, 0, -d)
		return &t
	}
	recipients := []model.Recipient{
		{Row: 1, ServiceType: strPtr("Lunch"), ServiceDate: day(2)},
		{Row: 2, ServiceType: strPtr("Dinner"), ServiceDate: day(10)},
		{Row: 3, ServiceType: strPtr("Lunch"), ServiceDate: day(45)},
		{Row: 4}, // no optional fields, appears nowhere
	}

	segments := Segments(recipients, now)

	byName := map[string][]int{}
	for _, s := range segments {
		byName[s.Name] = s.Rows
	}
	assert.Equal(t, []int{2}, byName["Service: Dinner"])
	assert.Equal(t, []int{1, 3}, byName["Service: Lunch"])
	assert.Equal(t, []int{1}, byName["Recent (0-7 days)"])
	assert.Equal(t, []int{2}, byName["This month (8-30 days)"])
	assert.Equal(t, []int{3}, byName["Older (30+ days)"])
}
