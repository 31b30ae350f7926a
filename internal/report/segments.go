// internal/report/segments.go
package report

import (
	"sort"
	"time"

	"github.com/reviewgarden/outreach-backend/internal/model"
)

// Segment is a named group of recipients for targeted campaigns. Rows are
// recipient row numbers.
type Segment struct {
	Name string `json:"name"`
	Rows []int  `json:"rows"`
}

// Segments groups validated recipients by service type and by recency of the
// service date. A recipient can appear in several segments. Purely
// informational: segmentation has no effect on dispatch.
func Segments(recipients []model.Recipient, now time.Time) []Segment {
	byService := map[string][]int{}
	var recent, thisMonth, older []int

	for _, rec := range recipients {
		if rec.ServiceType != nil {
			byService[*rec.ServiceType] = append(byService[*rec.ServiceType], rec.Row)
		}
		if rec.ServiceDate != nil {
			days := int(now.Sub(*rec.ServiceDate).Hours() / 24)
			switch {
			case days <= 7:
				recent = append(recent, rec.Row)
			case days <= 30:
				thisMonth = append(thisMonth, rec.Row)
			default:
				older = append(older, rec.Row)
			}
		}
	}

	var segments []Segment
	serviceNames := make([]string, 0, len(byService))
	for name := range byService {
		serviceNames = append(serviceNames, name)
	}
	sort.Strings(serviceNames)
	for _, name := range serviceNames {
		segments = append(segments, Segment{Name: "Service: " + name, Rows: byService[name]})
	}
	if len(recent) > 0 {
		segments = append(segments, Segment{Name: "Recent (0-7 days)", Rows: recent})
	}
	if len(thisMonth) > 0 {
		segments = append(segments, Segment{Name: "This month (8-30 days)", Rows: thisMonth})
	}
	if len(older) > 0 {
		segments = append(segments, Segment{Name: "Older (30+ days)", Rows: older})
	}
	return segments
}
