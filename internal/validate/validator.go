// internal/validate/validator.go
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/reviewgarden/outreach-backend/internal/apperrors"
	"github.com/reviewgarden/outreach-backend/internal/model"
)

// RequiredColumns must all be present in the input header. ServiceTypeColumn
// is optional.
var RequiredColumns = []string{
	"Business Name",
	"Customer Name",
	"Email",
	"Phone",
	"Service Date",
	"Review Link",
}

const ServiceTypeColumn = "Service Type"

var emailRx = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Google review URL fragments accepted without a warning.
var reviewLinkPatterns = []string{
	"google.com/maps/place",
	"search.google.com/local/writereview",
	"g.page/",
	"maps.app.goo.gl",
}

// OptOutChecker lets the validator flag rows that are already opted out.
type OptOutChecker interface {
	IsOptedOut(destination string) bool
}

type Validator struct {
	CountryCode string // digits prepended to bare 10-digit phones, e.g. "1"
	OptOuts     OptOutChecker
	Now         func() time.Time
}

func NewValidator(countryCode string, optOuts OptOutChecker) *Validator {
	if countryCode == "" {
		countryCode = "1"
	}
	return &Validator{
		CountryCode: countryCode,
		OptOuts:     optOuts,
		Now:         time.Now,
	}
}

// Validate checks the header and every data row. Missing required columns or
// an empty dataset are fatal: a SchemaError is returned and no rows come
// back. Everything else is a warning attached to the issue list; warned rows
// stay in the pipeline.
func (v *Validator) Validate(header []string, rows [][]string) ([]model.Recipient, []model.ValidationIssue, error) {
	cols, err := resolveColumns(header)
	if err != nil {
		return nil, []model.ValidationIssue{{Severity: model.SeverityFatal, Message: err.Error()}}, err
	}
	if len(rows) == 0 {
		err := apperrors.NewEmptyDataset()
		return nil, []model.ValidationIssue{{Severity: model.SeverityFatal, Message: err.Error()}}, err
	}

	recipients := make([]model.Recipient, 0, len(rows))
	var issues []model.ValidationIssue
	warn := func(row int, format string, args ...any) {
		issues = append(issues, model.ValidationIssue{
			Severity: model.SeverityWarning,
			Row:      row,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	for i, raw := range rows {
		row := i + 1
		rec := model.Recipient{
			Row:          row,
			BusinessName: cols.get(raw, "Business Name"),
			CustomerName: cols.get(raw, "Customer Name"),
			Email:        cols.get(raw, "Email"),
			RawPhone:     cols.get(raw, "Phone"),
			ReviewLink:   cols.get(raw, "Review Link"),
		}

		if rec.CustomerName == "" {
			warn(row, "missing customer name")
		}

		if phone, ok := NormalizePhone(rec.RawPhone, v.CountryCode); ok {
			rec.Phone = phone
			if v.OptOuts != nil && v.OptOuts.IsOptedOut(phone) {
				warn(row, "%s has opted out", phone)
			}
		} else {
			warn(row, "invalid phone %q", rec.RawPhone)
		}

		if rec.Email != "" && !emailRx.MatchString(rec.Email) {
			warn(row, "suspicious email format %q", rec.Email)
		}

		v.checkReviewLink(rec.ReviewLink, row, warn)

		if rawDate := cols.get(raw, "Service Date"); rawDate != "" {
			if t, err := ParseServiceDate(rawDate); err != nil {
				warn(row, "unparseable service date %q", rawDate)
			} else {
				year := v.Now().Year()
				if t.Year() < year-1 || t.Year() > year+1 {
					warn(row, "service date %s out of range", t.Format("2006-01-02"))
				}
				rec.ServiceDate = &t
			}
		}

		if st := cols.get(raw, ServiceTypeColumn); st != "" {
			rec.ServiceType = &st
		}

		recipients = append(recipients, rec)
	}

	// Duplicate phones are flagged, never dropped here. Whether duplicates
	// still get dispatched is the dispatcher's policy.
	seen := map[string]int{}
	for i := range recipients {
		phone := recipients[i].Phone
		if phone == "" {
			continue
		}
		if first, ok := seen[phone]; ok {
			recipients[i].Duplicate = true
			warn(recipients[i].Row, "duplicate phone %s (first seen in row %d)", phone, first)
		} else {
			seen[phone] = recipients[i].Row
		}
	}

	return recipients, issues, nil
}

func (v *Validator) checkReviewLink(link string, row int, warn func(int, string, ...any)) {
	if link == "" {
		warn(row, "missing review link")
		return
	}
	if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
		warn(row, "review link %q does not start with http:// or https://", link)
		return
	}
	for _, p := range reviewLinkPatterns {
		if strings.Contains(link, p) {
			return
		}
	}
	warn(row, "review link %q is not a recognized Google review URL", link)
}

// columnMap maps canonical column names to their index in the header.
type columnMap map[string]int

func (c columnMap) get(row []string, name string) string {
	idx, ok := c[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func resolveColumns(header []string) (columnMap, error) {
	byName := map[string]int{}
	for i, h := range header {
		byName[strings.ToLower(strings.TrimSpace(h))] = i
	}

	cols := columnMap{}
	for _, required := range RequiredColumns {
		idx, ok := byName[strings.ToLower(required)]
		if !ok {
			return nil, apperrors.NewMissingColumn(required)
		}
		cols[required] = idx
	}
	if idx, ok := byName[strings.ToLower(ServiceTypeColumn)]; ok {
		cols[ServiceTypeColumn] = idx
	}
	return cols, nil
}
