// internal/validate/date.go
package validate

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Spreadsheet serial dates count days from 1899-12-30.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// ParseServiceDate accepts a spreadsheet serial number or any of the common
// string date forms and returns the parsed date.
func ParseServiceDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		// Plausible serial range: anything from 1900 to ~2173. Small
		// integers like "7" are more likely typos than dates.
		if serial >= 366 && serial < 100000 {
			return serialEpoch.AddDate(0, 0, int(serial)), nil
		}
		return time.Time{}, fmt.Errorf("numeric value %q is not a date", s)
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format %q", s)
}
