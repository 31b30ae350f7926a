// internal/model/recipient.go
package model

import "time"

// Recipient is one validated row of campaign input. Identity is the row
// position within the campaign (1-based, counting from the first data row).
type Recipient struct {
	Row          int        `json:"row"`
	BusinessName string     `json:"business_name"`
	CustomerName string     `json:"customer_name"`
	Email        string     `json:"email"`
	RawPhone     string     `json:"raw_phone"`
	Phone        string     `json:"phone"` // normalized E.164; empty when unusable
	ServiceType  *string    `json:"service_type,omitempty"`
	ServiceDate  *time.Time `json:"service_date,omitempty"`
	ReviewLink   string     `json:"review_link"`

	// Duplicate marks rows whose normalized phone already appeared earlier
	// in the batch. Whether duplicates are still dispatched is a policy
	// decision made at dispatch time, not here.
	Duplicate bool `json:"duplicate,omitempty"`
}

// FirstName returns the first whitespace-separated token of the customer
// name, used for message personalization.
func (r *Recipient) FirstName() string {
	for i, c := range r.CustomerName {
		if c == ' ' || c == '\t' {
			return r.CustomerName[:i]
		}
	}
	return r.CustomerName
}

// ServiceDateDisplay formats the service date in the long human-readable
// form used inside message templates, or "" when the date is absent.
func (r *Recipient) ServiceDateDisplay() string {
	if r.ServiceDate == nil {
		return ""
	}
	return r.ServiceDate.Format("January 2, 2006")
}
