package entity

import (
	"time"

	"github.com/joseph-ayodele/invoice-bundler/constants"
)

// BillingRecord is the structured result of extraction and manual correction.
// Optional fields are nil when unresolved; renderers resolve display defaults
// without mutating the record.
type BillingRecord struct {
	PONumber    *string   `json:"po_number,omitempty"`
	Job         *string   `json:"job,omitempty"`
	Lot         *string   `json:"lot,omitempty"`
	Description *string   `json:"description,omitempty"`
	Amount      *string   `json:"amount,omitempty"` // literal captured text, see ParseAmount
	Customer    *string   `json:"customer,omitempty"`
	JobLocation string    `json:"job_location"`
	TermsCode   string    `json:"terms_code"`
	ThroughDate time.Time `json:"through_date"`
	Signature   string    `json:"signature"`
}

// NewBillingRecord returns a record with every defaulted field set and every
// optional field absent.
func NewBillingRecord(generated time.Time) BillingRecord {
	return BillingRecord{
		JobLocation: constants.DefaultJobLocation,
		TermsCode:   constants.DefaultTermsCode,
		ThroughDate: DateOnly(generated),
		Signature:   constants.DefaultSignature,
	}
}

// DateOnly strips the clock so the value matches calendar-date semantics.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// StrOr returns *p, or def when p is nil or blank.
func StrOr(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
