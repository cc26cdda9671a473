package domain

import (
	"fmt"
	"time"
)

// AuditFields holds standard audit information for domain entities.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"` // UserID reference
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"` // UserID reference
}

// Period identifies a monthly accounting window in "YYYY-MM" form.
// Billing, payout batching and reconciliation all close on the same boundary.
type Period string

// ParsePeriod validates and normalizes a period string.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return "", fmt.Errorf("invalid period %q, expected YYYY-MM: %w", s, err)
	}
	return Period(t.Format("2006-01")), nil
}

// Bounds returns the [start, end) interval covered by the period, in UTC.
func (p Period) Bounds() (time.Time, time.Time) {
	start, _ := time.Parse("2006-01", string(p))
	return start, start.AddDate(0, 1, 0)
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	start, end := p.Bounds()
	utc := t.UTC()
	return !utc.Before(start) && utc.Before(end)
}

func (p Period) String() string {
	return string(p)
}
