package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Period is one billing month.
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Month: int(t.Month()), Year: t.Year()}
}

// Valid reports whether the period is a real calendar month.
func (p Period) Valid() bool {
	return p.Month >= 1 && p.Month <= 12 && p.Year >= 2000
}

// BillingKey builds the canonical identity of one tuition charge.
func BillingKey(studentID, workshopID string, month, year int) string {
	return fmt.Sprintf("%s|%s|%02d|%04d", studentID, workshopID, month, year)
}

// PendingItem is a tuition charge that is due and unpaid. ReferencePrice is
// nil when the workshop type has no current price version; such items stay
// visible but cannot be auto-priced.
type PendingItem struct {
	StudentID      string        `json:"student_id"`
	StudentName    string        `json:"student_name"`
	WorkshopID     string        `json:"workshop_id"`
	WorkshopName   string        `json:"workshop_name"`
	WorkshopTypeID string        `json:"workshop_type_id"`
	Month          int           `json:"month"`
	Year           int           `json:"year"`
	ReferencePrice *PriceVersion `json:"reference_price,omitempty"`
}

// Key returns the canonical lookup key for the item.
func (i PendingItem) Key() string {
	return BillingKey(i.StudentID, i.WorkshopID, i.Month, i.Year)
}

// PricedItem is a pending item with an allocated amount. Priced is false for
// non-exception items whose workshop type lacks a current price version.
type PricedItem struct {
	PendingItem
	Amount      decimal.Decimal `json:"amount"`
	Mode        PaymentMode     `json:"mode"`
	IsException bool            `json:"is_exception"`
	IsFullPrice bool            `json:"is_full_price"`
	Priced      bool            `json:"priced"`
}

// PeriodContext carries the family-level facts the discount allocator needs
// for one billing period.
type PeriodContext struct {
	// TotalWorkshops counts every enrollment the student or family holds in
	// the period, paid ones included.
	TotalWorkshops int `json:"total_workshops"`
	// HasFullPricePayment is true when a previously committed line item for
	// the period already carried the full price.
	HasFullPricePayment bool `json:"has_full_price_payment"`
}

// PendingDues is the calculator result for one student or family group.
type PendingDues struct {
	StudentID         string        `json:"student_id"`
	FamilyGroupID     *string       `json:"family_group_id,omitempty"`
	Items             []PendingItem `json:"items"`
	NoActiveWorkshops bool          `json:"no_active_workshops"`
}
