package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMode distinguishes the two price columns of the catalog.
type PaymentMode string

// Supported payment modes.
const (
	PaymentModeCash     PaymentMode = "CASH"
	PaymentModeTransfer PaymentMode = "TRANSFER"
)

// Valid reports whether the mode is one of the supported values.
func (m PaymentMode) Valid() bool {
	return m == PaymentModeCash || m == PaymentModeTransfer
}

// Payment is an immutable payment header. Corrections are handled outside
// this system; there is no update or delete path.
type Payment struct {
	ID            string          `db:"id" json:"id"`
	StudentID     string          `db:"student_id" json:"student_id"`
	FamilyGroupID *string         `db:"family_group_id" json:"family_group_id,omitempty"`
	Month         int             `db:"month" json:"month"`
	Year          int             `db:"year" json:"year"`
	Mode          PaymentMode     `db:"mode" json:"mode"`
	Total         decimal.Decimal `db:"total" json:"total"`
	Observation   string          `db:"observation" json:"observation"`
	RegisteredBy  string          `db:"registered_by" json:"registered_by"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// PaymentLineItem records one tuition charge inside a payment.
type PaymentLineItem struct {
	ID          string          `db:"id" json:"id"`
	PaymentID   string          `db:"payment_id" json:"payment_id"`
	StudentID   string          `db:"student_id" json:"student_id"`
	WorkshopID  string          `db:"workshop_id" json:"workshop_id"`
	Month       int             `db:"month" json:"month"`
	Year        int             `db:"year" json:"year"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Mode        PaymentMode     `db:"mode" json:"mode"`
	IsException bool            `db:"is_exception" json:"is_exception"`
	IsFullPrice bool            `db:"is_full_price" json:"is_full_price"`
}

// PaymentDetail nests line items under their header.
type PaymentDetail struct {
	Payment
	Items []PaymentLineItem `json:"items"`
}

// PaymentFilter narrows payment listings.
type PaymentFilter struct {
	StudentID     string
	FamilyGroupID string
	Month         int
	Year          int
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}

// PaidTuple identifies a settled (student, workshop, month, year) charge.
type PaidTuple struct {
	StudentID   string `db:"student_id"`
	WorkshopID  string `db:"workshop_id"`
	Month       int    `db:"month"`
	Year        int    `db:"year"`
	IsFullPrice bool   `db:"is_full_price"`
	IsException bool   `db:"is_exception"`
}

// Key returns the canonical lookup key for the tuple.
func (t PaidTuple) Key() string {
	return BillingKey(t.StudentID, t.WorkshopID, t.Month, t.Year)
}
