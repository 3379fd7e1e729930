package dto

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/taller-adm-api/internal/models"
)

// AllocateRequest is the allocation preview payload. Override maps are keyed
// by the pending item's billing key as returned by the dues endpoints.
type AllocateRequest struct {
	StudentID          string                        `json:"student_id"`
	Month              int                           `json:"month"`
	Year               int                           `json:"year"`
	Mode               models.PaymentMode            `json:"mode"`
	ModeOverrides      map[string]models.PaymentMode `json:"mode_overrides,omitempty"`
	ExceptionOverrides map[string]decimal.Decimal    `json:"exception_overrides,omitempty"`
	SelectedKeys       []string                      `json:"selected_keys,omitempty"`
}

// PendingReportRow flattens one pending charge for the report payload.
type PendingReportRow struct {
	StudentID      string           `json:"student_id"`
	StudentName    string           `json:"student_name"`
	FamilyGroupID  *string          `json:"family_group_id,omitempty"`
	WorkshopName   string           `json:"workshop_name"`
	Month          int              `json:"month"`
	Year           int              `json:"year"`
	ReferencePrice *decimal.Decimal `json:"reference_price,omitempty"`
}
