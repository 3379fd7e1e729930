package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceVersion is a dated price quadruple for a workshop type. Versions are
// immutable: price changes append a new version with a later effective date.
type PriceVersion struct {
	ID               string          `db:"id" json:"id"`
	WorkshopTypeID   string          `db:"workshop_type_id" json:"workshop_type_id"`
	EffectiveFrom    time.Time       `db:"effective_from" json:"effective_from"`
	FullCash         decimal.Decimal `db:"full_cash" json:"full_cash"`
	FullTransfer     decimal.Decimal `db:"full_transfer" json:"full_transfer"`
	DiscountCash     decimal.Decimal `db:"discount_cash" json:"discount_cash"`
	DiscountTransfer decimal.Decimal `db:"discount_transfer" json:"discount_transfer"`
	Active           bool            `db:"active" json:"active"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
}

// FullFor returns the full price for the given payment mode.
func (p PriceVersion) FullFor(mode PaymentMode) decimal.Decimal {
	if mode == PaymentModeTransfer {
		return p.FullTransfer
	}
	return p.FullCash
}

// DiscountFor returns the discount price for the given payment mode.
func (p PriceVersion) DiscountFor(mode PaymentMode) decimal.Decimal {
	if mode == PaymentModeTransfer {
		return p.DiscountTransfer
	}
	return p.DiscountCash
}
