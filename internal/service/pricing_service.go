package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/taller-adm-api/internal/models"
	appErrors "github.com/noah-isme/taller-adm-api/pkg/errors"
)

type priceRepository interface {
	CurrentForType(ctx context.Context, workshopTypeID string, at time.Time) (*models.PriceVersion, error)
	ListByType(ctx context.Context, workshopTypeID string) ([]models.PriceVersion, error)
	Create(ctx context.Context, price *models.PriceVersion) error
}

type workshopTypeReader interface {
	FindTypeByID(ctx context.Context, id string) (*models.WorkshopType, error)
}

// RegisterPriceRequest describes a new price version for a workshop type.
type RegisterPriceRequest struct {
	EffectiveFrom    time.Time       `json:"effective_from" validate:"required"`
	FullCash         decimal.Decimal `json:"full_cash"`
	FullTransfer     decimal.Decimal `json:"full_transfer"`
	DiscountCash     decimal.Decimal `json:"discount_cash"`
	DiscountTransfer decimal.Decimal `json:"discount_transfer"`
}

// PricingService manages the versioned price catalog. Registration is the
// only write path; existing versions are immutable.
type PricingService struct {
	prices    priceRepository
	types     workshopTypeReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPricingService constructs PricingService.
func NewPricingService(prices priceRepository, types workshopTypeReader, validate *validator.Validate, logger *zap.Logger) *PricingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PricingService{prices: prices, types: types, validator: validate, logger: logger}
}

// Register appends a new price version for a workshop type.
func (s *PricingService) Register(ctx context.Context, workshopTypeID string, req RegisterPriceRequest) (*models.PriceVersion, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid price payload")
	}
	for _, amount := range []decimal.Decimal{req.FullCash, req.FullTransfer, req.DiscountCash, req.DiscountTransfer} {
		if amount.IsNegative() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "prices cannot be negative")
		}
	}
	if req.DiscountCash.GreaterThan(req.FullCash) || req.DiscountTransfer.GreaterThan(req.FullTransfer) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "discount price cannot exceed full price")
	}

	if _, err := s.types.FindTypeByID(ctx, workshopTypeID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "workshop type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workshop type")
	}

	price := &models.PriceVersion{
		WorkshopTypeID:   workshopTypeID,
		EffectiveFrom:    req.EffectiveFrom,
		FullCash:         req.FullCash,
		FullTransfer:     req.FullTransfer,
		DiscountCash:     req.DiscountCash,
		DiscountTransfer: req.DiscountTransfer,
	}
	if err := s.prices.Create(ctx, price); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register price version")
	}
	s.logger.Sugar().Infow("price version registered", "workshop_type_id", workshopTypeID, "effective_from", price.EffectiveFrom)
	return price, nil
}

// History returns the full price history for a workshop type, newest first.
func (s *PricingService) History(ctx context.Context, workshopTypeID string) ([]models.PriceVersion, error) {
	if _, err := s.types.FindTypeByID(ctx, workshopTypeID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "workshop type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workshop type")
	}
	prices, err := s.prices.ListByType(ctx, workshopTypeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list price versions")
	}
	return prices, nil
}

// Current resolves today's price version for a workshop type. A missing
// version maps to ErrNotFound; pending dues tolerate it, this endpoint does
// not.
func (s *PricingService) Current(ctx context.Context, workshopTypeID string) (*models.PriceVersion, error) {
	price, err := s.prices.CurrentForType(ctx, workshopTypeID, time.Now())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no current price version")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve current price")
	}
	return price, nil
}
