package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/taller-adm-api/internal/models"
)

// PriceRepository handles persistence of the versioned price catalog.
type PriceRepository struct {
	db *sqlx.DB
}

// NewPriceRepository constructs the repository.
func NewPriceRepository(db *sqlx.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

const priceColumns = `id, workshop_type_id, effective_from, full_cash, full_transfer, discount_cash, discount_transfer, active, created_at`

// CurrentForType resolves the price version in effect for a workshop type at
// the given date: the active row with the greatest effective_from <= date.
func (r *PriceRepository) CurrentForType(ctx context.Context, workshopTypeID string, at time.Time) (*models.PriceVersion, error) {
	query := fmt.Sprintf(`SELECT %s FROM price_versions
        WHERE workshop_type_id = $1 AND active = TRUE AND effective_from <= $2
        ORDER BY effective_from DESC LIMIT 1`, priceColumns)
	var price models.PriceVersion
	if err := r.db.GetContext(ctx, &price, query, workshopTypeID, at); err != nil {
		return nil, err
	}
	return &price, nil
}

// CurrentForTypes resolves current prices for many workshop types at once,
// keyed by workshop type ID. Types without a current version are absent from
// the result rather than an error.
func (r *PriceRepository) CurrentForTypes(ctx context.Context, workshopTypeIDs []string, at time.Time) (map[string]models.PriceVersion, error) {
	if len(workshopTypeIDs) == 0 {
		return map[string]models.PriceVersion{}, nil
	}
	query, args, err := sqlx.In(fmt.Sprintf(`SELECT DISTINCT ON (workshop_type_id) %s FROM price_versions
        WHERE workshop_type_id IN (?) AND active = TRUE AND effective_from <= ?
        ORDER BY workshop_type_id, effective_from DESC`, priceColumns), workshopTypeIDs, at)
	if err != nil {
		return nil, fmt.Errorf("build current prices query: %w", err)
	}
	query = r.db.Rebind(query)
	var prices []models.PriceVersion
	if err := r.db.SelectContext(ctx, &prices, query, args...); err != nil {
		return nil, fmt.Errorf("resolve current prices: %w", err)
	}
	out := make(map[string]models.PriceVersion, len(prices))
	for _, p := range prices {
		out[p.WorkshopTypeID] = p
	}
	return out, nil
}

// ListByType returns the full version history for a workshop type.
func (r *PriceRepository) ListByType(ctx context.Context, workshopTypeID string) ([]models.PriceVersion, error) {
	query := fmt.Sprintf(`SELECT %s FROM price_versions WHERE workshop_type_id = $1 ORDER BY effective_from DESC`, priceColumns)
	var prices []models.PriceVersion
	if err := r.db.SelectContext(ctx, &prices, query, workshopTypeID); err != nil {
		return nil, fmt.Errorf("list price versions: %w", err)
	}
	return prices, nil
}

// Create appends a new price version. Versions are never updated in place.
func (r *PriceRepository) Create(ctx context.Context, price *models.PriceVersion) error {
	if price.ID == "" {
		price.ID = uuid.NewString()
	}
	if price.CreatedAt.IsZero() {
		price.CreatedAt = time.Now().UTC()
	}
	price.Active = true
	const query = `INSERT INTO price_versions (id, workshop_type_id, effective_from, full_cash, full_transfer, discount_cash, discount_transfer, active, created_at)
        VALUES (:id, :workshop_type_id, :effective_from, :full_cash, :full_transfer, :discount_cash, :discount_transfer, :active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, price); err != nil {
		return fmt.Errorf("create price version: %w", err)
	}
	return nil
}
