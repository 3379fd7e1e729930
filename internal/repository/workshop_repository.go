package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/taller-adm-api/internal/models"
)

// WorkshopRepository handles persistence of workshops and their types.
type WorkshopRepository struct {
	db *sqlx.DB
}

// NewWorkshopRepository constructs the repository.
func NewWorkshopRepository(db *sqlx.DB) *WorkshopRepository {
	return &WorkshopRepository{db: db}
}

// List returns workshops filtered by the provided criteria.
func (r *WorkshopRepository) List(ctx context.Context, filter models.WorkshopFilter) ([]models.WorkshopDetail, int, error) {
	base := `FROM workshops w
LEFT JOIN workshop_types wt ON wt.id = w.workshop_type_id`
	var conditions []string
	var args []interface{}

	if filter.WorkshopTypeID != "" {
		conditions = append(conditions, fmt.Sprintf("w.workshop_type_id = $%d", len(args)+1))
		args = append(args, filter.WorkshopTypeID)
	}
	if filter.Year != 0 {
		conditions = append(conditions, fmt.Sprintf("w.year = $%d", len(args)+1))
		args = append(args, filter.Year)
	}
	if filter.State != "" {
		conditions = append(conditions, fmt.Sprintf("w.state = $%d", len(args)+1))
		args = append(args, filter.State)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"start_date": "w.start_date",
		"type_name":  "wt.name",
		"year":       "w.year",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "w.start_date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT w.id, w.workshop_type_id, w.year, w.start_date, w.schedule, w.instructor,
        w.state, w.created_at, wt.name AS type_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var workshops []models.WorkshopDetail
	if err := r.db.SelectContext(ctx, &workshops, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list workshops: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count workshops: %w", err)
	}
	return workshops, total, nil
}

// FindByID returns a workshop with its type name.
func (r *WorkshopRepository) FindByID(ctx context.Context, id string) (*models.WorkshopDetail, error) {
	const query = `SELECT w.id, w.workshop_type_id, w.year, w.start_date, w.schedule, w.instructor,
        w.state, w.created_at, wt.name AS type_name
        FROM workshops w LEFT JOIN workshop_types wt ON wt.id = w.workshop_type_id
        WHERE w.id = $1`
	var workshop models.WorkshopDetail
	if err := r.db.GetContext(ctx, &workshop, query, id); err != nil {
		return nil, err
	}
	return &workshop, nil
}

// Create persists a new workshop offering.
func (r *WorkshopRepository) Create(ctx context.Context, workshop *models.Workshop) error {
	if workshop.ID == "" {
		workshop.ID = uuid.NewString()
	}
	if workshop.CreatedAt.IsZero() {
		workshop.CreatedAt = time.Now().UTC()
	}
	if workshop.State == "" {
		workshop.State = models.WorkshopStateActive
	}
	const query = `INSERT INTO workshops (id, workshop_type_id, year, start_date, schedule, instructor, state, created_at)
        VALUES (:id, :workshop_type_id, :year, :start_date, :schedule, :instructor, :state, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, workshop); err != nil {
		return fmt.Errorf("create workshop: %w", err)
	}
	return nil
}

// UpdateState transitions a workshop's lifecycle state.
func (r *WorkshopRepository) UpdateState(ctx context.Context, id string, state models.WorkshopState) error {
	const query = `UPDATE workshops SET state = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, state); err != nil {
		return fmt.Errorf("update workshop state: %w", err)
	}
	return nil
}

// ListTypes returns workshop types, optionally restricted to active ones.
func (r *WorkshopRepository) ListTypes(ctx context.Context, activeOnly bool) ([]models.WorkshopType, error) {
	query := `SELECT id, name, age_from, age_to, active FROM workshop_types`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY name`
	var types []models.WorkshopType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("list workshop types: %w", err)
	}
	return types, nil
}

// FindTypeByID returns a workshop type.
func (r *WorkshopRepository) FindTypeByID(ctx context.Context, id string) (*models.WorkshopType, error) {
	const query = `SELECT id, name, age_from, age_to, active FROM workshop_types WHERE id = $1`
	var wt models.WorkshopType
	if err := r.db.GetContext(ctx, &wt, query, id); err != nil {
		return nil, err
	}
	return &wt, nil
}
