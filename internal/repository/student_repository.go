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

// StudentRepository handles persistence of students and family groups.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students filtered by the provided criteria.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	base := `FROM students s
LEFT JOIN family_groups fg ON fg.id = s.family_group_id`
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(s.full_name ILIKE $%d OR s.document ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.FamilyGroupID != "" {
		conditions = append(conditions, fmt.Sprintf("s.family_group_id = $%d", len(args)+1))
		args = append(args, filter.FamilyGroupID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("s.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"full_name":  "s.full_name",
		"created_at": "s.created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "s.full_name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf(`SELECT s.id, s.document, s.full_name, s.birth_date, s.address, s.phone, s.active,
        s.family_group_id, s.created_at, s.updated_at, fg.name AS family_group_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID returns a student with family group context.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	const query = `SELECT s.id, s.document, s.full_name, s.birth_date, s.address, s.phone, s.active,
        s.family_group_id, s.created_at, s.updated_at, fg.name AS family_group_name
        FROM students s LEFT JOIN family_groups fg ON fg.id = s.family_group_id
        WHERE s.id = $1`
	var student models.StudentDetail
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListByFamilyGroup returns every member of a family group, active or not.
func (r *StudentRepository) ListByFamilyGroup(ctx context.Context, familyGroupID string) ([]models.Student, error) {
	const query = `SELECT id, document, full_name, birth_date, address, phone, active, family_group_id, created_at, updated_at
        FROM students WHERE family_group_id = $1 ORDER BY full_name`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, familyGroupID); err != nil {
		return nil, fmt.Errorf("list family members: %w", err)
	}
	return students, nil
}

// FindFamilyGroup returns the family group by ID.
func (r *StudentRepository) FindFamilyGroup(ctx context.Context, id string) (*models.FamilyGroup, error) {
	const query = `SELECT id, name, phone, email, created_at FROM family_groups WHERE id = $1`
	var group models.FamilyGroup
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// Create persists a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	now := time.Now().UTC()
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	student.CreatedAt = now
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, document, full_name, birth_date, address, phone, active, family_group_id, created_at, updated_at)
        VALUES (:id, :document, :full_name, :birth_date, :address, :phone, :active, :family_group_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update persists mutable student fields.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET document = :document, full_name = :full_name, birth_date = :birth_date,
        address = :address, phone = :phone, family_group_id = :family_group_id, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// SetActive toggles a student's active state.
func (r *StudentRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE students SET active = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, active, time.Now().UTC()); err != nil {
		return fmt.Errorf("set student active: %w", err)
	}
	return nil
}
