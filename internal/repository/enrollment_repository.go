package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/taller-adm-api/internal/models"
)

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentDetailColumns = `e.id, e.student_id, e.workshop_id, e.enrolled_at, e.withdrawn_at,
        s.full_name AS student_name, s.active AS student_active, s.family_group_id,
        w.workshop_type_id, wt.name AS workshop_name, w.year AS workshop_year,
        w.start_date AS workshop_start_date, w.state AS workshop_state`

const enrollmentDetailBase = `FROM enrollments e
JOIN students s ON s.id = e.student_id
JOIN workshops w ON w.id = e.workshop_id
JOIN workshop_types wt ON wt.id = w.workshop_type_id`

// List returns enrollments filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.WorkshopID != "" {
		conditions = append(conditions, fmt.Sprintf("e.workshop_id = $%d", len(args)+1))
		args = append(args, filter.WorkshopID)
	}
	if filter.ActiveOnly {
		conditions = append(conditions, "e.withdrawn_at IS NULL")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"enrolled_at":   "e.enrolled_at",
		"student_name":  "s.full_name",
		"workshop_name": "wt.name",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "e.enrolled_at"
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

	query := fmt.Sprintf(`SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		enrollmentDetailColumns, enrollmentDetailBase+clause, orderBy, order, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", enrollmentDetailBase+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, workshop_id, enrolled_at, withdrawn_at FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ExistsActive checks if an open enrollment exists for the pair.
func (r *EnrollmentRepository) ExistsActive(ctx context.Context, studentID, workshopID string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND workshop_id = $2 AND withdrawn_at IS NULL LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, workshopID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check active enrollment: %w", err)
	}
	return true, nil
}

// Create persists a new enrollment record.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = time.Now().UTC()
	}
	const query = `INSERT INTO enrollments (id, student_id, workshop_id, enrolled_at, withdrawn_at)
        VALUES (:id, :student_id, :workshop_id, :enrolled_at, :withdrawn_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// Withdraw soft-closes an enrollment. The row is never deleted.
func (r *EnrollmentRepository) Withdraw(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE enrollments SET withdrawn_at = $2 WHERE id = $1 AND withdrawn_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("withdraw enrollment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListActiveForStudents returns billable enrollments for the given students
// within one calendar year: open enrollments of active students in active
// workshops of that year.
func (r *EnrollmentRepository) ListActiveForStudents(ctx context.Context, studentIDs []string, year int) ([]models.EnrollmentDetail, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(fmt.Sprintf(`SELECT %s %s
        WHERE e.student_id IN (?) AND e.withdrawn_at IS NULL
        AND s.active = TRUE AND w.state = ? AND w.year = ?
        ORDER BY e.student_id, wt.name`, enrollmentDetailColumns, enrollmentDetailBase),
		studentIDs, models.WorkshopStateActive, year)
	if err != nil {
		return nil, fmt.Errorf("build active enrollments query: %w", err)
	}
	query = r.db.Rebind(query)
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, fmt.Errorf("list active enrollments: %w", err)
	}
	return enrollments, nil
}

// ListActiveForYear returns every billable enrollment of a calendar year,
// feeding the institution-wide pending dues report.
func (r *EnrollmentRepository) ListActiveForYear(ctx context.Context, year int) ([]models.EnrollmentDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s
        WHERE e.withdrawn_at IS NULL AND s.active = TRUE AND w.state = $1 AND w.year = $2
        ORDER BY e.student_id, wt.name`, enrollmentDetailColumns, enrollmentDetailBase)
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, models.WorkshopStateActive, year); err != nil {
		return nil, fmt.Errorf("list year enrollments: %w", err)
	}
	return enrollments, nil
}
