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

// PaymentRepository handles persistence of the append-only payment ledger.
// Payments and their line items are created in one transaction and never
// mutated afterwards.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// CreateWithItems atomically inserts the payment header and all line items.
// Any failure rolls the whole payment back; no partial line items persist.
func (r *PaymentRepository) CreateWithItems(ctx context.Context, payment *models.Payment, items []models.PaymentLineItem) error {
	if len(items) == 0 {
		return fmt.Errorf("payment requires at least one line item")
	}
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin payment: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const headerQuery = `INSERT INTO payments (id, student_id, family_group_id, month, year, mode, total, observation, registered_by, created_at)
        VALUES (:id, :student_id, :family_group_id, :month, :year, :mode, :total, :observation, :registered_by, :created_at)`
	if _, err := tx.NamedExecContext(ctx, headerQuery, payment); err != nil {
		return fmt.Errorf("insert payment header: %w", err)
	}

	const itemQuery = `INSERT INTO payment_line_items (id, payment_id, student_id, workshop_id, month, year, amount, mode, is_exception, is_full_price)
        VALUES (:id, :payment_id, :student_id, :workshop_id, :month, :year, :amount, :mode, :is_exception, :is_full_price)`
	for i := range items {
		item := &items[i]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.PaymentID = payment.ID
		if _, err := tx.NamedExecContext(ctx, itemQuery, item); err != nil {
			return fmt.Errorf("insert payment line item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit payment: %w", err)
	}
	committed = true
	return nil
}

// PaidTuplesForStudents returns every settled (student, workshop, month,
// year) tuple of the given year for the given students. The calculator uses
// exact-match lookups against this set.
func (r *PaymentRepository) PaidTuplesForStudents(ctx context.Context, studentIDs []string, year int) ([]models.PaidTuple, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT student_id, workshop_id, month, year, is_full_price, is_exception
        FROM payment_line_items WHERE student_id IN (?) AND year = ?`, studentIDs, year)
	if err != nil {
		return nil, fmt.Errorf("build paid tuples query: %w", err)
	}
	query = r.db.Rebind(query)
	var tuples []models.PaidTuple
	if err := r.db.SelectContext(ctx, &tuples, query, args...); err != nil {
		return nil, fmt.Errorf("list paid tuples: %w", err)
	}
	return tuples, nil
}

// PaidTuplesForYear returns every settled tuple of a calendar year.
func (r *PaymentRepository) PaidTuplesForYear(ctx context.Context, year int) ([]models.PaidTuple, error) {
	const query = `SELECT student_id, workshop_id, month, year, is_full_price, is_exception
        FROM payment_line_items WHERE year = $1`
	var tuples []models.PaidTuple
	if err := r.db.SelectContext(ctx, &tuples, query, year); err != nil {
		return nil, fmt.Errorf("list year paid tuples: %w", err)
	}
	return tuples, nil
}

// FindDetailByID returns a payment header with its line items nested. Line
// items come back as structured rows from a second query, grouped in
// application code.
func (r *PaymentRepository) FindDetailByID(ctx context.Context, id string) (*models.PaymentDetail, error) {
	const headerQuery = `SELECT id, student_id, family_group_id, month, year, mode, total, observation, registered_by, created_at
        FROM payments WHERE id = $1`
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, headerQuery, id); err != nil {
		return nil, err
	}
	const itemsQuery = `SELECT id, payment_id, student_id, workshop_id, month, year, amount, mode, is_exception, is_full_price
        FROM payment_line_items WHERE payment_id = $1 ORDER BY student_id, workshop_id`
	var items []models.PaymentLineItem
	if err := r.db.SelectContext(ctx, &items, itemsQuery, id); err != nil {
		return nil, fmt.Errorf("list payment items: %w", err)
	}
	return &models.PaymentDetail{Payment: payment, Items: items}, nil
}

// List returns payment headers filtered by the provided criteria.
func (r *PaymentRepository) List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, int, error) {
	base := `FROM payments p`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("p.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.FamilyGroupID != "" {
		conditions = append(conditions, fmt.Sprintf("p.family_group_id = $%d", len(args)+1))
		args = append(args, filter.FamilyGroupID)
	}
	if filter.Month != 0 {
		conditions = append(conditions, fmt.Sprintf("p.month = $%d", len(args)+1))
		args = append(args, filter.Month)
	}
	if filter.Year != 0 {
		conditions = append(conditions, fmt.Sprintf("p.year = $%d", len(args)+1))
		args = append(args, filter.Year)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"created_at": "p.created_at",
		"total":      "p.total",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "p.created_at"
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

	query := fmt.Sprintf(`SELECT p.id, p.student_id, p.family_group_id, p.month, p.year, p.mode, p.total,
        p.observation, p.registered_by, p.created_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}
	return payments, total, nil
}
