package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/taller-adm-api/internal/models"
)

// AttendanceRepository handles persistence of workshop attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = `id, workshop_id, student_id, date, status, note, recorded_by, created_at, updated_at`

// BulkUpsert records a whole session sheet in one transaction. Re-recording
// the same (workshop, student, date) overwrites the previous status.
func (r *AttendanceRepository) BulkUpsert(ctx context.Context, records []models.AttendanceRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attendance sheet: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO attendance_records (id, workshop_id, student_id, date, status, note, recorded_by, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (workshop_id, student_id, date)
        DO UPDATE SET status = EXCLUDED.status, note = EXCLUDED.note, recorded_by = EXCLUDED.recorded_by, updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		rec.UpdatedAt = now
		if _, err := tx.ExecContext(ctx, query, rec.ID, rec.WorkshopID, rec.StudentID, rec.Date, rec.Status, rec.Note, rec.RecordedBy, rec.CreatedAt, rec.UpdatedAt); err != nil {
			return fmt.Errorf("upsert attendance record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance sheet: %w", err)
	}
	committed = true
	return nil
}

// ListByWorkshopDate returns the sheet for one workshop session.
func (r *AttendanceRepository) ListByWorkshopDate(ctx context.Context, workshopID string, date time.Time) ([]models.AttendanceRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_records WHERE workshop_id = $1 AND date = $2 ORDER BY student_id`, attendanceColumns)
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, workshopID, date); err != nil {
		return nil, fmt.Errorf("list session attendance: %w", err)
	}
	return records, nil
}

// ListByStudent returns a student's attendance within a date range.
func (r *AttendanceRepository) ListByStudent(ctx context.Context, studentID string, from, to time.Time) ([]models.AttendanceRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_records WHERE student_id = $1 AND date >= $2 AND date <= $3 ORDER BY date DESC`, attendanceColumns)
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, studentID, from, to); err != nil {
		return nil, fmt.Errorf("list student attendance: %w", err)
	}
	return records, nil
}
