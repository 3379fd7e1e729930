package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/taller-adm-api/internal/models"
	appErrors "github.com/noah-isme/taller-adm-api/pkg/errors"
)

type attendanceRepository interface {
	BulkUpsert(ctx context.Context, records []models.AttendanceRecord) error
	ListByWorkshopDate(ctx context.Context, workshopID string, date time.Time) ([]models.AttendanceRecord, error)
	ListByStudent(ctx context.Context, studentID string, from, to time.Time) ([]models.AttendanceRecord, error)
}

// RecordAttendanceEntry is one row of a session sheet.
type RecordAttendanceEntry struct {
	StudentID string                  `json:"student_id" validate:"required"`
	Status    models.AttendanceStatus `json:"status" validate:"required"`
	Note      string                  `json:"note"`
}

// RecordAttendanceRequest describes a whole session sheet submission.
type RecordAttendanceRequest struct {
	WorkshopID string                  `json:"workshop_id" validate:"required"`
	Date       time.Time               `json:"date" validate:"required"`
	Entries    []RecordAttendanceEntry `json:"entries" validate:"required,min=1,dive"`
}

// AttendanceService records and reads workshop attendance sheets.
type AttendanceService struct {
	repo      attendanceRepository
	workshops workshopReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs AttendanceService.
func NewAttendanceService(repo attendanceRepository, workshops workshopReader, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, workshops: workshops, validator: validate, logger: logger}
}

// Record stores one session's sheet atomically; re-submitting the same sheet
// overwrites earlier statuses.
func (s *AttendanceService) Record(ctx context.Context, actorID string, req RecordAttendanceRequest) ([]models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	for _, entry := range req.Entries {
		if !entry.Status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown attendance status")
		}
	}
	if _, err := s.workshops.FindByID(ctx, req.WorkshopID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "workshop not found")
	}

	records := make([]models.AttendanceRecord, 0, len(req.Entries))
	for _, entry := range req.Entries {
		records = append(records, models.AttendanceRecord{
			WorkshopID: req.WorkshopID,
			StudentID:  entry.StudentID,
			Date:       req.Date,
			Status:     entry.Status,
			Note:       entry.Note,
			RecordedBy: actorID,
		})
	}
	if err := s.repo.BulkUpsert(ctx, records); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	s.logger.Sugar().Infow("attendance recorded", "workshop_id", req.WorkshopID, "date", req.Date.Format("2006-01-02"), "entries", len(records))
	return records, nil
}

// Sheet returns the recorded sheet for one workshop session.
func (s *AttendanceService) Sheet(ctx context.Context, workshopID string, date time.Time) ([]models.AttendanceRecord, error) {
	records, err := s.repo.ListByWorkshopDate(ctx, workshopID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance sheet")
	}
	return records, nil
}

// ForStudent returns a student's attendance within a date range.
func (s *AttendanceService) ForStudent(ctx context.Context, studentID string, from, to time.Time) ([]models.AttendanceRecord, error) {
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date range")
	}
	records, err := s.repo.ListByStudent(ctx, studentID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student attendance")
	}
	return records, nil
}
