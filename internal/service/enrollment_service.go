package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/taller-adm-api/internal/models"
	appErrors "github.com/noah-isme/taller-adm-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	ExistsActive(ctx context.Context, studentID, workshopID string) (bool, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Withdraw(ctx context.Context, id string, at time.Time) error
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

type workshopReader interface {
	FindByID(ctx context.Context, id string) (*models.WorkshopDetail, error)
}

// EnrollStudentRequest describes enrollment creation request.
type EnrollStudentRequest struct {
	StudentID  string `json:"student_id" validate:"required"`
	WorkshopID string `json:"workshop_id" validate:"required"`
}

// EnrollmentService orchestrates the inscription and withdrawal workflows
// feeding the enrollment ledger.
type EnrollmentService struct {
	repo      enrollmentRepository
	students  studentReader
	workshops workshopReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, students studentReader, workshops workshopReader, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, students: students, workshops: workshops, validator: validate, logger: logger}
}

// List returns enrollments with pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return enrollments, pagination, nil
}

// Enroll registers a student into a workshop. Dues start accruing from the
// later of the enrollment month and the workshop start month.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollStudentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "student inactive")
	}
	workshop, err := s.workshops.FindByID(ctx, req.WorkshopID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "workshop not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workshop")
	}
	if workshop.State != models.WorkshopStateActive {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "workshop is not active")
	}
	exists, err := s.repo.ExistsActive(ctx, req.StudentID, req.WorkshopID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already enrolled in workshop")
	}

	enrollment := &models.Enrollment{StudentID: req.StudentID, WorkshopID: req.WorkshopID}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	s.logger.Sugar().Infow("student enrolled", "enrollment_id", enrollment.ID, "student_id", req.StudentID, "workshop_id", req.WorkshopID)
	return enrollment, nil
}

// Withdraw soft-closes an enrollment; dues stop accruing from that moment
// but the record stays for the payments that reference it.
func (s *EnrollmentService) Withdraw(ctx context.Context, id string) (*models.Enrollment, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "enrollment id is required")
	}
	if err := s.repo.Withdraw(ctx, id, time.Now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "active enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to withdraw enrollment")
	}
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	s.logger.Sugar().Infow("student withdrawn", "enrollment_id", id)
	return enrollment, nil
}
