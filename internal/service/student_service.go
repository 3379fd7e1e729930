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

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	FindFamilyGroup(ctx context.Context, id string) (*models.FamilyGroup, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	SetActive(ctx context.Context, id string, active bool) error
}

// CreateStudentRequest describes a new student.
type CreateStudentRequest struct {
	Document      string    `json:"document" validate:"required"`
	FullName      string    `json:"full_name" validate:"required"`
	BirthDate     time.Time `json:"birth_date" validate:"required"`
	Address       string    `json:"address"`
	Phone         string    `json:"phone"`
	FamilyGroupID *string   `json:"family_group_id,omitempty"`
}

// UpdateStudentRequest carries mutable student fields.
type UpdateStudentRequest struct {
	Document      string    `json:"document" validate:"required"`
	FullName      string    `json:"full_name" validate:"required"`
	BirthDate     time.Time `json:"birth_date" validate:"required"`
	Address       string    `json:"address"`
	Phone         string    `json:"phone"`
	FamilyGroupID *string   `json:"family_group_id,omitempty"`
}

// StudentService manages the student roster.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs StudentService.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// List returns students with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Find returns a student with family context.
func (s *StudentService) Find(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if req.FamilyGroupID != nil {
		if _, err := s.repo.FindFamilyGroup(ctx, *req.FamilyGroupID); err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "family group not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load family group")
		}
	}
	student := &models.Student{
		Document:      req.Document,
		FullName:      req.FullName,
		BirthDate:     req.BirthDate,
		Address:       req.Address,
		Phone:         req.Phone,
		Active:        true,
		FamilyGroupID: req.FamilyGroupID,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update modifies an existing student.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	existing, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.FamilyGroupID != nil {
		if _, err := s.repo.FindFamilyGroup(ctx, *req.FamilyGroupID); err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "family group not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load family group")
		}
	}
	student := existing.Student
	student.Document = req.Document
	student.FullName = req.FullName
	student.BirthDate = req.BirthDate
	student.Address = req.Address
	student.Phone = req.Phone
	student.FamilyGroupID = req.FamilyGroupID
	if err := s.repo.Update(ctx, &student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return s.Find(ctx, id)
}

// SetActive toggles a student's active state. Deactivation stops dues from
// accruing without touching the enrollment ledger.
func (s *StudentService) SetActive(ctx context.Context, id string, active bool) error {
	if _, err := s.Find(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student state")
	}
	s.logger.Sugar().Infow("student state changed", "student_id", id, "active", active)
	return nil
}
