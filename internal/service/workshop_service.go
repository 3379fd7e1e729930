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

type workshopRepository interface {
	List(ctx context.Context, filter models.WorkshopFilter) ([]models.WorkshopDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.WorkshopDetail, error)
	Create(ctx context.Context, workshop *models.Workshop) error
	UpdateState(ctx context.Context, id string, state models.WorkshopState) error
	ListTypes(ctx context.Context, activeOnly bool) ([]models.WorkshopType, error)
	FindTypeByID(ctx context.Context, id string) (*models.WorkshopType, error)
}

// CreateWorkshopRequest describes a new concrete offering.
type CreateWorkshopRequest struct {
	WorkshopTypeID string    `json:"workshop_type_id" validate:"required"`
	Year           int       `json:"year" validate:"required,min=2000"`
	StartDate      time.Time `json:"start_date" validate:"required"`
	Schedule       string    `json:"schedule" validate:"required"`
	Instructor     string    `json:"instructor" validate:"required"`
}

// WorkshopService manages workshop offerings and their lifecycle.
type WorkshopService struct {
	repo      workshopRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWorkshopService constructs WorkshopService.
func NewWorkshopService(repo workshopRepository, validate *validator.Validate, logger *zap.Logger) *WorkshopService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkshopService{repo: repo, validator: validate, logger: logger}
}

// List returns workshops with pagination metadata.
func (s *WorkshopService) List(ctx context.Context, filter models.WorkshopFilter) ([]models.WorkshopDetail, *models.Pagination, error) {
	workshops, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list workshops")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return workshops, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Find returns a workshop with its type.
func (s *WorkshopService) Find(ctx context.Context, id string) (*models.WorkshopDetail, error) {
	workshop, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "workshop not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workshop")
	}
	return workshop, nil
}

// Create opens a new workshop offering.
func (s *WorkshopService) Create(ctx context.Context, req CreateWorkshopRequest) (*models.Workshop, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid workshop payload")
	}
	if req.StartDate.Year() != req.Year {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start date must fall within the workshop year")
	}
	wt, err := s.repo.FindTypeByID(ctx, req.WorkshopTypeID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "workshop type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workshop type")
	}
	if !wt.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "workshop type is inactive")
	}

	workshop := &models.Workshop{
		WorkshopTypeID: req.WorkshopTypeID,
		Year:           req.Year,
		StartDate:      req.StartDate,
		Schedule:       req.Schedule,
		Instructor:     req.Instructor,
		State:          models.WorkshopStateActive,
	}
	if err := s.repo.Create(ctx, workshop); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create workshop")
	}
	return workshop, nil
}

// valid lifecycle transitions.
var workshopTransitions = map[models.WorkshopState][]models.WorkshopState{
	models.WorkshopStateActive:   {models.WorkshopStateInactive, models.WorkshopStateFinished},
	models.WorkshopStateInactive: {models.WorkshopStateActive, models.WorkshopStateFinished},
}

// Transition moves a workshop to a new lifecycle state. Finished is terminal.
func (s *WorkshopService) Transition(ctx context.Context, id string, state models.WorkshopState) (*models.WorkshopDetail, error) {
	workshop, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	allowed := false
	for _, next := range workshopTransitions[workshop.State] {
		if next == state {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "invalid workshop state transition")
	}
	if err := s.repo.UpdateState(ctx, id, state); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update workshop state")
	}
	s.logger.Sugar().Infow("workshop state changed", "workshop_id", id, "state", state)
	return s.Find(ctx, id)
}

// ListTypes returns the workshop type lookup.
func (s *WorkshopService) ListTypes(ctx context.Context, activeOnly bool) ([]models.WorkshopType, error) {
	types, err := s.repo.ListTypes(ctx, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list workshop types")
	}
	return types, nil
}
