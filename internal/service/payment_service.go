package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/taller-adm-api/internal/models"
	"github.com/noah-isme/taller-adm-api/pkg/cache"
	appErrors "github.com/noah-isme/taller-adm-api/pkg/errors"
)

type paymentRepository interface {
	CreateWithItems(ctx context.Context, payment *models.Payment, items []models.PaymentLineItem) error
	FindDetailByID(ctx context.Context, id string) (*models.PaymentDetail, error)
	List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, int, error)
}

type pendingCalculator interface {
	PendingForStudent(ctx context.Context, studentID string, period *models.Period) (*models.PendingDues, error)
}

type registrationLocker interface {
	Acquire(ctx context.Context, name string) (func(), error)
}

type receiptNotifier interface {
	Dispatch(ctx context.Context, detail models.PaymentDetail) (string, error)
}

// RegisterPaymentItem is one selected charge. Amounts arrive verbatim from
// the allocation step; the service does not re-derive prices at commit time.
type RegisterPaymentItem struct {
	StudentID   string             `json:"student_id" validate:"required"`
	WorkshopID  string             `json:"workshop_id" validate:"required"`
	Month       int                `json:"month" validate:"required,min=1,max=12"`
	Year        int                `json:"year" validate:"required,min=2000"`
	Amount      decimal.Decimal    `json:"amount"`
	Mode        models.PaymentMode `json:"mode" validate:"required"`
	IsException bool               `json:"is_exception"`
	IsFullPrice bool               `json:"is_full_price"`
}

// RegisterPaymentRequest describes a payment submission.
type RegisterPaymentRequest struct {
	StudentID     string                `json:"student_id" validate:"required"`
	FamilyGroupID *string               `json:"family_group_id,omitempty"`
	Month         int                   `json:"month" validate:"required,min=1,max=12"`
	Year          int                   `json:"year" validate:"required,min=2000"`
	Observation   string                `json:"observation"`
	Items         []RegisterPaymentItem `json:"items" validate:"required,min=1,dive"`
}

// PaymentResult is returned after a successful registration. Warnings carry
// non-fatal follow-up failures (the payment itself is committed).
type PaymentResult struct {
	ID         string          `json:"id"`
	Total      decimal.Decimal `json:"total"`
	ReceiptURL string          `json:"receipt_url,omitempty"`
	Warnings   []string        `json:"-"`
}

// PaymentService runs the payment registration transaction and exposes the
// read side of the payment ledger.
type PaymentService struct {
	payments   paymentRepository
	dues       pendingCalculator
	locker     registrationLocker
	notifier   receiptNotifier
	validator  *validator.Validate
	logger     *zap.Logger
	revalidate bool
}

// NewPaymentService constructs PaymentService. locker and notifier may be
// nil; registration then runs without the advisory lock or receipt dispatch.
func NewPaymentService(payments paymentRepository, dues pendingCalculator, locker registrationLocker, notifier receiptNotifier, validate *validator.Validate, logger *zap.Logger, revalidate bool) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		payments:   payments,
		dues:       dues,
		locker:     locker,
		notifier:   notifier,
		validator:  validate,
		logger:     logger,
		revalidate: revalidate,
	}
}

// Register atomically persists a payment header with its line items. Either
// everything commits or nothing does. After commit, the receipt notification
// is dispatched; its failure surfaces as a warning, never as a rollback.
func (s *PaymentService) Register(ctx context.Context, actorID string, req RegisterPaymentRequest) (*PaymentResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	if len(req.Items) == 0 {
		return nil, appErrors.ErrEmptyPayment
	}
	for _, item := range req.Items {
		if !item.Mode.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown payment mode")
		}
		if item.Amount.IsNegative() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "item amounts cannot be negative")
		}
	}
	if err := checkFullPriceBudget(req.Items); err != nil {
		return nil, err
	}

	if s.locker != nil {
		release, err := s.acquireLock(ctx, req)
		if err != nil {
			return nil, err
		}
		if release != nil {
			defer release()
		}
	}

	if s.revalidate {
		if err := s.revalidatePending(ctx, req); err != nil {
			return nil, err
		}
	}

	total := decimal.Zero
	for _, item := range req.Items {
		total = total.Add(item.Amount)
	}

	payment := &models.Payment{
		StudentID:     req.StudentID,
		FamilyGroupID: req.FamilyGroupID,
		Month:         req.Month,
		Year:          req.Year,
		Mode:          headerMode(req.Items),
		Total:         total,
		Observation:   req.Observation,
		RegisteredBy:  actorID,
	}
	items := make([]models.PaymentLineItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, models.PaymentLineItem{
			StudentID:   item.StudentID,
			WorkshopID:  item.WorkshopID,
			Month:       item.Month,
			Year:        item.Year,
			Amount:      item.Amount,
			Mode:        item.Mode,
			IsException: item.IsException,
			IsFullPrice: item.IsFullPrice,
		})
	}

	if err := s.payments.CreateWithItems(ctx, payment, items); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register payment")
	}
	s.logger.Sugar().Infow("payment registered", "payment_id", payment.ID, "student_id", payment.StudentID, "total", payment.Total, "items", len(items))

	result := &PaymentResult{ID: payment.ID, Total: payment.Total}
	if s.notifier != nil {
		link, err := s.notifier.Dispatch(ctx, models.PaymentDetail{Payment: *payment, Items: items})
		if err != nil {
			s.logger.Sugar().Warnw("receipt notification failed", "payment_id", payment.ID, "error", err)
			result.Warnings = append(result.Warnings, "payment registered but the receipt notification could not be sent")
		} else {
			result.ReceiptURL = link
		}
	}
	return result, nil
}

// FindDetail returns a payment with its nested line items.
func (s *PaymentService) FindDetail(ctx context.Context, id string) (*models.PaymentDetail, error) {
	detail, err := s.payments.FindDetailByID(ctx, id)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
	}
	return detail, nil
}

// List returns payment headers with pagination metadata.
func (s *PaymentService) List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, *models.Pagination, error) {
	payments, total, err := s.payments.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return payments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// acquireLock serialises registration per family (or student) and period.
// Lock contention is a hard conflict; lock infrastructure failure is not,
// the database uniqueness constraint still protects the ledger.
func (s *PaymentService) acquireLock(ctx context.Context, req RegisterPaymentRequest) (func(), error) {
	owner := req.StudentID
	if req.FamilyGroupID != nil {
		owner = *req.FamilyGroupID
	}
	name := fmt.Sprintf("payment:%s:%04d-%02d", owner, req.Year, req.Month)
	release, err := s.locker.Acquire(ctx, name)
	if err != nil {
		if err == cache.ErrLockHeld {
			return nil, appErrors.ErrRegistrationLocked
		}
		s.logger.Sugar().Warnw("registration lock unavailable, proceeding without it", "error", err)
		return nil, nil
	}
	return release, nil
}

// revalidatePending recomputes pending dues right before commit and rejects
// any item that is no longer unpaid, closing the double-charge window between
// the operator's selection and the commit.
func (s *PaymentService) revalidatePending(ctx context.Context, req RegisterPaymentRequest) error {
	dues, err := s.dues.PendingForStudent(ctx, req.StudentID, nil)
	if err != nil {
		return err
	}
	pending := make(map[string]struct{}, len(dues.Items))
	for _, item := range dues.Items {
		pending[item.Key()] = struct{}{}
	}
	for _, item := range req.Items {
		key := models.BillingKey(item.StudentID, item.WorkshopID, item.Month, item.Year)
		if _, ok := pending[key]; !ok {
			return appErrors.Clone(appErrors.ErrAlreadyPaid, fmt.Sprintf("charge %d/%d for workshop %s is no longer pending", item.Month, item.Year, item.WorkshopID))
		}
	}
	return nil
}

// checkFullPriceBudget enforces at most one full-price item per period within
// one submission; exceptions do not count.
func checkFullPriceBudget(items []RegisterPaymentItem) error {
	seen := make(map[string]int)
	for _, item := range items {
		if item.IsException || !item.IsFullPrice {
			continue
		}
		key := fmt.Sprintf("%04d-%02d", item.Year, item.Month)
		seen[key]++
		if seen[key] > 1 {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("more than one full-price item for period %d/%d", item.Month, item.Year))
		}
	}
	return nil
}

// headerMode picks the nominal header mode: the shared item mode when all
// items agree, cash otherwise.
func headerMode(items []RegisterPaymentItem) models.PaymentMode {
	mode := items[0].Mode
	for _, item := range items[1:] {
		if item.Mode != mode {
			return models.PaymentModeCash
		}
	}
	return mode
}
