package service

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/taller-adm-api/internal/models"
	appErrors "github.com/noah-isme/taller-adm-api/pkg/errors"
)

type duesStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	ListByFamilyGroup(ctx context.Context, familyGroupID string) ([]models.Student, error)
}

type duesEnrollmentRepository interface {
	ListActiveForStudents(ctx context.Context, studentIDs []string, year int) ([]models.EnrollmentDetail, error)
	ListActiveForYear(ctx context.Context, year int) ([]models.EnrollmentDetail, error)
}

type duesPaymentRepository interface {
	PaidTuplesForStudents(ctx context.Context, studentIDs []string, year int) ([]models.PaidTuple, error)
	PaidTuplesForYear(ctx context.Context, year int) ([]models.PaidTuple, error)
}

type duesPriceRepository interface {
	CurrentForTypes(ctx context.Context, workshopTypeIDs []string, at time.Time) (map[string]models.PriceVersion, error)
}

// DuesService is the pending dues calculator. It is the single source of
// "what is owed" for the student detail view, the pending dues report and
// the payment registration flow; all three read the same computation.
//
// The service is read-only and holds no state between calls: every request
// re-reads enrollments, payments and the price catalog.
type DuesService struct {
	students    duesStudentRepository
	enrollments duesEnrollmentRepository
	payments    duesPaymentRepository
	prices      duesPriceRepository
	logger      *zap.Logger
	now         func() time.Time
}

// NewDuesService constructs DuesService.
func NewDuesService(students duesStudentRepository, enrollments duesEnrollmentRepository, payments duesPaymentRepository, prices duesPriceRepository, logger *zap.Logger) *DuesService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DuesService{
		students:    students,
		enrollments: enrollments,
		payments:    payments,
		prices:      prices,
		logger:      logger,
		now:         time.Now,
	}
}

// PendingForStudent computes pending dues for a student, or for the whole
// family group when the student belongs to one. With a nil period it returns
// everything owed up to the current month; with a period it returns only that
// month's charges, still gated by each enrollment's valid month range.
func (s *DuesService) PendingForStudent(ctx context.Context, studentID string, period *models.Period) (*models.PendingDues, error) {
	members, familyGroupID, err := s.resolveMembers(ctx, studentID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	year := now.Year()
	if period != nil {
		if !period.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid billing period")
		}
		if period.Year != year {
			return nil, appErrors.Clone(appErrors.ErrValidation, "only the current calendar year is billed")
		}
	}

	enrollments, err := s.enrollments.ListActiveForStudents(ctx, members, year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}

	dues := &models.PendingDues{StudentID: studentID, FamilyGroupID: familyGroupID}
	if len(enrollments) == 0 {
		dues.NoActiveWorkshops = true
		return dues, nil
	}

	paidSet, _, err := s.paidFacts(ctx, members, year)
	if err != nil {
		return nil, err
	}
	prices, err := s.currentPrices(ctx, enrollments, now)
	if err != nil {
		return nil, err
	}

	dues.Items = computePending(enrollments, paidSet, prices, now, period)
	return dues, nil
}

// PendingForPeriod computes one period's pending items together with the
// period context the discount allocator needs: the total enrollment count for
// the period (paid charges included) and whether a committed full-price
// payment already exists for it.
func (s *DuesService) PendingForPeriod(ctx context.Context, studentID string, period models.Period) (*models.PendingDues, models.PeriodContext, error) {
	members, familyGroupID, err := s.resolveMembers(ctx, studentID)
	if err != nil {
		return nil, models.PeriodContext{}, err
	}

	now := s.now()
	year := now.Year()
	if !period.Valid() {
		return nil, models.PeriodContext{}, appErrors.Clone(appErrors.ErrValidation, "invalid billing period")
	}
	if period.Year != year {
		return nil, models.PeriodContext{}, appErrors.Clone(appErrors.ErrValidation, "only the current calendar year is billed")
	}

	enrollments, err := s.enrollments.ListActiveForStudents(ctx, members, year)
	if err != nil {
		return nil, models.PeriodContext{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}

	dues := &models.PendingDues{StudentID: studentID, FamilyGroupID: familyGroupID}
	if len(enrollments) == 0 {
		dues.NoActiveWorkshops = true
		return dues, models.PeriodContext{}, nil
	}

	paidSet, paidTuples, err := s.paidFacts(ctx, members, year)
	if err != nil {
		return nil, models.PeriodContext{}, err
	}
	prices, err := s.currentPrices(ctx, enrollments, now)
	if err != nil {
		return nil, models.PeriodContext{}, err
	}

	dues.Items = computePending(enrollments, paidSet, prices, now, &period)
	return dues, periodContextFor(enrollments, paidTuples, now, period), nil
}

// PendingReport computes pending dues for the whole institution, one entry
// per family group (students without a group count as their own group).
func (s *DuesService) PendingReport(ctx context.Context, period *models.Period) ([]models.PendingDues, error) {
	now := s.now()
	year := now.Year()
	if period != nil {
		if !period.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid billing period")
		}
		if period.Year != year {
			return nil, appErrors.Clone(appErrors.ErrValidation, "only the current calendar year is billed")
		}
	}

	enrollments, err := s.enrollments.ListActiveForYear(ctx, year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	if len(enrollments) == 0 {
		return nil, nil
	}

	paidTuples, err := s.payments.PaidTuplesForYear(ctx, year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payments")
	}
	paidSet := make(map[string]struct{}, len(paidTuples))
	for _, t := range paidTuples {
		paidSet[t.Key()] = struct{}{}
	}

	prices, err := s.currentPrices(ctx, enrollments, now)
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]models.EnrollmentDetail)
	var order []string
	for _, e := range enrollments {
		key := e.StudentID
		if e.FamilyGroupID != nil {
			key = "fg:" + *e.FamilyGroupID
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], e)
	}
	sort.Strings(order)

	var report []models.PendingDues
	for _, key := range order {
		group := groups[key]
		items := computePending(group, paidSet, prices, now, period)
		if len(items) == 0 {
			continue
		}
		entry := models.PendingDues{StudentID: group[0].StudentID, FamilyGroupID: group[0].FamilyGroupID, Items: items}
		report = append(report, entry)
	}
	return report, nil
}

// AllocateRequest describes an allocation preview for one billing period.
// SelectedKeys optionally restricts pricing to a subset of the pending items;
// the period context still reflects the whole family.
type AllocateRequest struct {
	StudentID    string
	Month        int
	Year         int
	Mode         models.PaymentMode
	Overrides    AllocationOverrides
	SelectedKeys []string
}

// AllocateResult carries the priced items plus the facts they were priced
// under, so the client can resubmit consistently.
type AllocateResult struct {
	Items         []models.PricedItem  `json:"items"`
	Context       models.PeriodContext `json:"context"`
	FamilyGroupID *string              `json:"family_group_id,omitempty"`
}

// Allocate recomputes the period's pending items and prices them with the
// family discount rules. Idempotent: callers re-run it on every selection or
// mode change.
func (s *DuesService) Allocate(ctx context.Context, req AllocateRequest) (*AllocateResult, error) {
	dues, pctx, err := s.PendingForPeriod(ctx, req.StudentID, models.Period{Month: req.Month, Year: req.Year})
	if err != nil {
		return nil, err
	}

	items := dues.Items
	if len(req.SelectedKeys) > 0 {
		pending := make(map[string]models.PendingItem, len(items))
		for _, item := range items {
			pending[item.Key()] = item
		}
		selected := make([]models.PendingItem, 0, len(req.SelectedKeys))
		for _, key := range req.SelectedKeys {
			item, ok := pending[key]
			if !ok {
				return nil, appErrors.Clone(appErrors.ErrValidation, "selected item is not pending for the period")
			}
			selected = append(selected, item)
		}
		items = selected
	}

	return &AllocateResult{
		Items:         AllocatePrices(items, pctx, req.Mode, req.Overrides),
		Context:       pctx,
		FamilyGroupID: dues.FamilyGroupID,
	}, nil
}

func (s *DuesService) resolveMembers(ctx context.Context, studentID string) ([]string, *string, error) {
	if studentID == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	if student.FamilyGroupID == nil {
		return []string{student.ID}, nil, nil
	}

	siblings, err := s.students.ListByFamilyGroup(ctx, *student.FamilyGroupID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load family group")
	}
	ids := make([]string, 0, len(siblings))
	for _, sib := range siblings {
		ids = append(ids, sib.ID)
	}
	if len(ids) == 0 {
		ids = []string{student.ID}
	}
	return ids, student.FamilyGroupID, nil
}

func (s *DuesService) paidFacts(ctx context.Context, studentIDs []string, year int) (map[string]struct{}, []models.PaidTuple, error) {
	tuples, err := s.payments.PaidTuplesForStudents(ctx, studentIDs, year)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payments")
	}
	set := make(map[string]struct{}, len(tuples))
	for _, t := range tuples {
		set[t.Key()] = struct{}{}
	}
	return set, tuples, nil
}

func (s *DuesService) currentPrices(ctx context.Context, enrollments []models.EnrollmentDetail, now time.Time) (map[string]models.PriceVersion, error) {
	seen := make(map[string]struct{})
	var typeIDs []string
	for _, e := range enrollments {
		if _, ok := seen[e.WorkshopTypeID]; ok {
			continue
		}
		seen[e.WorkshopTypeID] = struct{}{}
		typeIDs = append(typeIDs, e.WorkshopTypeID)
	}
	prices, err := s.prices.CurrentForTypes(ctx, typeIDs, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve prices")
	}
	if len(prices) < len(typeIDs) {
		s.logger.Sugar().Warnw("workshop types without a current price version", "requested", len(typeIDs), "resolved", len(prices))
	}
	return prices, nil
}

// computePending walks each enrollment's due month range and emits the
// charges that have no exact-match paid line item. Months run from
// max(enrollment month, workshop start month) through the current month; debt
// is never projected into the future.
func computePending(enrollments []models.EnrollmentDetail, paid map[string]struct{}, prices map[string]models.PriceVersion, now time.Time, period *models.Period) []models.PendingItem {
	year := now.Year()
	currentMonth := int(now.Month())

	var items []models.PendingItem
	for _, e := range enrollments {
		first, last, ok := dueMonthRange(e, year, currentMonth)
		if !ok {
			continue
		}
		for month := first; month <= last; month++ {
			if period != nil && (month != period.Month || year != period.Year) {
				continue
			}
			key := models.BillingKey(e.StudentID, e.WorkshopID, month, year)
			if _, settled := paid[key]; settled {
				continue
			}
			item := models.PendingItem{
				StudentID:      e.StudentID,
				StudentName:    e.StudentName,
				WorkshopID:     e.WorkshopID,
				WorkshopName:   e.WorkshopName,
				WorkshopTypeID: e.WorkshopTypeID,
				Month:          month,
				Year:           year,
			}
			if price, ok := prices[e.WorkshopTypeID]; ok {
				p := price
				item.ReferencePrice = &p
			}
			items = append(items, item)
		}
	}
	return items
}

// dueMonthRange returns the billable month span of an enrollment within the
// target year. Dates before the year clamp to January; dates after it mean
// nothing is due yet.
func dueMonthRange(e models.EnrollmentDetail, year, currentMonth int) (int, int, bool) {
	first := monthWithin(e.EnrolledAt, year)
	if ws := monthWithin(e.WorkshopStartDate, year); ws > first {
		first = ws
	}
	if first > currentMonth {
		return 0, 0, false
	}
	return first, currentMonth, true
}

func monthWithin(t time.Time, year int) int {
	switch {
	case t.Year() < year:
		return 1
	case t.Year() > year:
		return 13
	default:
		return int(t.Month())
	}
}

// periodContextFor derives the allocator facts for one billing period: how
// many enrollments the family holds in that period (paid ones included) and
// whether a full price was already collected for it.
func periodContextFor(enrollments []models.EnrollmentDetail, paid []models.PaidTuple, now time.Time, period models.Period) models.PeriodContext {
	year := now.Year()
	currentMonth := int(now.Month())

	var pctx models.PeriodContext
	for _, e := range enrollments {
		first, last, ok := dueMonthRange(e, year, currentMonth)
		if ok && period.Month >= first && period.Month <= last {
			pctx.TotalWorkshops++
		}
	}
	for _, t := range paid {
		if t.Month == period.Month && t.Year == period.Year && t.IsFullPrice && !t.IsException {
			pctx.HasFullPricePayment = true
			break
		}
	}
	return pctx
}
