package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/taller-adm-api/internal/models"
)

type mockDuesStudentRepo struct {
	students map[string]*models.StudentDetail
	families map[string][]models.Student
}

func (m *mockDuesStudentRepo) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockDuesStudentRepo) ListByFamilyGroup(ctx context.Context, familyGroupID string) ([]models.Student, error) {
	return m.families[familyGroupID], nil
}

type mockDuesEnrollmentRepo struct {
	byStudent map[string][]models.EnrollmentDetail
	all       []models.EnrollmentDetail
}

func (m *mockDuesEnrollmentRepo) ListActiveForStudents(ctx context.Context, studentIDs []string, year int) ([]models.EnrollmentDetail, error) {
	var out []models.EnrollmentDetail
	for _, id := range studentIDs {
		out = append(out, m.byStudent[id]...)
	}
	return out, nil
}

func (m *mockDuesEnrollmentRepo) ListActiveForYear(ctx context.Context, year int) ([]models.EnrollmentDetail, error) {
	return m.all, nil
}

type mockDuesPaymentRepo struct {
	tuples []models.PaidTuple
}

func (m *mockDuesPaymentRepo) PaidTuplesForStudents(ctx context.Context, studentIDs []string, year int) ([]models.PaidTuple, error) {
	ids := make(map[string]struct{}, len(studentIDs))
	for _, id := range studentIDs {
		ids[id] = struct{}{}
	}
	var out []models.PaidTuple
	for _, t := range m.tuples {
		if _, ok := ids[t.StudentID]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockDuesPaymentRepo) PaidTuplesForYear(ctx context.Context, year int) ([]models.PaidTuple, error) {
	return m.tuples, nil
}

type mockDuesPriceRepo struct {
	prices map[string]models.PriceVersion
}

func (m *mockDuesPriceRepo) CurrentForTypes(ctx context.Context, workshopTypeIDs []string, at time.Time) (map[string]models.PriceVersion, error) {
	out := make(map[string]models.PriceVersion)
	for _, id := range workshopTypeIDs {
		if p, ok := m.prices[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func fixedNow() time.Time {
	return time.Date(2026, time.April, 15, 12, 0, 0, 0, time.UTC)
}

func enrollmentDetail(studentID, workshopID, typeID string, familyGroupID *string, enrolled, workshopStart time.Time) models.EnrollmentDetail {
	return models.EnrollmentDetail{
		Enrollment: models.Enrollment{
			ID:         studentID + "-" + workshopID,
			StudentID:  studentID,
			WorkshopID: workshopID,
			EnrolledAt: enrolled,
		},
		StudentName:       "Student " + studentID,
		StudentActive:     true,
		FamilyGroupID:     familyGroupID,
		WorkshopTypeID:    typeID,
		WorkshopName:      "Workshop " + workshopID,
		WorkshopYear:      2026,
		WorkshopStartDate: workshopStart,
		WorkshopState:     models.WorkshopStateActive,
	}
}

func newDuesServiceForTest(students *mockDuesStudentRepo, enrollments *mockDuesEnrollmentRepo, payments *mockDuesPaymentRepo, prices *mockDuesPriceRepo) *DuesService {
	svc := NewDuesService(students, enrollments, payments, prices, nil)
	svc.now = fixedNow
	return svc
}

func TestPendingForStudentAccumulatesMonths(t *testing.T) {
	feb := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	students := &mockDuesStudentRepo{students: map[string]*models.StudentDetail{
		"s1": {Student: models.Student{ID: "s1", FullName: "Student s1", Active: true}},
	}}
	enrollments := &mockDuesEnrollmentRepo{byStudent: map[string][]models.EnrollmentDetail{
		"s1": {enrollmentDetail("s1", "w1", "t1", nil, feb, feb)},
	}}
	payments := &mockDuesPaymentRepo{}
	prices := &mockDuesPriceRepo{prices: map[string]models.PriceVersion{
		"t1": *priceVersion("t1", 10000, 9500, 7000, 6500),
	}}

	svc := newDuesServiceForTest(students, enrollments, payments, prices)
	dues, err := svc.PendingForStudent(context.Background(), "s1", nil)

	require.NoError(t, err)
	require.Len(t, dues.Items, 3, "february through april")
	assert.Equal(t, 2, dues.Items[0].Month)
	assert.Equal(t, 4, dues.Items[2].Month)
	assert.False(t, dues.NoActiveWorkshops)
	require.NotNil(t, dues.Items[0].ReferencePrice)
	assert.True(t, dues.Items[0].ReferencePrice.FullCash.Equal(decimal.NewFromInt(10000)))
}

func TestPendingForStudentPaidMonthsDrop(t *testing.T) {
	feb := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	students := &mockDuesStudentRepo{students: map[string]*models.StudentDetail{
		"s1": {Student: models.Student{ID: "s1", Active: true}},
	}}
	enrollments := &mockDuesEnrollmentRepo{byStudent: map[string][]models.EnrollmentDetail{
		"s1": {enrollmentDetail("s1", "w1", "t1", nil, feb, feb)},
	}}
	payments := &mockDuesPaymentRepo{tuples: []models.PaidTuple{
		{StudentID: "s1", WorkshopID: "w1", Month: 2, Year: 2026},
		{StudentID: "s1", WorkshopID: "w1", Month: 3, Year: 2026},
	}}
	prices := &mockDuesPriceRepo{prices: map[string]models.PriceVersion{}}

	svc := newDuesServiceForTest(students, enrollments, payments, prices)
	dues, err := svc.PendingForStudent(context.Background(), "s1", nil)

	require.NoError(t, err)
	require.Len(t, dues.Items, 1)
	assert.Equal(t, 4, dues.Items[0].Month)
	assert.Nil(t, dues.Items[0].ReferencePrice, "type without a current price stays unpriced")
}

func TestPendingForStudentNoActiveWorkshops(t *testing.T) {
	students := &mockDuesStudentRepo{students: map[string]*models.StudentDetail{
		"s1": {Student: models.Student{ID: "s1", Active: true}},
	}}
	svc := newDuesServiceForTest(students, &mockDuesEnrollmentRepo{}, &mockDuesPaymentRepo{}, &mockDuesPriceRepo{})

	dues, err := svc.PendingForStudent(context.Background(), "s1", nil)

	require.NoError(t, err)
	assert.True(t, dues.NoActiveWorkshops)
	assert.Empty(t, dues.Items)
}

func TestPendingForStudentUnknownStudent(t *testing.T) {
	svc := newDuesServiceForTest(&mockDuesStudentRepo{}, &mockDuesEnrollmentRepo{}, &mockDuesPaymentRepo{}, &mockDuesPriceRepo{})

	_, err := svc.PendingForStudent(context.Background(), "ghost", nil)

	require.Error(t, err)
}

func TestPendingForStudentRejectsOtherYear(t *testing.T) {
	students := &mockDuesStudentRepo{students: map[string]*models.StudentDetail{
		"s1": {Student: models.Student{ID: "s1", Active: true}},
	}}
	svc := newDuesServiceForTest(students, &mockDuesEnrollmentRepo{}, &mockDuesPaymentRepo{}, &mockDuesPriceRepo{})

	_, err := svc.PendingForStudent(context.Background(), "s1", &models.Period{Month: 3, Year: 2025})

	require.Error(t, err)
}

func TestPendingForStudentExpandsFamilyGroup(t *testing.T) {
	fg := "fam-1"
	feb := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	students := &mockDuesStudentRepo{
		students: map[string]*models.StudentDetail{
			"s1": {Student: models.Student{ID: "s1", Active: true, FamilyGroupID: &fg}},
		},
		families: map[string][]models.Student{
			fg: {{ID: "s1"}, {ID: "s2"}},
		},
	}
	enrollments := &mockDuesEnrollmentRepo{byStudent: map[string][]models.EnrollmentDetail{
		"s1": {enrollmentDetail("s1", "w1", "t1", &fg, feb, feb)},
		"s2": {enrollmentDetail("s2", "w2", "t1", &fg, feb, feb)},
	}}
	prices := &mockDuesPriceRepo{prices: map[string]models.PriceVersion{
		"t1": *priceVersion("t1", 10000, 9500, 7000, 6500),
	}}

	svc := newDuesServiceForTest(students, enrollments, &mockDuesPaymentRepo{}, prices)
	dues, err := svc.PendingForStudent(context.Background(), "s1", &models.Period{Month: 4, Year: 2026})

	require.NoError(t, err)
	require.NotNil(t, dues.FamilyGroupID)
	assert.Equal(t, fg, *dues.FamilyGroupID)
	require.Len(t, dues.Items, 2, "sibling charges included")
}

func TestPendingForStudentClampsPriorYearEnrollment(t *testing.T) {
	lastYear := time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)
	students := &mockDuesStudentRepo{students: map[string]*models.StudentDetail{
		"s1": {Student: models.Student{ID: "s1", Active: true}},
	}}
	enrollments := &mockDuesEnrollmentRepo{byStudent: map[string][]models.EnrollmentDetail{
		"s1": {enrollmentDetail("s1", "w1", "t1", nil, lastYear, lastYear)},
	}}

	svc := newDuesServiceForTest(students, enrollments, &mockDuesPaymentRepo{}, &mockDuesPriceRepo{})
	dues, err := svc.PendingForStudent(context.Background(), "s1", nil)

	require.NoError(t, err)
	require.Len(t, dues.Items, 4, "january through april of the current year")
	assert.Equal(t, 1, dues.Items[0].Month)
}

func TestPendingForStudentFutureStartProducesNothing(t *testing.T) {
	june := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	students := &mockDuesStudentRepo{students: map[string]*models.StudentDetail{
		"s1": {Student: models.Student{ID: "s1", Active: true}},
	}}
	enrollments := &mockDuesEnrollmentRepo{byStudent: map[string][]models.EnrollmentDetail{
		"s1": {enrollmentDetail("s1", "w1", "t1", nil, june, june)},
	}}

	svc := newDuesServiceForTest(students, enrollments, &mockDuesPaymentRepo{}, &mockDuesPriceRepo{})
	dues, err := svc.PendingForStudent(context.Background(), "s1", nil)

	require.NoError(t, err)
	assert.Empty(t, dues.Items)
	assert.False(t, dues.NoActiveWorkshops)
}

func TestPendingForPeriodContext(t *testing.T) {
	fg := "fam-1"
	feb := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	students := &mockDuesStudentRepo{
		students: map[string]*models.StudentDetail{
			"s1": {Student: models.Student{ID: "s1", Active: true, FamilyGroupID: &fg}},
		},
		families: map[string][]models.Student{
			fg: {{ID: "s1"}, {ID: "s2"}},
		},
	}
	enrollments := &mockDuesEnrollmentRepo{byStudent: map[string][]models.EnrollmentDetail{
		"s1": {enrollmentDetail("s1", "w1", "t1", &fg, feb, feb)},
		"s2": {enrollmentDetail("s2", "w2", "t1", &fg, feb, feb)},
	}}
	payments := &mockDuesPaymentRepo{tuples: []models.PaidTuple{
		{StudentID: "s2", WorkshopID: "w2", Month: 3, Year: 2026, IsFullPrice: true},
	}}
	prices := &mockDuesPriceRepo{prices: map[string]models.PriceVersion{
		"t1": *priceVersion("t1", 10000, 9500, 7000, 6500),
	}}

	svc := newDuesServiceForTest(students, enrollments, payments, prices)
	dues, pctx, err := svc.PendingForPeriod(context.Background(), "s1", models.Period{Month: 3, Year: 2026})

	require.NoError(t, err)
	assert.Equal(t, 2, pctx.TotalWorkshops, "paid enrollments still count toward the total")
	assert.True(t, pctx.HasFullPricePayment)
	require.Len(t, dues.Items, 1, "only the unpaid sibling charge remains")
	assert.Equal(t, "s1", dues.Items[0].StudentID)
}

func TestPendingReportGroupsByFamily(t *testing.T) {
	fg := "fam-1"
	feb := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	enrollments := &mockDuesEnrollmentRepo{all: []models.EnrollmentDetail{
		enrollmentDetail("s1", "w1", "t1", &fg, feb, feb),
		enrollmentDetail("s2", "w2", "t1", &fg, feb, feb),
		enrollmentDetail("s3", "w3", "t1", nil, feb, feb),
	}}
	prices := &mockDuesPriceRepo{prices: map[string]models.PriceVersion{
		"t1": *priceVersion("t1", 10000, 9500, 7000, 6500),
	}}

	svc := newDuesServiceForTest(&mockDuesStudentRepo{}, enrollments, &mockDuesPaymentRepo{}, prices)
	report, err := svc.PendingReport(context.Background(), &models.Period{Month: 4, Year: 2026})

	require.NoError(t, err)
	require.Len(t, report, 2, "one family entry and one lone student")

	var familyEntry, loneEntry *models.PendingDues
	for i := range report {
		if report[i].FamilyGroupID != nil {
			familyEntry = &report[i]
		} else {
			loneEntry = &report[i]
		}
	}
	require.NotNil(t, familyEntry)
	require.NotNil(t, loneEntry)
	assert.Len(t, familyEntry.Items, 2)
	assert.Len(t, loneEntry.Items, 1)
}

func TestPendingReportFullyPaidGroupOmitted(t *testing.T) {
	feb := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	enrollments := &mockDuesEnrollmentRepo{all: []models.EnrollmentDetail{
		enrollmentDetail("s1", "w1", "t1", nil, feb, feb),
	}}
	payments := &mockDuesPaymentRepo{tuples: []models.PaidTuple{
		{StudentID: "s1", WorkshopID: "w1", Month: 4, Year: 2026},
	}}

	svc := newDuesServiceForTest(&mockDuesStudentRepo{}, enrollments, payments, &mockDuesPriceRepo{})
	report, err := svc.PendingReport(context.Background(), &models.Period{Month: 4, Year: 2026})

	require.NoError(t, err)
	assert.Empty(t, report)
}

func TestAllocateSelectsSubsetAndPrices(t *testing.T) {
	feb := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	fg := "fam-1"
	students := &mockDuesStudentRepo{
		students: map[string]*models.StudentDetail{
			"s1": {Student: models.Student{ID: "s1", Active: true, FamilyGroupID: &fg}},
		},
		families: map[string][]models.Student{
			fg: {{ID: "s1"}, {ID: "s2"}},
		},
	}
	enrollments := &mockDuesEnrollmentRepo{byStudent: map[string][]models.EnrollmentDetail{
		"s1": {enrollmentDetail("s1", "w1", "t1", &fg, feb, feb)},
		"s2": {enrollmentDetail("s2", "w2", "t2", &fg, feb, feb)},
	}}
	prices := &mockDuesPriceRepo{prices: map[string]models.PriceVersion{
		"t1": *priceVersion("t1", 10000, 9500, 7000, 6500),
		"t2": *priceVersion("t2", 8000, 7800, 5500, 5300),
	}}

	svc := newDuesServiceForTest(students, enrollments, &mockDuesPaymentRepo{}, prices)
	result, err := svc.Allocate(context.Background(), AllocateRequest{
		StudentID:    "s1",
		Month:        4,
		Year:         2026,
		Mode:         models.PaymentModeCash,
		SelectedKeys: []string{models.BillingKey("s2", "w2", 4, 2026)},
	})

	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, 2, result.Context.TotalWorkshops, "context still spans the whole family")
	// No full price collected for the period yet, so the first paid item
	// carries it even when the pricier sibling charge stays unselected.
	assert.True(t, result.Items[0].Amount.Equal(decimal.NewFromInt(8000)))
	assert.True(t, result.Items[0].IsFullPrice)
}

func TestAllocateRejectsUnknownSelection(t *testing.T) {
	feb := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	students := &mockDuesStudentRepo{students: map[string]*models.StudentDetail{
		"s1": {Student: models.Student{ID: "s1", Active: true}},
	}}
	enrollments := &mockDuesEnrollmentRepo{byStudent: map[string][]models.EnrollmentDetail{
		"s1": {enrollmentDetail("s1", "w1", "t1", nil, feb, feb)},
	}}

	svc := newDuesServiceForTest(students, enrollments, &mockDuesPaymentRepo{}, &mockDuesPriceRepo{})
	_, err := svc.Allocate(context.Background(), AllocateRequest{
		StudentID:    "s1",
		Month:        4,
		Year:         2026,
		Mode:         models.PaymentModeCash,
		SelectedKeys: []string{models.BillingKey("s1", "w1", 3, 2025)},
	})

	require.Error(t, err)
}
