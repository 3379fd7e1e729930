package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/taller-adm-api/internal/models"
)

func newPaymentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func testPayment() (*models.Payment, []models.PaymentLineItem) {
	payment := &models.Payment{
		StudentID:    "s1",
		Month:        4,
		Year:         2026,
		Mode:         models.PaymentModeCash,
		Total:        decimal.NewFromInt(15500),
		RegisteredBy: "actor-1",
	}
	items := []models.PaymentLineItem{
		{StudentID: "s1", WorkshopID: "w1", Month: 4, Year: 2026, Amount: decimal.NewFromInt(10000), Mode: models.PaymentModeCash, IsFullPrice: true},
		{StudentID: "s1", WorkshopID: "w2", Month: 4, Year: 2026, Amount: decimal.NewFromInt(5500), Mode: models.PaymentModeCash},
	}
	return payment, items
}

func TestPaymentRepositoryCreateWithItemsCommits(t *testing.T) {
	db, mock, cleanup := newPaymentRepoMock(t)
	defer cleanup()

	repo := NewPaymentRepository(db)
	payment, items := testPayment()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payments")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payment_line_items")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payment_line_items")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateWithItems(context.Background(), payment, items))
	require.NotEmpty(t, payment.ID)
	require.Equal(t, payment.ID, items[0].PaymentID)
	require.Equal(t, payment.ID, items[1].PaymentID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositoryCreateWithItemsRollsBackOnItemFailure(t *testing.T) {
	db, mock, cleanup := newPaymentRepoMock(t)
	defer cleanup()

	repo := NewPaymentRepository(db)
	payment, items := testPayment()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payments")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payment_line_items")).
		WillReturnError(errors.New("unique_violation"))
	mock.ExpectRollback()

	err := repo.CreateWithItems(context.Background(), payment, items)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositoryCreateWithItemsRejectsEmpty(t *testing.T) {
	db, _, cleanup := newPaymentRepoMock(t)
	defer cleanup()

	repo := NewPaymentRepository(db)
	payment, _ := testPayment()

	require.Error(t, repo.CreateWithItems(context.Background(), payment, nil))
}

func TestPaymentRepositoryPaidTuplesForStudents(t *testing.T) {
	db, mock, cleanup := newPaymentRepoMock(t)
	defer cleanup()

	repo := NewPaymentRepository(db)
	rows := sqlmock.NewRows([]string{"student_id", "workshop_id", "month", "year", "is_full_price", "is_exception"}).
		AddRow("s1", "w1", 3, 2026, true, false).
		AddRow("s1", "w2", 3, 2026, false, false)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT student_id, workshop_id, month, year, is_full_price, is_exception")).
		WithArgs("s1", "s2", 2026).
		WillReturnRows(rows)

	tuples, err := repo.PaidTuplesForStudents(context.Background(), []string{"s1", "s2"}, 2026)
	require.NoError(t, err)
	require.Len(t, tuples, 2)
	require.True(t, tuples[0].IsFullPrice)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositoryPaidTuplesForStudentsEmptyInput(t *testing.T) {
	db, _, cleanup := newPaymentRepoMock(t)
	defer cleanup()

	repo := NewPaymentRepository(db)
	tuples, err := repo.PaidTuplesForStudents(context.Background(), nil, 2026)
	require.NoError(t, err)
	require.Empty(t, tuples)
}

func TestPaymentRepositoryFindDetailByID(t *testing.T) {
	db, mock, cleanup := newPaymentRepoMock(t)
	defer cleanup()

	repo := NewPaymentRepository(db)
	header := sqlmock.NewRows([]string{"id", "student_id", "family_group_id", "month", "year", "mode", "total", "observation", "registered_by", "created_at"}).
		AddRow("pay-1", "s1", nil, 4, 2026, "CASH", "15500", "", "actor-1", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, family_group_id, month, year, mode, total, observation, registered_by, created_at")).
		WithArgs("pay-1").
		WillReturnRows(header)
	items := sqlmock.NewRows([]string{"id", "payment_id", "student_id", "workshop_id", "month", "year", "amount", "mode", "is_exception", "is_full_price"}).
		AddRow("li-1", "pay-1", "s1", "w1", 4, 2026, "10000", "CASH", false, true).
		AddRow("li-2", "pay-1", "s1", "w2", 4, 2026, "5500", "CASH", false, false)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, payment_id, student_id, workshop_id")).
		WithArgs("pay-1").
		WillReturnRows(items)

	detail, err := repo.FindDetailByID(context.Background(), "pay-1")
	require.NoError(t, err)
	require.Equal(t, "pay-1", detail.ID)
	require.Len(t, detail.Items, 2)
	require.True(t, detail.Items[0].Amount.Equal(decimal.NewFromInt(10000)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newPaymentRepoMock(t)
	defer cleanup()

	repo := NewPaymentRepository(db)
	rows := sqlmock.NewRows([]string{"id", "student_id", "family_group_id", "month", "year", "mode", "total", "observation", "registered_by", "created_at"}).
		AddRow("pay-1", "s1", nil, 4, 2026, "CASH", "15500", "", "actor-1", time.Now())
	mock.ExpectQuery("SELECT p.id, p.student_id").
		WithArgs("s1", 2026).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("s1", 2026).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	payments, total, err := repo.List(context.Background(), models.PaymentFilter{StudentID: "s1", Year: 2026})
	require.NoError(t, err)
	require.Len(t, payments, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
