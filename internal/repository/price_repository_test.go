package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/taller-adm-api/internal/models"
)

func newPriceRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func testPriceVersion() *models.PriceVersion {
	return &models.PriceVersion{
		WorkshopTypeID:   "t1",
		EffectiveFrom:    time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC),
		FullCash:         decimal.NewFromInt(11000),
		FullTransfer:     decimal.NewFromInt(10500),
		DiscountCash:     decimal.NewFromInt(7700),
		DiscountTransfer: decimal.NewFromInt(7200),
	}
}

func priceRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "workshop_type_id", "effective_from", "full_cash", "full_transfer", "discount_cash", "discount_transfer", "active", "created_at"})
}

func TestPriceRepositoryCurrentForType(t *testing.T) {
	db, mock, cleanup := newPriceRepoMock(t)
	defer cleanup()

	repo := NewPriceRepository(db)
	at := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	rows := priceRows().
		AddRow("pv-2", "t1", time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), "10000", "9500", "7000", "6500", true, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY effective_from DESC LIMIT 1")).
		WithArgs("t1", at).
		WillReturnRows(rows)

	price, err := repo.CurrentForType(context.Background(), "t1", at)
	require.NoError(t, err)
	require.Equal(t, "pv-2", price.ID)
	require.Equal(t, "10000", price.FullCash.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPriceRepositoryCurrentForTypeNoVersion(t *testing.T) {
	db, mock, cleanup := newPriceRepoMock(t)
	defer cleanup()

	repo := NewPriceRepository(db)
	at := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY effective_from DESC LIMIT 1")).
		WithArgs("t1", at).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.CurrentForType(context.Background(), "t1", at)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPriceRepositoryCurrentForTypes(t *testing.T) {
	db, mock, cleanup := newPriceRepoMock(t)
	defer cleanup()

	repo := NewPriceRepository(db)
	at := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	rows := priceRows().
		AddRow("pv-1", "t1", time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), "10000", "9500", "7000", "6500", true, time.Now()).
		AddRow("pv-2", "t2", time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), "8000", "7800", "5500", "5300", true, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT ON (workshop_type_id)")).
		WithArgs("t1", "t2", at).
		WillReturnRows(rows)

	prices, err := repo.CurrentForTypes(context.Background(), []string{"t1", "t2"}, at)
	require.NoError(t, err)
	require.Len(t, prices, 2)
	require.Equal(t, "pv-1", prices["t1"].ID)
	require.Equal(t, "pv-2", prices["t2"].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPriceRepositoryCurrentForTypesEmptyInput(t *testing.T) {
	db, _, cleanup := newPriceRepoMock(t)
	defer cleanup()

	repo := NewPriceRepository(db)
	prices, err := repo.CurrentForTypes(context.Background(), nil, time.Now())
	require.NoError(t, err)
	require.Empty(t, prices)
}

func TestPriceRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newPriceRepoMock(t)
	defer cleanup()

	repo := NewPriceRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO price_versions")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	price := testPriceVersion()
	require.NoError(t, repo.Create(context.Background(), price))
	require.NotEmpty(t, price.ID)
	require.True(t, price.Active)
	require.NoError(t, mock.ExpectationsWereMet())
}
