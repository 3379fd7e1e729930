package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/taller-adm-api/internal/models"
)

func priceVersion(typeID string, fullCash, fullTransfer, discCash, discTransfer int64) *models.PriceVersion {
	return &models.PriceVersion{
		WorkshopTypeID:   typeID,
		FullCash:         decimal.NewFromInt(fullCash),
		FullTransfer:     decimal.NewFromInt(fullTransfer),
		DiscountCash:     decimal.NewFromInt(discCash),
		DiscountTransfer: decimal.NewFromInt(discTransfer),
	}
}

func pendingItem(studentID, workshopID, typeID string, price *models.PriceVersion) models.PendingItem {
	return models.PendingItem{
		StudentID:      studentID,
		WorkshopID:     workshopID,
		WorkshopTypeID: typeID,
		Month:          3,
		Year:           2026,
		ReferencePrice: price,
	}
}

func amountByWorkshop(items []models.PricedItem) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(items))
	for _, item := range items {
		out[item.WorkshopID] = item.Amount
	}
	return out
}

func TestAllocatePricesSingleWorkshopFullPrice(t *testing.T) {
	items := []models.PendingItem{
		pendingItem("s1", "w1", "t1", priceVersion("t1", 10000, 9500, 7000, 6500)),
	}

	priced := AllocatePrices(items, models.PeriodContext{TotalWorkshops: 1}, models.PaymentModeCash, AllocationOverrides{})

	require.Len(t, priced, 1)
	assert.True(t, priced[0].IsFullPrice)
	assert.True(t, priced[0].Priced)
	assert.True(t, priced[0].Amount.Equal(decimal.NewFromInt(10000)))
}

func TestAllocatePricesHighestCashFullPriceGetsFull(t *testing.T) {
	items := []models.PendingItem{
		pendingItem("s1", "w1", "t1", priceVersion("t1", 10000, 9500, 7000, 6500)),
		pendingItem("s1", "w2", "t2", priceVersion("t2", 8000, 7800, 5500, 5300)),
		pendingItem("s2", "w3", "t3", priceVersion("t3", 9000, 8800, 6000, 5800)),
	}

	priced := AllocatePrices(items, models.PeriodContext{TotalWorkshops: 3}, models.PaymentModeCash, AllocationOverrides{})

	require.Len(t, priced, 3)
	amounts := amountByWorkshop(priced)
	assert.True(t, amounts["w1"].Equal(decimal.NewFromInt(10000)), "highest cash full price pays full")
	assert.True(t, amounts["w2"].Equal(decimal.NewFromInt(5500)))
	assert.True(t, amounts["w3"].Equal(decimal.NewFromInt(6000)))

	fullCount := 0
	for _, item := range priced {
		if item.IsFullPrice {
			fullCount++
		}
	}
	assert.Equal(t, 1, fullCount)
}

func TestAllocatePricesExistingFullPricePaymentDiscountsEverything(t *testing.T) {
	items := []models.PendingItem{
		pendingItem("s1", "w1", "t1", priceVersion("t1", 10000, 9500, 7000, 6500)),
		pendingItem("s1", "w2", "t2", priceVersion("t2", 8000, 7800, 5500, 5300)),
	}
	pctx := models.PeriodContext{TotalWorkshops: 3, HasFullPricePayment: true}

	priced := AllocatePrices(items, pctx, models.PaymentModeCash, AllocationOverrides{})

	require.Len(t, priced, 2)
	for _, item := range priced {
		assert.False(t, item.IsFullPrice)
	}
	amounts := amountByWorkshop(priced)
	assert.True(t, amounts["w1"].Equal(decimal.NewFromInt(7000)))
	assert.True(t, amounts["w2"].Equal(decimal.NewFromInt(5500)))
}

func TestAllocatePricesTransferModeUsesTransferColumns(t *testing.T) {
	items := []models.PendingItem{
		pendingItem("s1", "w1", "t1", priceVersion("t1", 10000, 9500, 7000, 6500)),
		pendingItem("s1", "w2", "t2", priceVersion("t2", 8000, 7800, 5500, 5300)),
	}

	priced := AllocatePrices(items, models.PeriodContext{TotalWorkshops: 2}, models.PaymentModeTransfer, AllocationOverrides{})

	amounts := amountByWorkshop(priced)
	assert.True(t, amounts["w1"].Equal(decimal.NewFromInt(9500)))
	assert.True(t, amounts["w2"].Equal(decimal.NewFromInt(5300)))
}

func TestAllocatePricesPerItemModeOverride(t *testing.T) {
	items := []models.PendingItem{
		pendingItem("s1", "w1", "t1", priceVersion("t1", 10000, 9500, 7000, 6500)),
		pendingItem("s1", "w2", "t2", priceVersion("t2", 8000, 7800, 5500, 5300)),
	}
	overrides := AllocationOverrides{
		Modes: map[string]models.PaymentMode{
			items[1].Key(): models.PaymentModeTransfer,
		},
	}

	priced := AllocatePrices(items, models.PeriodContext{TotalWorkshops: 2}, models.PaymentModeCash, overrides)

	amounts := amountByWorkshop(priced)
	assert.True(t, amounts["w1"].Equal(decimal.NewFromInt(10000)))
	assert.True(t, amounts["w2"].Equal(decimal.NewFromInt(5300)), "override item uses transfer discount")
}

func TestAllocatePricesExceptionUsesManualAmount(t *testing.T) {
	items := []models.PendingItem{
		pendingItem("s1", "w1", "t1", priceVersion("t1", 10000, 9500, 7000, 6500)),
		pendingItem("s1", "w2", "t2", priceVersion("t2", 8000, 7800, 5500, 5300)),
	}
	overrides := AllocationOverrides{
		Exceptions: map[string]decimal.Decimal{
			items[0].Key(): decimal.NewFromInt(2500),
		},
	}

	priced := AllocatePrices(items, models.PeriodContext{TotalWorkshops: 2}, models.PaymentModeCash, overrides)

	amounts := amountByWorkshop(priced)
	assert.True(t, amounts["w1"].Equal(decimal.NewFromInt(2500)))
	// The exception is out of the full-price race, so the other item wins it.
	assert.True(t, amounts["w2"].Equal(decimal.NewFromInt(8000)))

	for _, item := range priced {
		if item.WorkshopID == "w1" {
			assert.True(t, item.IsException)
			assert.False(t, item.IsFullPrice)
		}
	}
}

func TestAllocatePricesTieBreaksOnBillingKey(t *testing.T) {
	a := pendingItem("s1", "wa", "t1", priceVersion("t1", 9000, 8800, 6000, 5800))
	b := pendingItem("s1", "wb", "t2", priceVersion("t2", 9000, 8800, 6000, 5800))

	priced := AllocatePrices([]models.PendingItem{b, a}, models.PeriodContext{TotalWorkshops: 2}, models.PaymentModeCash, AllocationOverrides{})

	for _, item := range priced {
		if item.WorkshopID == "wa" {
			assert.True(t, item.IsFullPrice, "lexically smaller key wins the tie")
		} else {
			assert.False(t, item.IsFullPrice)
		}
	}
}

func TestAllocatePricesMissingReferencePriceStaysUnpriced(t *testing.T) {
	items := []models.PendingItem{
		pendingItem("s1", "w1", "t1", nil),
		pendingItem("s1", "w2", "t2", priceVersion("t2", 8000, 7800, 5500, 5300)),
	}

	priced := AllocatePrices(items, models.PeriodContext{TotalWorkshops: 2}, models.PaymentModeCash, AllocationOverrides{})

	require.Len(t, priced, 2)
	for _, item := range priced {
		switch item.WorkshopID {
		case "w1":
			assert.False(t, item.Priced)
			assert.False(t, item.IsFullPrice)
			assert.True(t, item.Amount.IsZero())
		case "w2":
			assert.True(t, item.Priced)
			assert.True(t, item.IsFullPrice, "the only priceable item takes the full-price slot")
			assert.True(t, item.Amount.Equal(decimal.NewFromInt(8000)))
		}
	}
}

func TestAllocatePricesInvalidModeFallsBackToCash(t *testing.T) {
	items := []models.PendingItem{
		pendingItem("s1", "w1", "t1", priceVersion("t1", 10000, 9500, 7000, 6500)),
	}

	priced := AllocatePrices(items, models.PeriodContext{TotalWorkshops: 1}, models.PaymentMode("CHECK"), AllocationOverrides{})

	require.Len(t, priced, 1)
	assert.True(t, priced[0].Amount.Equal(decimal.NewFromInt(10000)))
	assert.Equal(t, models.PaymentModeCash, priced[0].Mode)
}

func TestAllocatePricesDeterministic(t *testing.T) {
	items := []models.PendingItem{
		pendingItem("s1", "w1", "t1", priceVersion("t1", 10000, 9500, 7000, 6500)),
		pendingItem("s2", "w2", "t2", priceVersion("t2", 8000, 7800, 5500, 5300)),
		pendingItem("s2", "w3", "t3", priceVersion("t3", 9000, 8800, 6000, 5800)),
	}
	pctx := models.PeriodContext{TotalWorkshops: 3}

	first := AllocatePrices(items, pctx, models.PaymentModeCash, AllocationOverrides{})
	second := AllocatePrices(items, pctx, models.PaymentModeCash, AllocationOverrides{})

	assert.Equal(t, first, second)
}
