//go:build integration

package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesboard/internal/core"
)

// Run with: POSTGRES_TEST_DSN=... go test -tags=integration ./internal/storage/postgres

func TestIntegration_PostgresRepository(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set, skipping integration test")
	}

	ctx := context.Background()
	repo, err := Open(dsn)
	require.NoError(t, err)
	defer repo.Close()

	_, err = repo.DeleteAllSales(ctx)
	require.NoError(t, err)

	today := core.NewDate(2025, 6, 30)
	require.NoError(t, repo.InsertSales(ctx, []core.Sale{
		{Category: core.Electronics, Amount: decimal.RequireFromString("100.00"), Date: today},
		{Category: core.Electronics, Amount: decimal.RequireFromString("50.00"), Date: today.AddDays(-1)},
		{Category: core.Food, Amount: decimal.RequireFromString("10.00"), Date: today.AddDays(-40)},
	}))

	totals, err := repo.CategoryTotals(ctx)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, "150.00", totals[0].Total.StringFixed(2))

	window, err := repo.SalesBetween(ctx, today.AddDays(-30), today)
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Equal(t, today.AddDays(-1), window[0].Date)

	sum, err := repo.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), sum.Count)
	assert.Equal(t, "160.00", sum.Revenue.StringFixed(2))
}
