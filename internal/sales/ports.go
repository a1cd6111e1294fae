package sales

import (
	"context"
	"fmt"

	"salesboard/internal/core"
)

// Ports implemented by every storage backend.
type (
	// Writer persists sale records. Implementations validate every record
	// and reject the whole call on the first invalid one.
	Writer interface {
		// CreateSale stores a single sale and returns its identifier.
		CreateSale(ctx context.Context, s core.Sale) (id string, err error)
		// InsertSales stores all records in one bulk, atomic operation.
		InsertSales(ctx context.Context, batch []core.Sale) error
		// DeleteAllSales removes every record and reports how many were deleted.
		DeleteAllSales(ctx context.Context) (int64, error)
	}

	// Aggregator computes grouped figures inside the store.
	Aggregator interface {
		// CategoryTotals groups all sales by category.
		CategoryTotals(ctx context.Context) ([]core.CategoryTotal, error)
		// Summary returns the record count and total revenue.
		Summary(ctx context.Context) (core.Summary, error)
	}

	// Lister returns raw sale rows.
	Lister interface {
		// SalesBetween returns sales with from <= date <= to, ascending by date.
		SalesBetween(ctx context.Context, from, to core.Date) ([]core.Sale, error)
		// RecentSales returns at most limit sales, newest date first.
		RecentSales(ctx context.Context, limit int) ([]core.Sale, error)
	}

	// Store is the full sale record store.
	Store interface {
		Writer
		Aggregator
		Lister
		Ping(ctx context.Context) error
		Close() error
	}
)

// ValidateBatch validates every sale, reporting the index of the first bad one.
func ValidateBatch(batch []core.Sale) error {
	for i, s := range batch {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("sale %d: %w", i, err)
		}
	}
	return nil
}
