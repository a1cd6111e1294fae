package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"salesboard/internal/amqp"
	"salesboard/internal/core"
	"salesboard/internal/sales"
)

const (
	DefaultSeedRecords = 100

	seedMinCents   = 2000
	seedMaxCents   = 80000
	seedMaxAgeDays = 60
	progressEvery  = 10
)

var ErrNegativeRecords = errors.New("records must be zero or more")

// SeedStore is what the demo data generator needs from the sale store.
type SeedStore interface {
	sales.Writer
	sales.Aggregator
}

type SeedOptions struct {
	Records int
	// Clean deletes every existing sale first.
	Clean bool
}

// SeedResult reports what a run did and the store totals afterwards.
type SeedResult struct {
	Deleted  int64
	Inserted int
	Summary  core.Summary
}

// Seeder fills the store with random demo sales.
type Seeder struct {
	store     SeedStore
	publisher EventPublisher
	out       io.Writer
	rng       *rand.Rand
	now       func() time.Time
}

// NewSeeder writes progress to out. publisher may be nil.
func NewSeeder(store SeedStore, publisher EventPublisher, out io.Writer) *Seeder {
	if out == nil {
		out = io.Discard
	}
	return &Seeder{
		store:     store,
		publisher: publisher,
		out:       out,
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:       time.Now,
	}
}

func (s *Seeder) WithRand(r *rand.Rand) *Seeder {
	s.rng = r
	return s
}

func (s *Seeder) WithClock(now func() time.Time) *Seeder {
	s.now = now
	return s
}

// Generate builds n random sales dated within the last 60 days.
func (s *Seeder) Generate(n int) []core.Sale {
	today := core.DateOf(s.now())
	batch := make([]core.Sale, n)
	for i := range batch {
		cents := seedMinCents + s.rng.Int64N(seedMaxCents-seedMinCents+1)
		batch[i] = core.Sale{
			Category:    core.Categories[s.rng.IntN(len(core.Categories))],
			Amount:      core.FromCents(cents),
			Date:        today.AddDays(-s.rng.IntN(seedMaxAgeDays + 1)),
			Description: fmt.Sprintf("Demo sale #%d", i+1),
		}
		if (i+1)%progressEvery == 0 {
			fmt.Fprintf(s.out, "  -> %d/%d sales prepared\n", i+1, n)
		}
	}
	return batch
}

// Run optionally wipes the store, then inserts opts.Records sales in a
// single bulk write and prints the resulting store totals.
func (s *Seeder) Run(ctx context.Context, opts SeedOptions) (SeedResult, error) {
	if opts.Records < 0 {
		return SeedResult{}, ErrNegativeRecords
	}

	var res SeedResult
	if opts.Clean {
		fmt.Fprintln(s.out, "Deleting existing sales...")
		n, err := s.store.DeleteAllSales(ctx)
		if err != nil {
			return res, storageErr("delete sales", err)
		}
		res.Deleted = n
		slog.WarnContext(ctx, "Existing sales deleted", "count", n)
	}

	fmt.Fprintf(s.out, "Loading %d demo sales...\n", opts.Records)
	batch := s.Generate(opts.Records)
	if len(batch) > 0 {
		if err := s.store.InsertSales(ctx, batch); err != nil {
			return res, storageErr("insert sales", err)
		}
	}
	res.Inserted = len(batch)

	sum, err := s.store.Summary(ctx)
	if err != nil {
		return res, storageErr("summary", err)
	}
	res.Summary = sum

	fmt.Fprintln(s.out, "Load completed.")
	fmt.Fprintf(s.out, "Total sales: %d records\n", sum.Count)
	fmt.Fprintf(s.out, "Total revenue: %s\n", core.FormatEuros(sum.Revenue))

	slog.InfoContext(ctx, "Demo sales seeded",
		"inserted", res.Inserted,
		"deleted", res.Deleted,
		"total_sales", sum.Count,
		"total_revenue", sum.Revenue.StringFixed(2))

	publish(ctx, s.publisher, amqp.NewSalesSeededEvent(res.Inserted, batchRevenue(batch), opts.Clean))

	return res, nil
}

func batchRevenue(batch []core.Sale) decimal.Decimal {
	total := decimal.Zero
	for _, s := range batch {
		total = total.Add(s.Amount)
	}
	return total
}
