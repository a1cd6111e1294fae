package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"salesboard/internal/core"
	"salesboard/internal/sales"
)

// ErrStorageUnavailable wraps every failure coming from the sale store.
var ErrStorageUnavailable = errors.New("storage unavailable")

const (
	// TrendWindowDays is how far back the trend goes from today. Both ends
	// of the window are inclusive.
	TrendWindowDays = 30

	DefaultRecentLimit = 20
	MaxRecentLimit     = 500
)

// AnalyticsStore is the read side of the sale store.
type AnalyticsStore interface {
	sales.Aggregator
	sales.Lister
}

// AnalyticsService produces the read-only views behind the dashboard.
type AnalyticsService struct {
	store AnalyticsStore
	now   func() time.Time
}

func NewAnalyticsService(store AnalyticsStore) *AnalyticsService {
	return &AnalyticsService{store: store, now: time.Now}
}

// WithClock replaces the clock used to derive today.
func (s *AnalyticsService) WithClock(now func() time.Time) *AnalyticsService {
	s.now = now
	return s
}

// Today is the UTC calendar date of the service clock.
func (s *AnalyticsService) Today() core.Date {
	return core.DateOf(s.now())
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, op, err)
}

// CategoryTotals returns sum and count per category, in store order.
func (s *AnalyticsService) CategoryTotals(ctx context.Context) ([]core.CategoryTotal, error) {
	totals, err := s.store.CategoryTotals(ctx)
	if err != nil {
		return nil, storageErr("category totals", err)
	}
	if totals == nil {
		totals = []core.CategoryTotal{}
	}
	return totals, nil
}

// TrailingWindow loads the sales in [today-30d, today] and their per-day
// totals. Days without sales are absent.
func (s *AnalyticsService) TrailingWindow(ctx context.Context) (core.TrendWindow, error) {
	today := s.Today()
	from := today.AddDays(-TrendWindowDays)

	rows, err := s.store.SalesBetween(ctx, from, today)
	if err != nil {
		return core.TrendWindow{}, storageErr("sales in window", err)
	}
	if rows == nil {
		rows = []core.Sale{}
	}

	return core.TrendWindow{
		From:  from,
		To:    today,
		Sales: rows,
		Days:  RollupDaily(rows),
	}, nil
}

// RollupDaily sums amounts per date, ascending by date.
func RollupDaily(rows []core.Sale) []core.DailyTotal {
	days := make([]core.DailyTotal, 0)
	index := make(map[string]int)
	for _, r := range rows {
		key := r.Date.String()
		if i, ok := index[key]; ok {
			days[i].Total = days[i].Total.Add(r.Amount)
			continue
		}
		index[key] = len(days)
		days = append(days, core.DailyTotal{Date: r.Date, Total: r.Amount})
	}

	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date.Time)
	})
	return days
}

func (s *AnalyticsService) Summary(ctx context.Context) (core.Summary, error) {
	sum, err := s.store.Summary(ctx)
	if err != nil {
		return core.Summary{}, storageErr("summary", err)
	}
	return sum, nil
}

// RecentSales lists the newest sales. limit is clamped to
// [1, MaxRecentLimit]; zero or negative means DefaultRecentLimit.
func (s *AnalyticsService) RecentSales(ctx context.Context, limit int) ([]core.Sale, error) {
	switch {
	case limit <= 0:
		limit = DefaultRecentLimit
	case limit > MaxRecentLimit:
		limit = MaxRecentLimit
	}

	rows, err := s.store.RecentSales(ctx, limit)
	if err != nil {
		return nil, storageErr("recent sales", err)
	}
	if rows == nil {
		rows = []core.Sale{}
	}
	return rows, nil
}
