package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"

	"salesboard/internal/core"
	"salesboard/internal/sales"
)

var _ sales.Store = (*Store)(nil)

// Store keeps sales in process memory. Used for local development and as the
// fake store in tests.
type Store struct {
	mu     sync.Mutex
	items  []core.Sale
	nextID int64
	// Err, when set, is returned by every operation.
	Err error
}

func New(seed ...core.Sale) *Store {
	s := &Store{}
	for _, sale := range seed {
		s.add(sale)
	}
	return s
}

func (s *Store) add(sale core.Sale) string {
	s.nextID++
	sale.ID = strconv.FormatInt(s.nextID, 10)
	s.items = append(s.items, sale)
	return sale.ID
}

// CreateSale stores one sale and returns its sequential identifier.
func (s *Store) CreateSale(_ context.Context, sale core.Sale) (string, error) {
	if err := sale.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	return s.add(sale), nil
}

// InsertSales appends the whole batch or nothing.
func (s *Store) InsertSales(_ context.Context, batch []core.Sale) error {
	if err := sales.ValidateBatch(batch); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, sale := range batch {
		s.add(sale)
	}
	return nil
}

func (s *Store) DeleteAllSales(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	n := int64(len(s.items))
	s.items = nil
	return n, nil
}

// CategoryTotals groups sales per category, in core.Categories order.
func (s *Store) CategoryTotals(_ context.Context) ([]core.CategoryTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	byCat := make(map[core.Category]*core.CategoryTotal)
	for _, sale := range s.items {
		ct, ok := byCat[sale.Category]
		if !ok {
			ct = &core.CategoryTotal{Category: sale.Category, Total: decimal.Zero}
			byCat[sale.Category] = ct
		}
		ct.Total = ct.Total.Add(sale.Amount)
		ct.Count++
	}

	out := make([]core.CategoryTotal, 0, len(byCat))
	for _, c := range core.Categories {
		if ct, ok := byCat[c]; ok {
			out = append(out, *ct)
		}
	}
	return out, nil
}

func (s *Store) Summary(_ context.Context) (core.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return core.Summary{}, s.Err
	}
	sum := core.Summary{Revenue: decimal.Zero}
	for _, sale := range s.items {
		sum.Count++
		sum.Revenue = sum.Revenue.Add(sale.Amount)
	}
	return sum, nil
}

func (s *Store) SalesBetween(_ context.Context, from, to core.Date) ([]core.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []core.Sale
	for _, sale := range s.items {
		if sale.Date.Between(from, to) {
			out = append(out, sale)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date.Time)
	})
	return out, nil
}

func (s *Store) RecentSales(_ context.Context, limit int) ([]core.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]core.Sale, len(s.items))
	copy(out, s.items)
	// items are in insertion order, so reversing first makes ties newest-id first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Err
}

func (s *Store) Close() error { return nil }

// Len returns the number of stored sales.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
