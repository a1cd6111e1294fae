package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"salesboard/internal/chart"
	"salesboard/internal/core"
)

// route is a pure request-to-page function. It never touches the
// ResponseWriter; the renderer does that.
type route func(r *http.Request) (page, error)

type dashboardData struct {
	TotalSales   int64
	TotalRevenue string
}

type trendRow struct {
	Date          string
	Category      core.Category
	CategoryLabel string
	Amount        string
	Description   string
}

type trendData struct {
	From  string
	To    string
	Sales []trendRow
	Total string
}

type summaryJSON struct {
	TotalSales          int64  `json:"total_sales"`
	TotalRevenue        string `json:"total_revenue"`
	TotalRevenueDisplay string `json:"total_revenue_display"`
}

type saleJSON struct {
	ID            string `json:"id"`
	Category      string `json:"category"`
	CategoryLabel string `json:"category_label"`
	Amount        string `json:"amount"`
	Date          string `json:"date"`
	Description   string `json:"description"`
}

func toSaleJSON(s core.Sale) saleJSON {
	return saleJSON{
		ID:            s.ID,
		Category:      string(s.Category),
		CategoryLabel: s.Category.Label(),
		Amount:        s.Amount.StringFixed(2),
		Date:          s.Date.String(),
		Description:   s.Description,
	}
}

func (s *Server) dashboardPage(r *http.Request) (page, error) {
	sum, err := s.analytics.Summary(r.Context())
	if err != nil {
		return page{}, err
	}
	return view("dashboard_page", dashboardData{
		TotalSales:   sum.Count,
		TotalRevenue: core.FormatEuros(sum.Revenue),
	}), nil
}

func (s *Server) categoryJSON(r *http.Request) (page, error) {
	totals, err := s.analytics.CategoryTotals(r.Context())
	if err != nil {
		return page{}, err
	}
	return ok(chart.CategoryChart(totals)), nil
}

func (s *Server) trendPage(r *http.Request) (page, error) {
	window, err := s.analytics.TrailingWindow(r.Context())
	if err != nil {
		return page{}, err
	}

	rows := make([]trendRow, 0, len(window.Sales))
	total := decimal.Zero
	for _, sale := range window.Sales {
		rows = append(rows, trendRow{
			Date:          sale.Date.String(),
			Category:      sale.Category,
			CategoryLabel: sale.Category.Label(),
			Amount:        core.FormatEuros(sale.Amount),
			Description:   sale.Description,
		})
		total = total.Add(sale.Amount)
	}

	return view("trend_page", trendData{
		From:  window.From.String(),
		To:    window.To.String(),
		Sales: rows,
		Total: core.FormatEuros(total),
	}), nil
}

func (s *Server) trendJSON(r *http.Request) (page, error) {
	window, err := s.analytics.TrailingWindow(r.Context())
	if err != nil {
		return page{}, err
	}
	return ok(chart.TrendChart(window.Days)), nil
}

func (s *Server) summaryJSON(r *http.Request) (page, error) {
	sum, err := s.analytics.Summary(r.Context())
	if err != nil {
		return page{}, err
	}
	return ok(summaryJSON{
		TotalSales:          sum.Count,
		TotalRevenue:        sum.Revenue.StringFixed(2),
		TotalRevenueDisplay: core.FormatEuros(sum.Revenue),
	}), nil
}

func (s *Server) listSales(r *http.Request) (page, error) {
	recent, err := s.analytics.RecentSales(r.Context(), parseLimit(r))
	if err != nil {
		return page{}, err
	}
	out := make([]saleJSON, 0, len(recent))
	for _, sale := range recent {
		out = append(out, toSaleJSON(sale))
	}
	return ok(out), nil
}

func (s *Server) createSale(r *http.Request) (page, error) {
	sale, err := decodeSale(r)
	if err != nil {
		return page{}, err
	}
	stored, err := s.sales.Record(r.Context(), sale)
	if err != nil {
		return page{}, err
	}
	return page{status: http.StatusCreated, data: toSaleJSON(stored)}, nil
}
