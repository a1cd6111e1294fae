// Package chart converts aggregation results into the series format consumed
// by the dashboard's Chart.js widgets:
//
//	{"labels": [...], "datasets": [{"label": ..., "data": [...], ...}]}
//
// Input order is preserved; nothing here sorts or aggregates.
package chart

import "salesboard/internal/core"

const (
	CategoryDatasetLabel = "Sales by category (€)"
	TrendDatasetLabel    = "Daily sales trend"
	TrendBorderColor     = "rgb(75, 192, 192)"
	TrendTension         = 0.1
)

// Palette holds the category bar colours, reused cyclically.
var Palette = []string{
	"rgba(255, 99, 132, 0.8)",
	"rgba(54, 162, 235, 0.8)",
	"rgba(255, 206, 86, 0.8)",
	"rgba(75, 192, 192, 0.8)",
}

type Data struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

type Dataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BackgroundColor []string  `json:"backgroundColor,omitempty"`
	BorderColor     string    `json:"borderColor,omitempty"`
	Tension         *float64  `json:"tension,omitempty"`
}

// CategoryChart builds a bar series with one label per category code.
func CategoryChart(totals []core.CategoryTotal) Data {
	labels := make([]string, len(totals))
	data := make([]float64, len(totals))
	colors := make([]string, len(totals))
	for i, t := range totals {
		labels[i] = string(t.Category)
		data[i] = t.Total.InexactFloat64()
		colors[i] = Palette[i%len(Palette)]
	}

	return Data{
		Labels: labels,
		Datasets: []Dataset{{
			Label:           CategoryDatasetLabel,
			Data:            data,
			BackgroundColor: colors,
		}},
	}
}

// TrendChart builds a line series with one ISO date label per day.
func TrendChart(days []core.DailyTotal) Data {
	labels := make([]string, len(days))
	data := make([]float64, len(days))
	for i, d := range days {
		labels[i] = d.Date.String()
		data[i] = d.Total.InexactFloat64()
	}

	tension := TrendTension
	return Data{
		Labels: labels,
		Datasets: []Dataset{{
			Label:       TrendDatasetLabel,
			Data:        data,
			BorderColor: TrendBorderColor,
			Tension:     &tension,
		}},
	}
}
