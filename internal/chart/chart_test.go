package chart

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesboard/internal/core"
)

func total(c core.Category, amount string) core.CategoryTotal {
	return core.CategoryTotal{Category: c, Total: decimal.RequireFromString(amount)}
}

func TestCategoryChart(t *testing.T) {
	got := CategoryChart([]core.CategoryTotal{
		total(core.Electronics, "150.00"),
		total(core.Food, "10.00"),
	})

	assert.Equal(t, []string{"ELEC", "FOOD"}, got.Labels)
	require.Len(t, got.Datasets, 1)
	ds := got.Datasets[0]
	assert.Equal(t, CategoryDatasetLabel, ds.Label)
	assert.Equal(t, []float64{150, 10}, ds.Data)
	assert.Equal(t, Palette[:2], ds.BackgroundColor)
	assert.Empty(t, ds.BorderColor)
	assert.Nil(t, ds.Tension)
}

func TestCategoryChart_PaletteCycles(t *testing.T) {
	totals := make([]core.CategoryTotal, 6)
	for i := range totals {
		totals[i] = total(core.Category("C"+string(rune('A'+i))), "1")
	}

	got := CategoryChart(totals)
	colors := got.Datasets[0].BackgroundColor
	require.Len(t, colors, 6)
	assert.Equal(t, Palette[0], colors[4])
	assert.Equal(t, Palette[1], colors[5])
}

func TestCategoryChart_KeepsInputOrder(t *testing.T) {
	got := CategoryChart([]core.CategoryTotal{
		total(core.Food, "1"),
		total(core.Books, "3"),
		total(core.Electronics, "2"),
	})
	assert.Equal(t, []string{"FOOD", "BOOK", "ELEC"}, got.Labels)
	assert.Equal(t, []float64{1, 3, 2}, got.Datasets[0].Data)
}

func TestTrendChart(t *testing.T) {
	d := core.NewDate(2025, 6, 30)
	got := TrendChart([]core.DailyTotal{
		{Date: d.AddDays(-1), Total: decimal.RequireFromString("50.00")},
		{Date: d, Total: decimal.RequireFromString("100.25")},
	})

	assert.Equal(t, []string{"2025-06-29", "2025-06-30"}, got.Labels)
	require.Len(t, got.Datasets, 1)
	ds := got.Datasets[0]
	assert.Equal(t, TrendDatasetLabel, ds.Label)
	assert.Equal(t, []float64{50, 100.25}, ds.Data)
	assert.Equal(t, TrendBorderColor, ds.BorderColor)
	require.NotNil(t, ds.Tension)
	assert.Equal(t, 0.1, *ds.Tension)
	assert.Nil(t, ds.BackgroundColor)
}

func TestEmptyInputEncodesEmptyArrays(t *testing.T) {
	for name, data := range map[string]Data{
		"category": CategoryChart(nil),
		"trend":    TrendChart(nil),
	} {
		t.Run(name, func(t *testing.T) {
			raw, err := json.Marshal(data)
			require.NoError(t, err)

			var decoded map[string]any
			require.NoError(t, json.Unmarshal(raw, &decoded))
			assert.Equal(t, []any{}, decoded["labels"])

			datasets := decoded["datasets"].([]any)
			require.Len(t, datasets, 1)
			assert.Equal(t, []any{}, datasets[0].(map[string]any)["data"])
		})
	}
}

func TestTrendChart_WireShape(t *testing.T) {
	raw, err := json.Marshal(TrendChart([]core.DailyTotal{{Date: core.NewDate(2025, 1, 2), Total: decimal.NewFromInt(5)}}))
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"labels":["2025-01-02"],"datasets":[{"label":"Daily sales trend","data":[5],"borderColor":"rgb(75, 192, 192)","tension":0.1}]}`,
		string(raw))
}
