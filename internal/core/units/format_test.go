package units

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptr(f float64) *float64 { return &f }

func TestFormatQuantityUnit(t *testing.T) {
	tests := []struct {
		name string
		qty  *float64
		unit string
		pref Preference
		want string
	}{
		{"tbsp to ml", ptr(2), "tbsp", Metric, "30 ml"},
		{"grams to ounces", ptr(500), "g", US, "17.64 oz"},
		{"tsp to ml keeps one decimal", ptr(1), "tsp", Metric, "4.9 ml"},
		{"cup to ml", ptr(1), "cup", Metric, "237 ml"},
		{"plural and case", ptr(2), " Cups ", Metric, "473 ml"},
		{"ml to tsp", ptr(10), "ml", US, "2.03 tsp"},
		{"liter to cups", ptr(1), "l", US, "4.23 cup"},
		{"kg to lb", ptr(1), "kg", US, "2.2 lb"},
		{"oz to g", ptr(3), "oz", Metric, "85 g"},
		{"lb to kg", ptr(1), "lb", Metric, "0.45 kg"},
		{"lbs plural", ptr(2), "lbs", Metric, "0.91 kg"},
		{"metric on metric is identity", ptr(250), "g", Metric, "250 g"},
		{"us on us is identity", ptr(1.5), "tbsp", US, "1.5 tbsp"},
		{"spelled out unit", ptr(2), "tablespoons", Metric, "30 ml"},
		{"spelled out weight", ptr(1), "Pound", Metric, "0.45 kg"},
		{"unknown unit passes through", ptr(1), "pinch", US, "1 pinch"},
		{"unknown unit keeps case", ptr(3), " Cloves", Metric, "3 Cloves"},
		{"pcs is not a unit", ptr(1), "pcs", Metric, "1 pcs"},
		{"quantity only", ptr(0.25), "", Metric, "0.25"},
		{"unit only", nil, "  to taste ", Metric, "to taste"},
		{"nothing", nil, "  ", US, ""},
		{"zero quantity", ptr(0), "g", Metric, "0 g"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatQuantityUnit(tt.qty, tt.unit, tt.pref))
		})
	}
}

func TestRoundN(t *testing.T) {
	assert.Equal(t, 3.0, RoundN(2.5, 0))
	assert.Equal(t, 30.0, RoundN(29.5736, 0))
	assert.Equal(t, 17.64, RoundN(500/28.3495, 2))
	assert.Equal(t, 1.0, RoundN(1.005, 2)) // 1.005 is stored as 1.00499999...
	assert.Equal(t, -3.0, RoundN(-2.5, 0))
	assert.Equal(t, 4.9, RoundN(4.92892, 1))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.23, Round2(1.234))
	assert.Equal(t, 1.24, Round2(1.236))
	assert.Equal(t, 2.0, Round2(2))
}

func TestClampScale(t *testing.T) {
	assert.Equal(t, 0.25, ClampScale(0.1))
	assert.Equal(t, 4.0, ClampScale(10))
	assert.Equal(t, 1.33, ClampScale(1.333))
	assert.Equal(t, 2.0, ClampScale(2))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "—", FormatDate(0))

	ts := time.Date(2024, 3, 9, 12, 0, 0, 0, time.Local).UnixMilli()
	assert.Equal(t, "2024-03-09", FormatDate(ts))
}

func TestParsePreference(t *testing.T) {
	assert.Equal(t, US, ParsePreference("US"))
	assert.Equal(t, Metric, ParsePreference("metric"))
	assert.Equal(t, Metric, ParsePreference(""))
}
