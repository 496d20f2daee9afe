// Package units formats ingredient quantities for display under a metric or US
// preference.
package units

import (
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// Preference 顯示單位偏好
type Preference string

const (
	Metric Preference = "metric"
	US     Preference = "us"
)

// ParsePreference 解析偏好字串，未知值回傳 metric
func ParsePreference(s string) Preference {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "us", "imperial":
		return US
	default:
		return Metric
	}
}

type conversion struct {
	metric   string
	us       string
	toMetric func(float64) float64
	toUS     func(float64) float64
}

func identity(n float64) float64 { return n }

var conversions = map[string]conversion{
	// volume
	"tsp": {
		metric:   "ml",
		us:       "tsp",
		toMetric: func(n float64) float64 { return RoundN(n*4.92892, 1) },
		toUS:     identity,
	},
	"tbsp": {
		metric:   "ml",
		us:       "tbsp",
		toMetric: func(n float64) float64 { return RoundN(n*14.7868, 0) },
		toUS:     identity,
	},
	"cup": {
		metric:   "ml",
		us:       "cup",
		toMetric: func(n float64) float64 { return RoundN(n*236.588, 0) },
		toUS:     identity,
	},
	"ml": {
		metric:   "ml",
		us:       "tsp",
		toMetric: identity,
		toUS:     func(n float64) float64 { return RoundN(n/4.92892, 2) },
	},
	"l": {
		metric:   "l",
		us:       "cup",
		toMetric: identity,
		toUS:     func(n float64) float64 { return RoundN(n*4.22675, 2) },
	},
	// weight
	"g": {
		metric:   "g",
		us:       "oz",
		toMetric: identity,
		toUS:     func(n float64) float64 { return RoundN(n/28.3495, 2) },
	},
	"kg": {
		metric:   "kg",
		us:       "lb",
		toMetric: identity,
		toUS:     func(n float64) float64 { return RoundN(n*2.20462, 2) },
	},
	"oz": {
		metric:   "g",
		us:       "oz",
		toMetric: func(n float64) float64 { return RoundN(n*28.3495, 0) },
		toUS:     identity,
	},
	"lb": {
		metric:   "kg",
		us:       "lb",
		toMetric: func(n float64) float64 { return RoundN(n/2.20462, 2) },
		toUS:     identity,
	},
}

// aliases maps spelled-out unit names (after plural stripping) to table keys.
var aliases = map[string]string{
	"teaspoon":   "tsp",
	"tablespoon": "tbsp",
	"milliliter": "ml",
	"millilitre": "ml",
	"liter":      "l",
	"litre":      "l",
	"gram":       "g",
	"kilogram":   "kg",
	"ounce":      "oz",
	"pound":      "lb",
}

func lookup(unit string) (conversion, bool) {
	key := strings.ToLower(unit)
	key = strings.TrimSuffix(key, "s")
	if alias, ok := aliases[key]; ok {
		key = alias
	}
	conv, ok := conversions[key]
	return conv, ok
}

// FormatQuantityUnit 依偏好轉換並格式化數量與單位，qty 為 nil 代表沒有數量
func FormatQuantityUnit(qty *float64, unit string, pref Preference) string {
	unitTrimmed := strings.TrimSpace(unit)
	if qty == nil && unitTrimmed == "" {
		return ""
	}
	if qty == nil {
		return unitTrimmed
	}
	if unitTrimmed == "" {
		return FormatNumber(*qty)
	}

	conv, ok := lookup(unitTrimmed)
	if !ok {
		return FormatNumber(*qty) + " " + unitTrimmed
	}
	if pref == US {
		return FormatNumber(conv.toUS(*qty)) + " " + conv.us
	}
	return FormatNumber(conv.toMetric(*qty)) + " " + conv.metric
}

// FormatNumber 以最短的十進位表示輸出數字
func FormatNumber(n float64) string {
	if n == 0 {
		return "0"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// Round2 四捨五入到小數點後兩位
func Round2(n float64) float64 {
	return math.Floor(n*100+0.5) / 100
}

// RoundN 依十進位表示四捨五入到 places 位，剛好一半時遠離零（同 toFixed）
func RoundN(n float64, places int) float64 {
	if math.IsNaN(n) || math.IsInf(n, 0) || places < 0 {
		return n
	}
	pow := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(places)), nil)

	x := new(big.Rat).SetFloat64(math.Abs(n))
	x.Mul(x, new(big.Rat).SetInt(pow))
	x.Add(x, big.NewRat(1, 2))
	q := new(big.Int).Quo(x.Num(), x.Denom())

	f, _ := new(big.Rat).SetFrac(q, pow).Float64()
	if n < 0 {
		return -f
	}
	return f
}

// ClampScale 將縮放倍率限制在 0.25 到 4 之間，保留兩位小數
func ClampScale(n float64) float64 {
	if math.IsNaN(n) {
		return 1
	}
	v := math.Max(0.25, math.Min(4, n))
	return Round2(v)
}

// FormatDate 將毫秒時間戳格式化為日期，0 代表沒有日期
func FormatDate(ms int64) string {
	if ms == 0 {
		return "—"
	}
	return time.UnixMilli(ms).Local().Format("2006-01-02")
}
