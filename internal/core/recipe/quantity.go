package recipe

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// unicodeFractions 分數字元對應的小數值
var unicodeFractions = map[rune]float64{
	'¼': 0.25, '½': 0.5, '¾': 0.75,
	'⅐': 1.0 / 7, '⅑': 1.0 / 9, '⅒': 0.1,
	'⅓': 1.0 / 3, '⅔': 2.0 / 3, '⅕': 0.2, '⅖': 0.4, '⅗': 0.6, '⅘': 0.8,
	'⅙': 1.0 / 6, '⅚': 5.0 / 6, '⅛': 0.125, '⅜': 0.375, '⅝': 0.625, '⅞': 0.875,
}

var (
	mixedPattern        = regexp.MustCompile(`^(\d+)\s+(\d+)/(\d+)$`)
	mixedDecimalPattern = regexp.MustCompile(`^(\d+)\s+(0?\.\d+)$`)
	fractionPattern     = regexp.MustCompile(`^(\d+)/(\d+)$`)
)

// replaceFractionGlyphs 將分數字元換成小數，緊接在整數後的字元以空白分隔成帶分數
func replaceFractionGlyphs(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	for _, r := range s {
		v, ok := unicodeFractions[r]
		if !ok {
			b.WriteRune(r)
			prev = r
			continue
		}
		if unicode.IsDigit(prev) {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		prev = ' '
	}
	return b.String()
}

// ParseQuantity 將 "1 3/4"、"3/4"、"⅛"、"1.5" 或數字轉為有限的 float64，無法解析時 ok 為 false
func ParseQuantity(input any) (float64, bool) {
	switch v := input.(type) {
	case float64:
		return finite(v)
	case float32:
		return finite(float64(v))
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return finite(f)
	case string:
		return parseQuantityString(v)
	default:
		return 0, false
	}
}

func parseQuantityString(input string) (float64, bool) {
	s := strings.TrimSpace(replaceFractionGlyphs(input))
	if s == "" {
		return 0, false
	}

	if m := mixedPattern.FindStringSubmatch(s); m != nil {
		whole, _ := strconv.ParseFloat(m[1], 64)
		num, _ := strconv.ParseFloat(m[2], 64)
		den, _ := strconv.ParseFloat(m[3], 64)
		if den == 0 {
			return finite(whole)
		}
		return finite(whole + num/den)
	}

	if m := mixedDecimalPattern.FindStringSubmatch(s); m != nil {
		whole, _ := strconv.ParseFloat(m[1], 64)
		frac, _ := strconv.ParseFloat(m[2], 64)
		return finite(whole + frac)
	}

	if m := fractionPattern.FindStringSubmatch(s); m != nil {
		num, _ := strconv.ParseFloat(m[1], 64)
		den, _ := strconv.ParseFloat(m[2], 64)
		if den == 0 {
			return 0, false
		}
		return finite(num / den)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return finite(f)
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
