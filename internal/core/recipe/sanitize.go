package recipe

import (
	"encoding/json"
	"math"
	"strings"
)

// Sanitize 深度清理不可信的 JSON 值：移除 null 與空字串、轉換 qty、補上步驟 order、
// 丟棄缺少 item 或 text 的項目。不會修改輸入，也不會回傳錯誤；整個值被清空時回傳 nil。
func Sanitize(draft any) any {
	out, ok := deep(draft)
	if !ok {
		return nil
	}

	obj, isObj := out.(map[string]any)
	if !isObj {
		return out
	}

	if ings, ok := obj["ingredients"].([]any); ok {
		obj["ingredients"] = sanitizeIngredients(ings)
	}
	if steps, ok := obj["steps"].([]any); ok {
		obj["steps"] = sanitizeSteps(steps)
	}
	return obj
}

// deep 回傳清理後的值，ok 為 false 代表該值應被移除
func deep(val any) (any, bool) {
	switch v := val.(type) {
	case nil:
		return nil, false
	case []any:
		out := make([]any, 0, len(v))
		for _, el := range v {
			if cleaned, ok := deep(el); ok {
				out = append(out, cleaned)
			}
		}
		return out, true
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, el := range v {
			if cleaned, ok := deep(el); ok {
				out[k] = cleaned
			}
		}
		return out, true
	case string:
		t := strings.TrimSpace(v)
		if t == "" {
			return nil, false
		}
		return t, true
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f, true
		}
		return v.String(), true
	default:
		return v, true
	}
}

func sanitizeIngredients(ings []any) []any {
	out := make([]any, 0, len(ings))
	for _, el := range ings {
		ing, ok := el.(map[string]any)
		if !ok {
			continue
		}
		normalized := make(map[string]any, len(ing))
		for k, v := range ing {
			normalized[k] = v
		}

		if raw, present := normalized["qty"]; present {
			if q, ok := ParseQuantity(raw); ok {
				normalized["qty"] = q
			} else {
				delete(normalized, "qty")
			}
		}

		if !truthy(normalized["item"]) {
			continue
		}
		out = append(out, normalized)
	}
	return out
}

func sanitizeSteps(steps []any) []any {
	out := make([]any, 0, len(steps))
	for i, el := range steps {
		step, ok := el.(map[string]any)
		if !ok {
			continue
		}
		normalized := make(map[string]any, len(step))
		for k, v := range step {
			normalized[k] = v
		}

		if !isNumber(normalized["order"]) {
			normalized["order"] = float64(i + 1)
		}

		if !truthy(normalized["text"]) {
			continue
		}
		out = append(out, normalized)
	}
	return out
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int64:
		return true
	default:
		return false
	}
}

// truthy 判斷欄位是否有實際內容：nil、false、0、NaN 與空字串視為缺少
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	default:
		return true
	}
}
