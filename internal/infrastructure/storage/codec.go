package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"recipify/internal/core/recipe"
)

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

// joinList 以逗號合併，空清單存為 NULL
func joinList(items []string) sql.NullString {
	return nullString(strings.Join(items, ","))
}

func splitList(s sql.NullString) []string {
	if !s.Valid || s.String == "" {
		return nil
	}
	parts := strings.Split(s.String, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func encodeNutrition(n *recipe.Nutrition) (sql.NullString, error) {
	if n == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(n)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode nutrition: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeNutrition(s sql.NullString) (*recipe.Nutrition, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var n recipe.Nutrition
	if err := json.Unmarshal([]byte(s.String), &n); err != nil {
		return nil, fmt.Errorf("decode nutrition: %w", err)
	}
	return &n, nil
}
