package recipe

import (
	"strconv"
	"strings"

	recipeCore "recipify/internal/core/recipe"
	"recipify/internal/core/units"
	"recipify/internal/pkg/common"
)

// IngredientLine 依單位偏好格式化後的食材
type IngredientLine struct {
	Amount string `json:"amount"`
	Item   string `json:"item"`
	Notes  string `json:"notes,omitempty"`
}

func formatIngredients(ings []recipeCore.Ingredient, pref units.Preference) []IngredientLine {
	lines := make([]IngredientLine, len(ings))
	for i, ing := range ings {
		lines[i] = IngredientLine{
			Amount: units.FormatQuantityUnit(ing.Qty, ing.Unit, pref),
			Item:   ing.Item,
			Notes:  ing.Notes,
		}
	}
	return lines
}

// parseScale 空字串代表 1
func parseScale(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 1, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, common.NewValidationError("scale must be a number, got %q", s)
	}
	return units.ClampScale(f), nil
}

// sourceOrDefault 請求帶有 kind 時使用請求的來源
func sourceOrDefault(src *recipeCore.Source, kind recipeCore.SourceKind) (*recipeCore.Source, error) {
	if src == nil || src.Kind == "" {
		return &recipeCore.Source{Kind: kind}, nil
	}
	switch src.Kind {
	case recipeCore.SourcePhoto, recipeCore.SourceImport, recipeCore.SourceManual:
		return src, nil
	default:
		return nil, common.NewValidationError("unknown source kind %q", src.Kind)
	}
}
