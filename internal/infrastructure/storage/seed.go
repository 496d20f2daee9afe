package storage

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"recipify/internal/core/recipe"
	"recipify/internal/pkg/common"

	"go.uber.org/zap"
)

//go:embed seeds/recipes.json
var seedRecipes []byte

// SeedRecipes 解析內建的範例食譜，每筆都經過清理、驗證與定稿
func SeedRecipes(now time.Time) ([]*recipe.Recipe, error) {
	var raw []any
	if err := common.ParseJSONBytes(seedRecipes, &raw); err != nil {
		return nil, fmt.Errorf("parse seed recipes: %w", err)
	}

	out := make([]*recipe.Recipe, 0, len(raw))
	for i, item := range raw {
		draft, err := recipe.ValidatePartial(recipe.Sanitize(item))
		if err != nil {
			return nil, fmt.Errorf("seed recipe %d: %w", i, err)
		}
		r, err := recipe.Finalize(draft, &recipe.Source{Kind: recipe.SourceManual}, now)
		if err != nil {
			return nil, fmt.Errorf("seed recipe %d: %w", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// Seed 寫入範例食譜，回傳寫入筆數
func (s *Store) Seed(ctx context.Context) (int, error) {
	recipes, err := SeedRecipes(time.Now())
	if err != nil {
		return 0, err
	}
	for _, r := range recipes {
		if err := s.Insert(ctx, r); err != nil {
			return 0, err
		}
	}
	common.LogInfo("已寫入範例食譜", zap.Int("count", len(recipes)))
	return len(recipes), nil
}
