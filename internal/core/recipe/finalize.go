package recipe

import (
	"strings"
	"time"

	"recipify/internal/core/units"
	"recipify/internal/pkg/common"
)

// Finalize 在保存前補上 id、時間戳與版本，標題為必填
func Finalize(draft *Draft, source *Source, now time.Time) (*Recipe, error) {
	if draft == nil {
		return nil, common.NewValidationError("recipe draft is required")
	}
	if strings.TrimSpace(draft.Title) == "" {
		return nil, common.NewValidationError("recipe title is required")
	}

	d := draft.clone()
	d.backfill()
	d.Steps = d.SortedSteps()
	d.SchemaVersion = SchemaVersion
	if d.Source == nil && source != nil {
		s := *source
		d.Source = &s
	}

	ms := now.UnixMilli()
	return &Recipe{
		ID:        common.GenerateUUID(),
		Draft:     d,
		CreatedAt: ms,
		UpdatedAt: ms,
	}, nil
}

// Scale 回傳依倍率調整食材數量與份量的副本
func Scale(r *Recipe, factor float64) *Recipe {
	f := units.ClampScale(factor)
	out := *r
	out.Draft = r.Draft.clone()
	for i := range out.Ingredients {
		if q := out.Ingredients[i].Qty; q != nil {
			scaled := units.Round2(*q * f)
			out.Ingredients[i].Qty = &scaled
		}
	}
	if out.Servings != nil {
		scaled := units.Round2(*out.Servings * f)
		out.Servings = &scaled
	}
	return &out
}

func (d *Draft) clone() Draft {
	c := *d
	if d.Categories != nil {
		c.Categories = append([]string(nil), d.Categories...)
	}
	if d.Tags != nil {
		c.Tags = append([]string(nil), d.Tags...)
	}
	if d.Ingredients != nil {
		c.Ingredients = make([]Ingredient, len(d.Ingredients))
		for i, ing := range d.Ingredients {
			ing.Qty = copyFloat(ing.Qty)
			c.Ingredients[i] = ing
		}
	}
	if d.Steps != nil {
		c.Steps = make([]Step, len(d.Steps))
		for i, st := range d.Steps {
			st.TimeMinutes = copyFloat(st.TimeMinutes)
			c.Steps[i] = st
		}
	}
	c.Servings = copyFloat(d.Servings)
	c.TotalTimeMinutes = copyFloat(d.TotalTimeMinutes)
	if d.Source != nil {
		s := *d.Source
		c.Source = &s
	}
	if d.Nutrition != nil {
		n := Nutrition{
			Kcal:     copyFloat(d.Nutrition.Kcal),
			ProteinG: copyFloat(d.Nutrition.ProteinG),
			CarbsG:   copyFloat(d.Nutrition.CarbsG),
			FatG:     copyFloat(d.Nutrition.FatG),
		}
		c.Nutrition = &n
	}
	return c
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
