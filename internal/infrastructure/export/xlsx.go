// Package export writes saved recipes to spreadsheet workbooks.
package export

import (
	"fmt"
	"io"
	"strings"

	"recipify/internal/core/recipe"
	"recipify/internal/core/units"

	"github.com/xuri/excelize/v2"
)

const (
	SheetRecipes     = "Recipes"
	SheetIngredients = "Ingredients"
	SheetSteps       = "Steps"
)

// WriteXLSX 將食譜寫成三個工作表：食譜、食材與步驟
func WriteXLSX(w io.Writer, recipes []*recipe.Recipe) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetRecipes); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetIngredients, SheetSteps} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	sheets := map[string][]string{
		SheetRecipes:     {"ID", "Title", "Description", "Servings", "Total Time (min)", "Categories", "Tags", "Source", "Created", "Updated"},
		SheetIngredients: {"Recipe ID", "Recipe", "Qty", "Unit", "Item", "Notes", "Metric", "US"},
		SheetSteps:       {"Recipe ID", "Recipe", "Order", "Text", "Time (min)"},
	}
	for sheet, headers := range sheets {
		if err := writeRow(f, sheet, 1, toValues(headers)); err != nil {
			return err
		}
	}

	recipeRow, ingRow, stepRow := 2, 2, 2
	for _, r := range recipes {
		source := ""
		if r.Source != nil {
			source = string(r.Source.Kind)
		}
		if err := writeRow(f, SheetRecipes, recipeRow, []any{
			r.ID, r.Title, r.Description, optional(r.Servings), optional(r.TotalTimeMinutes),
			strings.Join(r.Categories, ", "), strings.Join(r.Tags, ", "), source,
			units.FormatDate(r.CreatedAt), units.FormatDate(r.UpdatedAt),
		}); err != nil {
			return err
		}
		recipeRow++

		for _, ing := range r.Ingredients {
			if err := writeRow(f, SheetIngredients, ingRow, []any{
				r.ID, r.Title, optional(ing.Qty), ing.Unit, ing.Item, ing.Notes,
				units.FormatQuantityUnit(ing.Qty, ing.Unit, units.Metric),
				units.FormatQuantityUnit(ing.Qty, ing.Unit, units.US),
			}); err != nil {
				return err
			}
			ingRow++
		}

		for _, st := range r.SortedSteps() {
			if err := writeRow(f, SheetSteps, stepRow, []any{
				r.ID, r.Title, st.Order, st.Text, optional(st.TimeMinutes),
			}); err != nil {
				return err
			}
			stepRow++
		}
	}

	_ = f.SetColWidth(SheetRecipes, "B", "B", 32)
	_ = f.SetColWidth(SheetRecipes, "C", "C", 48)
	_ = f.SetColWidth(SheetIngredients, "E", "F", 28)
	_ = f.SetColWidth(SheetSteps, "D", "D", 80)

	if idx, err := f.GetSheetIndex(SheetRecipes); err == nil {
		f.SetActiveSheet(idx)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func toValues(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// optional 空值寫成空白儲存格
func optional(f *float64) any {
	if f == nil {
		return ""
	}
	return *f
}
