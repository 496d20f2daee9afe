package export

import (
	"bytes"
	"testing"
	"time"

	"recipify/internal/core/recipe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func fptr(f float64) *float64 { return &f }

func TestWriteXLSX(t *testing.T) {
	r, err := recipe.Finalize(&recipe.Draft{
		Title: "Pancakes",
		Tags:  []string{"breakfast", "sweet"},
		Ingredients: []recipe.Ingredient{
			{Qty: fptr(2), Unit: "tbsp", Item: "sugar"},
			{Item: "salt"},
		},
		Steps: []recipe.Step{{Order: 2, Text: "Cook"}, {Order: 1, Text: "Whisk"}},
	}, &recipe.Source{Kind: recipe.SourceManual}, time.Now())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, []*recipe.Recipe{r}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetRecipes, SheetIngredients, SheetSteps}, f.GetSheetList())

	title, err := f.GetCellValue(SheetRecipes, "B2")
	require.NoError(t, err)
	assert.Equal(t, "Pancakes", title)

	tags, err := f.GetCellValue(SheetRecipes, "G2")
	require.NoError(t, err)
	assert.Equal(t, "breakfast, sweet", tags)

	metric, err := f.GetCellValue(SheetIngredients, "G2")
	require.NoError(t, err)
	assert.Equal(t, "30 ml", metric)

	item, err := f.GetCellValue(SheetIngredients, "E3")
	require.NoError(t, err)
	assert.Equal(t, "salt", item)

	first, err := f.GetCellValue(SheetSteps, "D2")
	require.NoError(t, err)
	assert.Equal(t, "Whisk", first)
}

func TestWriteXLSXEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue(SheetSteps, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Recipe ID", header)
}
