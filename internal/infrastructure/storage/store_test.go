package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"recipify/internal/core/ai/chat"
	"recipify/internal/core/recipe"
	"recipify/internal/infrastructure/config"
	"recipify/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(config.StorageConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "recipes.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Init(context.Background()))
	return s
}

func fptr(f float64) *float64 { return &f }

func sampleRecipe(t *testing.T, title string, now time.Time) *recipe.Recipe {
	t.Helper()
	r, err := recipe.Finalize(&recipe.Draft{
		Title:       title,
		Description: "Weeknight dinner",
		Servings:    fptr(2),
		Categories:  []string{"Main"},
		Tags:        []string{"dinner", "quick"},
		Ingredients: []recipe.Ingredient{
			{Qty: fptr(1.5), Unit: "cup", Item: "rice"},
			{Item: "salt", Notes: "to taste"},
		},
		Steps: []recipe.Step{
			{Order: 2, Text: "Simmer", TimeMinutes: fptr(15)},
			{Order: 1, Text: "Rinse rice"},
		},
		Nutrition: &recipe.Nutrition{Kcal: fptr(350)},
		ImageURI:  "file:///rice.jpg",
	}, &recipe.Source{Kind: recipe.SourcePhoto, URI: "file:///card.jpg"}, now)
	require.NoError(t, err)
	return r
}

func TestInsertAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	r := sampleRecipe(t, "Rice Bowl", time.UnixMilli(1700000000000))

	require.NoError(t, s.Insert(ctx, r))

	got, err := s.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestGetNotFound(t *testing.T) {
	_, err := newTestStore(t).Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListOrdersAndSearches(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	older := sampleRecipe(t, "Garlic Pasta", time.UnixMilli(1000))
	newer := sampleRecipe(t, "Tomato Soup", time.UnixMilli(2000))
	require.NoError(t, s.Insert(ctx, older))
	require.NoError(t, s.Insert(ctx, newer))

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID)
	assert.Equal(t, []string{"dinner", "quick"}, all[0].Tags)

	found, err := s.List(ctx, "pasta")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Garlic Pasta", found[0].Title)

	none, err := s.List(ctx, "cake")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	r := sampleRecipe(t, "Rice Bowl", time.Now())
	require.NoError(t, s.Insert(ctx, r))

	require.NoError(t, s.Delete(ctx, r.ID))
	_, err := s.Get(ctx, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, r.ID), ErrNotFound)

	var n int
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ingredients`).Scan(&n))
	assert.Zero(t, n)

	_, err = s.Seed(ctx)
	require.NoError(t, err)
	require.NoError(t, s.ClearAll(ctx))
	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	n, err := s.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	all, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)

	titles := map[string]*recipe.Recipe{}
	for _, r := range all {
		titles[r.Title] = r
	}
	pancakes := titles["Classic Pancakes"]
	require.NotNil(t, pancakes)
	assert.Len(t, pancakes.Ingredients, 7)
	assert.Equal(t, "Whole milk preferred", pancakes.Ingredients[5].Notes)
	assert.Equal(t, 420.0, *pancakes.Nutrition.Kcal)
	assert.Equal(t, recipe.SourceManual, pancakes.Source.Kind)
	assert.Contains(t, titles, "Banana Oat Cookies")
}

func TestLLMSettings(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	stored, err := s.LoadLLMSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, chat.Settings{}, stored)

	provider, model, key := "OpenAI", "gpt-4o", "sk-stored"
	require.NoError(t, s.SaveLLMSettings(ctx, LLMSettingsUpdate{Provider: &provider, Model: &model, APIKey: &key}))

	src := NewSettingsSource(s, chat.Settings{Provider: "openrouter", APIKey: "sk-env", AppTitle: "Recipify"})
	got, err := src.LLMSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "openai", got.Provider)
	assert.Equal(t, "gpt-4o", got.Model)
	assert.Equal(t, "sk-stored", got.APIKey)
	assert.Equal(t, "Recipify", got.AppTitle)

	require.NoError(t, s.SaveLLMSettings(ctx, LLMSettingsUpdate{ClearAPIKey: true}))
	got, err = src.LLMSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sk-env", got.APIKey)
	assert.Equal(t, "gpt-4o", got.Model)

	bad := "gemini"
	err = s.SaveLLMSettings(ctx, LLMSettingsUpdate{Provider: &bad})
	assert.True(t, common.IsValidationError(err))

	require.NoError(t, s.ClearLLMSettings(ctx))
	stored, err = s.LoadLLMSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, chat.Settings{}, stored)
}

func TestRebind(t *testing.T) {
	pg := &Store{driver: DriverPostgres}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", pg.rebind("SELECT * FROM t WHERE a = ? AND b = ?"))

	lite := &Store{driver: DriverSQLite}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(config.StorageConfig{Driver: "mysql"})
	assert.Error(t, err)
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "a.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN("a.db"))
	assert.Equal(t, "file:a.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN("file:a.db?mode=rwc"))
	assert.Equal(t, "a.db?_pragma=journal_mode(WAL)", sqliteDSN("a.db?_pragma=journal_mode(WAL)"))
}
