package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"recipify/internal/infrastructure/config"
	"recipify/internal/infrastructure/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := run(context.Background(), args, &out, &errOut)
	return out.String(), err
}

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "cli.db")
}

func TestFormatCommand(t *testing.T) {
	out, err := runCLI(t, "format", "--qty", "1 ½", "--unit", "cups", "--units", "metric")
	require.NoError(t, err)
	assert.Equal(t, "355 ml\n", out)

	out, err = runCLI(t, "format", "--unit", "pinch")
	require.NoError(t, err)
	assert.Equal(t, "pinch\n", out)

	_, err = runCLI(t, "format", "--qty", "lots")
	assert.Error(t, err)
}

func TestUsage(t *testing.T) {
	_, err := runCLI(t)
	assert.ErrorIs(t, err, errUsage)

	_, err = runCLI(t, "bake")
	assert.ErrorIs(t, err, errUsage)

	out, err := runCLI(t, "help")
	require.NoError(t, err)
	assert.Contains(t, out, "parse [--save]")
}

func TestSeedListShowDelete(t *testing.T) {
	db := tempDB(t)

	out, err := runCLI(t, "seed", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "seeded 4 recipes\n", out)

	out, err = runCLI(t, "list", "--db", db, "--search", "PANCAKE")
	require.NoError(t, err)
	assert.Contains(t, out, "Classic Pancakes")
	assert.NotContains(t, out, "Shrimp")

	store, err := storage.Open(config.StorageConfig{Driver: storage.DriverSQLite, DSN: db})
	require.NoError(t, err)
	list, err := store.List(context.Background(), "pancakes")
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.Len(t, list, 1)
	id := list[0].ID

	out, err = runCLI(t, "show", id, "--db", db, "--units", "us", "--scale", "2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Classic Pancakes\n"))
	assert.Contains(t, out, "\nIngredients\n")
	assert.Contains(t, out, "\nSteps\n1. ")

	out, err = runCLI(t, "show", id, "--db", db, "--json")
	require.NoError(t, err)
	var shown map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, id, shown["id"])

	out, err = runCLI(t, "delete", id, "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "deleted "+id+"\n", out)

	_, err = runCLI(t, "show", id, "--db", db)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = runCLI(t, "delete", "--db", db)
	assert.ErrorIs(t, err, errUsage)
}

func TestExportCommand(t *testing.T) {
	db := tempDB(t)
	_, err := runCLI(t, "seed", "--db", db)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.xlsx")
	out, err := runCLI(t, "export", "--db", db, "--out", path)
	require.NoError(t, err)
	assert.Equal(t, "exported 4 recipes to "+path+"\n", out)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	_, err = runCLI(t, "export", "--db", db)
	assert.ErrorIs(t, err, errUsage)
}

func TestParseCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"title\":\"Tea\",\"ingredients\":[{\"item\":\"water\",\"qty\":\"1\"}],\"steps\":[{\"text\":\"Boil\"}]}"}}]}`))
	}))
	defer srv.Close()

	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("LLM_BASE_URL", srv.URL)

	dir := t.TempDir()
	tea := filepath.Join(dir, "tea.txt")
	require.NoError(t, os.WriteFile(tea, []byte("Tea\nBoil 1 cup water"), 0o644))
	missing := filepath.Join(dir, "missing.txt")
	db := tempDB(t)

	out, err := runCLI(t, "parse", "--db", db, "--save", tea, missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files failed")

	var results []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	saved := results[0]["recipe"].(map[string]any)
	assert.Equal(t, "Tea", saved["title"])
	assert.NotEmpty(t, saved["id"])
	assert.Equal(t, "manual", saved["source"].(map[string]any)["kind"])
	assert.NotNil(t, results[1]["error"])

	out, err = runCLI(t, "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Tea")

	_, err = runCLI(t, "parse", "--db", db)
	assert.ErrorIs(t, err, errUsage)
}
