// Package storage persists recipes and LLM settings on sqlite or postgres.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"recipify/internal/core/recipe"
	"recipify/internal/infrastructure/config"
	"recipify/internal/pkg/common"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// ErrNotFound 食譜不存在
var ErrNotFound = errors.New("recipe not found")

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store 食譜與設定的資料庫存取
type Store struct {
	db     *sql.DB
	driver string
}

// Open 依設定開啟資料庫連線，不建立資料表
func Open(cfg config.StorageConfig) (*Store, error) {
	switch cfg.Driver {
	case "", DriverSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "recipes.db"
		}
		db, err := sql.Open("sqlite", sqliteDSN(dsn))
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		db.SetMaxOpenConns(1)
		return &Store{db: db, driver: DriverSQLite}, nil
	case DriverPostgres, "pgx":
		db, err := sql.Open("pgx", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(10)
		db.SetConnMaxIdleTime(5 * time.Minute)
		return &Store{db: db, driver: DriverPostgres}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// sqliteDSN 開啟外鍵並設定忙碌等待
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Init 建立資料表與索引
func (s *Store) Init(ctx context.Context) error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.driver == DriverPostgres {
		serial = "BIGSERIAL PRIMARY KEY"
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS recipes (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			servings DOUBLE PRECISION,
			total_time_minutes DOUBLE PRECISION,
			categories TEXT,
			tags TEXT,
			source_kind TEXT,
			source_uri TEXT,
			image_uri TEXT,
			nutrition TEXT,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL,
			schema_version INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ingredients (
			id ` + serial + `,
			recipe_id TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
			qty DOUBLE PRECISION,
			unit TEXT,
			item TEXT NOT NULL,
			notes TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS steps (
			id ` + serial + `,
			recipe_id TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
			step_order INTEGER NOT NULL,
			text TEXT NOT NULL,
			time_minutes DOUBLE PRECISION
		)`,
		`CREATE INDEX IF NOT EXISTS idx_recipes_title ON recipes(title)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	common.LogInfo("資料庫已初始化", zap.String("driver", s.driver))
	return nil
}

// rebind 將 ? 佔位符換成 postgres 的 $n
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Insert 在同一個交易中寫入食譜、食材與步驟
func (s *Store) Insert(ctx context.Context, r *recipe.Recipe) error {
	nutrition, err := encodeNutrition(r.Nutrition)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var sourceKind, sourceURI sql.NullString
	if r.Source != nil {
		sourceKind = nullString(string(r.Source.Kind))
		sourceURI = nullString(r.Source.URI)
	}

	_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO recipes
		(id, title, description, servings, total_time_minutes, categories, tags, source_kind, source_uri, image_uri, nutrition, created_at, updated_at, schema_version)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`),
		r.ID, r.Title, nullString(r.Description), nullFloat(r.Servings), nullFloat(r.TotalTimeMinutes),
		joinList(r.Categories), joinList(r.Tags), sourceKind, sourceURI, nullString(r.ImageURI), nutrition,
		r.CreatedAt, r.UpdatedAt, recipe.SchemaVersion,
	)
	if err != nil {
		return fmt.Errorf("insert recipe: %w", err)
	}

	for _, ing := range r.Ingredients {
		if _, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO ingredients (recipe_id, qty, unit, item, notes) VALUES (?,?,?,?,?)`),
			r.ID, nullFloat(ing.Qty), nullString(ing.Unit), ing.Item, nullString(ing.Notes)); err != nil {
			return fmt.Errorf("insert ingredient: %w", err)
		}
	}
	for _, st := range r.Steps {
		if _, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO steps (recipe_id, step_order, text, time_minutes) VALUES (?,?,?,?)`),
			r.ID, st.Order, st.Text, nullFloat(st.TimeMinutes)); err != nil {
			return fmt.Errorf("insert step: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit recipe: %w", err)
	}
	return nil
}

// List 依更新時間由新到舊列出食譜，search 比對標題（不分大小寫）
func (s *Store) List(ctx context.Context, search string) ([]recipe.Summary, error) {
	query := `SELECT id, title, tags, updated_at FROM recipes ORDER BY updated_at DESC`
	var args []any
	if search = strings.TrimSpace(search); search != "" {
		query = `SELECT id, title, tags, updated_at FROM recipes WHERE LOWER(title) LIKE LOWER(?) ORDER BY updated_at DESC`
		args = append(args, "%"+search+"%")
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	out := []recipe.Summary{}
	for rows.Next() {
		var sum recipe.Summary
		var tags sql.NullString
		if err := rows.Scan(&sum.ID, &sum.Title, &tags, &sum.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		sum.Tags = splitList(tags)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Get 讀取完整食譜，步驟依 order 排序
func (s *Store) Get(ctx context.Context, id string) (*recipe.Recipe, error) {
	var (
		r                               recipe.Recipe
		description, categories, tags   sql.NullString
		sourceKind, sourceURI, imageURI sql.NullString
		nutrition                       sql.NullString
		servings, totalTime             sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT id, title, description, servings, total_time_minutes, categories, tags,
		source_kind, source_uri, image_uri, nutrition, created_at, updated_at, schema_version
		FROM recipes WHERE id = ?`), id).Scan(
		&r.ID, &r.Title, &description, &servings, &totalTime, &categories, &tags,
		&sourceKind, &sourceURI, &imageURI, &nutrition, &r.CreatedAt, &r.UpdatedAt, &r.SchemaVersion,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}

	r.Description = description.String
	r.Servings = floatPtr(servings)
	r.TotalTimeMinutes = floatPtr(totalTime)
	r.Categories = splitList(categories)
	r.Tags = splitList(tags)
	r.ImageURI = imageURI.String
	if sourceKind.Valid {
		r.Source = &recipe.Source{Kind: recipe.SourceKind(sourceKind.String), URI: sourceURI.String}
	}
	if r.Nutrition, err = decodeNutrition(nutrition); err != nil {
		return nil, err
	}

	if r.Ingredients, err = s.ingredients(ctx, id); err != nil {
		return nil, err
	}
	if r.Steps, err = s.steps(ctx, id); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) ingredients(ctx context.Context, id string) ([]recipe.Ingredient, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT qty, unit, item, notes FROM ingredients WHERE recipe_id = ? ORDER BY id`), id)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	defer rows.Close()

	out := []recipe.Ingredient{}
	for rows.Next() {
		var ing recipe.Ingredient
		var qty sql.NullFloat64
		var unit, notes sql.NullString
		if err := rows.Scan(&qty, &unit, &ing.Item, &notes); err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		ing.Qty = floatPtr(qty)
		ing.Unit = unit.String
		ing.Notes = notes.String
		out = append(out, ing)
	}
	return out, rows.Err()
}

func (s *Store) steps(ctx context.Context, id string) ([]recipe.Step, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT step_order, text, time_minutes FROM steps WHERE recipe_id = ? ORDER BY step_order, id`), id)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer rows.Close()

	out := []recipe.Step{}
	for rows.Next() {
		var st recipe.Step
		var minutes sql.NullFloat64
		if err := rows.Scan(&st.Order, &st.Text, &minutes); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		st.TimeMinutes = floatPtr(minutes)
		out = append(out, st)
	}
	return out, rows.Err()
}

// All 讀取所有完整食譜，供匯出使用
func (s *Store) All(ctx context.Context) ([]*recipe.Recipe, error) {
	sums, err := s.List(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make([]*recipe.Recipe, 0, len(sums))
	for _, sum := range sums {
		r, err := s.Get(ctx, sum.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Delete 刪除食譜與其食材、步驟
func (s *Store) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		`DELETE FROM ingredients WHERE recipe_id = ?`,
		`DELETE FROM steps WHERE recipe_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, s.rebind(q), id); err != nil {
			return fmt.Errorf("delete recipe children: %w", err)
		}
	}
	res, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM recipes WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// ClearAll 清空所有食譜資料，不影響設定
func (s *Store) ClearAll(ctx context.Context) error {
	for _, q := range []string{`DELETE FROM ingredients`, `DELETE FROM steps`, `DELETE FROM recipes`} {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("clear data: %w", err)
		}
	}
	return nil
}

// Ping 檢查連線
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Driver 目前使用的資料庫
func (s *Store) Driver() string { return s.driver }

// Close 關閉連線
func (s *Store) Close() error {
	return s.db.Close()
}
