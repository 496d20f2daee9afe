package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"recipify/internal/core/ai/cache"
	"recipify/internal/core/ai/chat"
	"recipify/internal/core/ai/service"
	"recipify/internal/core/batch"
	"recipify/internal/core/ingest"
	"recipify/internal/core/recipe"
	"recipify/internal/core/units"
	"recipify/internal/infrastructure/config"
	"recipify/internal/infrastructure/export"
	"recipify/internal/infrastructure/storage"
	"recipify/internal/pkg/common"

	"github.com/spf13/pflag"
)

// fileResult parse 指令每個檔案的輸出
type fileResult struct {
	File   string                `json:"file"`
	Recipe any                   `json:"recipe,omitempty"`
	Error  *common.ErrorResponse `json:"error,omitempty"`
}

var parseCommand = command{
	usage:      "parse [--save] [--workers N] FILE...",
	needsStore: true,
	flags: func(fs *pflag.FlagSet, cfg *config.Config) {
		fs.Bool("save", false, "save parsed recipes")
		fs.Int("workers", cfg.Queue.Workers, "parallel model calls")
	},
	run: func(ctx context.Context, a *app, fs *pflag.FlagSet) error {
		files := fs.Args()
		if len(files) == 0 {
			fs.Usage()
			return fmt.Errorf("at least one file is required: %w", errUsage)
		}
		save, _ := fs.GetBool("save")
		workers, _ := fs.GetInt("workers")

		cacheStore, err := cache.New(a.cfg.Cache)
		if err != nil {
			return err
		}
		if cacheStore != nil {
			defer cacheStore.Close()
		}
		client := chat.NewClient(storage.NewSettingsSource(a.store, chat.FromConfig(a.cfg.LLM)), a.cfg.LLM.Timeout)
		defer client.Close()

		parser := recipe.NewParser(service.NewService(client, cacheStore), recipe.ParserOptions{
			BalancedFallback: a.cfg.Parser.BalancedFallback,
			RepairJSON:       a.cfg.Parser.RepairJSON,
		})
		runner := batch.NewRunner(parser, workers, 0)

		results := make([]fileResult, len(files))
		docs := make(map[int]ingest.Document, len(files))
		var inputs []batch.Input
		var positions []int
		for i, path := range files {
			results[i].File = path
			doc, err := ingest.ReadFile(path)
			if err != nil {
				results[i].Error = errorBody(err)
				continue
			}
			docs[i] = doc
			inputs = append(inputs, batch.Input{Name: path, Text: doc.Text})
			positions = append(positions, i)
		}

		if len(inputs) > 0 {
			parsed, err := runner.ParseAll(ctx, inputs)
			if err != nil {
				return err
			}
			for j, res := range parsed {
				i := positions[j]
				if res.Err != nil {
					results[i].Error = errorBody(res.Err)
					continue
				}
				if !save {
					results[i].Recipe = res.Draft
					continue
				}
				r, err := recipe.Finalize(res.Draft, &recipe.Source{Kind: docs[i].SourceKind}, time.Now())
				if err == nil {
					err = a.store.Insert(ctx, r)
				}
				if err != nil {
					results[i].Error = errorBody(err)
					continue
				}
				results[i].Recipe = r
			}
		}

		if err := writeJSON(a, results); err != nil {
			return err
		}
		failed := 0
		for _, r := range results {
			if r.Error != nil {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, len(files))
		}
		return nil
	},
}

var listCommand = command{
	usage:      "list [--search S]",
	needsStore: true,
	flags: func(fs *pflag.FlagSet, _ *config.Config) {
		fs.String("search", "", "filter by title")
	},
	run: func(ctx context.Context, a *app, fs *pflag.FlagSet) error {
		search, _ := fs.GetString("search")
		list, err := a.store.List(ctx, search)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tUPDATED\tTITLE\tTAGS")
		for _, s := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, units.FormatDate(s.UpdatedAt), s.Title, strings.Join(s.Tags, ", "))
		}
		return tw.Flush()
	},
}

var showCommand = command{
	usage:      "show ID [--units us|metric] [--scale F] [--json]",
	needsStore: true,
	flags: func(fs *pflag.FlagSet, _ *config.Config) {
		fs.String("units", string(units.Metric), "unit preference")
		fs.Float64("scale", 1, "scale factor (0.25 to 4)")
		fs.Bool("json", false, "print the stored recipe as JSON")
	},
	run: func(ctx context.Context, a *app, fs *pflag.FlagSet) error {
		id, err := argument(fs, 0, "recipe id")
		if err != nil {
			return err
		}
		r, err := a.store.Get(ctx, id)
		if err != nil {
			return err
		}

		scale, _ := fs.GetFloat64("scale")
		if scale != 1 {
			r = recipe.Scale(r, scale)
		}
		if asJSON, _ := fs.GetBool("json"); asJSON {
			return writeJSON(a, r)
		}

		unitFlag, _ := fs.GetString("units")
		printRecipe(a, r, units.ParsePreference(unitFlag))
		return nil
	},
}

var deleteCommand = command{
	usage:      "delete ID",
	needsStore: true,
	run: func(ctx context.Context, a *app, fs *pflag.FlagSet) error {
		id, err := argument(fs, 0, "recipe id")
		if err != nil {
			return err
		}
		if err := a.store.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "deleted %s\n", id)
		return nil
	},
}

var exportCommand = command{
	usage:      "export --out FILE.xlsx",
	needsStore: true,
	flags: func(fs *pflag.FlagSet, _ *config.Config) {
		fs.StringP("out", "o", "", "output workbook path")
	},
	run: func(ctx context.Context, a *app, fs *pflag.FlagSet) error {
		path, _ := fs.GetString("out")
		if path == "" {
			fs.Usage()
			return fmt.Errorf("--out is required: %w", errUsage)
		}
		all, err := a.store.All(ctx)
		if err != nil {
			return err
		}

		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		if err := export.WriteXLSX(f, all); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "exported %d recipes to %s\n", len(all), path)
		return nil
	},
}

var seedCommand = command{
	usage:      "seed",
	needsStore: true,
	run: func(ctx context.Context, a *app, _ *pflag.FlagSet) error {
		n, err := a.store.Seed(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "seeded %d recipes\n", n)
		return nil
	},
}

var formatCommand = command{
	usage: "format --qty Q --unit U [--units us|metric]",
	flags: func(fs *pflag.FlagSet, _ *config.Config) {
		fs.String("qty", "", `quantity such as "1 1/2" or "¾"`)
		fs.String("unit", "", "unit such as cup, tbsp, g")
		fs.String("units", string(units.Metric), "unit preference")
	},
	run: func(_ context.Context, a *app, fs *pflag.FlagSet) error {
		qtyFlag, _ := fs.GetString("qty")
		unit, _ := fs.GetString("unit")
		unitFlag, _ := fs.GetString("units")

		var qty *float64
		if strings.TrimSpace(qtyFlag) != "" {
			q, ok := recipe.ParseQuantity(qtyFlag)
			if !ok {
				return common.NewValidationError("cannot parse quantity %q", qtyFlag)
			}
			qty = &q
		}
		fmt.Fprintln(a.out, units.FormatQuantityUnit(qty, unit, units.ParsePreference(unitFlag)))
		return nil
	},
}

func printRecipe(a *app, r *recipe.Recipe, pref units.Preference) {
	fmt.Fprintln(a.out, r.Title)
	if r.Description != "" {
		fmt.Fprintln(a.out, r.Description)
	}
	if r.Servings != nil {
		fmt.Fprintf(a.out, "Servings: %s\n", units.FormatNumber(*r.Servings))
	}
	if r.TotalTimeMinutes != nil {
		fmt.Fprintf(a.out, "Total time: %s min\n", units.FormatNumber(*r.TotalTimeMinutes))
	}
	if len(r.Tags) > 0 {
		fmt.Fprintf(a.out, "Tags: %s\n", strings.Join(r.Tags, ", "))
	}

	fmt.Fprintln(a.out, "\nIngredients")
	for _, ing := range r.Ingredients {
		line := strings.TrimSpace(units.FormatQuantityUnit(ing.Qty, ing.Unit, pref) + " " + ing.Item)
		if ing.Notes != "" {
			line += " (" + ing.Notes + ")"
		}
		fmt.Fprintf(a.out, "- %s\n", line)
	}

	fmt.Fprintln(a.out, "\nSteps")
	for _, st := range r.SortedSteps() {
		fmt.Fprintf(a.out, "%d. %s\n", st.Order, st.Text)
	}
}

func writeJSON(a *app, v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func errorBody(err error) *common.ErrorResponse {
	resp := common.ToCustomError(err).Response(true)
	return &resp
}
