// Package batch runs independent recipe parses with bounded concurrency.
package batch

import (
	"context"
	"sync/atomic"
	"time"

	"recipify/internal/core/recipe"
	"recipify/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Parser 單筆解析
type Parser interface {
	ParseRecipe(ctx context.Context, rawText string) (*recipe.Draft, error)
}

// Input 一筆待解析的文字
type Input struct {
	Name string
	Text string
}

// Result 與輸入同位置的解析結果
type Result struct {
	Name     string
	Draft    *recipe.Draft
	Err      error
	Duration time.Duration
}

// Status 批次處理狀態
type Status struct {
	Workers        int   `json:"workers"`
	MaxSize        int   `json:"max_size"`
	InFlight       int64 `json:"in_flight"`
	ProcessedCount int64 `json:"processed_count"`
}

// Runner 以固定數量的 worker 平行解析，一筆失敗不影響其他
type Runner struct {
	parser  Parser
	workers int
	maxSize int

	inFlight  atomic.Int64
	processed atomic.Int64
}

// NewRunner 創建批次解析器
func NewRunner(parser Parser, workers, maxSize int) *Runner {
	if workers <= 0 {
		workers = 1
	}
	return &Runner{parser: parser, workers: workers, maxSize: maxSize}
}

// ParseAll 解析所有輸入，結果順序與輸入相同
func (r *Runner) ParseAll(ctx context.Context, inputs []Input) ([]Result, error) {
	if len(inputs) == 0 {
		return nil, common.NewValidationError("batch is empty")
	}
	if r.maxSize > 0 && len(inputs) > r.maxSize {
		return nil, common.NewValidationError("batch has %d items, limit is %d", len(inputs), r.maxSize)
	}

	results := make([]Result, len(inputs))
	var g errgroup.Group
	g.SetLimit(r.workers)

	for i, in := range inputs {
		g.Go(func() error {
			results[i] = r.parseOne(ctx, in)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	common.LogInfo("批次解析完成",
		zap.Int("total", len(inputs)),
		zap.Int("failed", failed),
		zap.Int("workers", r.workers),
	)
	return results, nil
}

func (r *Runner) parseOne(ctx context.Context, in Input) Result {
	r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	defer r.processed.Add(1)

	res := Result{Name: in.Name}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	start := time.Now()
	res.Draft, res.Err = r.parser.ParseRecipe(ctx, in.Text)
	res.Duration = time.Since(start)
	if res.Err != nil {
		common.LogWarn("批次項目解析失敗", zap.String("name", in.Name), zap.Error(res.Err))
	}
	return res
}

// Status 目前的處理狀態
func (r *Runner) Status() Status {
	return Status{
		Workers:        r.workers,
		MaxSize:        r.maxSize,
		InFlight:       r.inFlight.Load(),
		ProcessedCount: r.processed.Load(),
	}
}
