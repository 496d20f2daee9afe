package recipe

import (
	"context"
	"time"

	"recipify/internal/pkg/common"

	"github.com/kaptinlin/jsonrepair"
	"go.uber.org/zap"
)

// ChatSender 將提示送給模型並回傳助理的原始文字
type ChatSender interface {
	SendChat(ctx context.Context, prompt string) (string, error)
}

// ParserOptions 解析模型輸出的額外嘗試
type ParserOptions struct {
	// BalancedFallback 貪婪擷取失敗時改試括號平衡的物件
	BalancedFallback bool
	// RepairJSON 最後以 jsonrepair 修補
	RepairJSON bool
}

// Parser 食譜抽取流程：提示、模型呼叫、擷取、清理、驗證
type Parser struct {
	sender  ChatSender
	prompts *PromptBuilder
	opts    ParserOptions
}

// NewParser 創建新的解析器
func NewParser(sender ChatSender, opts ParserOptions) *Parser {
	return &Parser{
		sender:  sender,
		prompts: NewPromptBuilder(),
		opts:    opts,
	}
}

// ParseRecipe 將食譜文字轉為草稿，只呼叫模型一次，不重試。
// 錯誤為 ConfigurationError、TransportError、MalformedResponseError、
// ExtractionError、JSONParseError 或 SchemaValidationError。
func (p *Parser) ParseRecipe(ctx context.Context, rawText string) (*Draft, error) {
	prompt, err := p.prompts.Build(rawText)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	content, err := p.sender.SendChat(ctx, prompt)
	if err != nil {
		common.LogError("模型呼叫失敗", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return nil, err
	}

	cleaned := StripCodeFences(content)
	common.LogDebug("模型回應內容 (recipe/parse)",
		zap.Int("response_length", len(cleaned)),
		zap.String("response_preview", common.Preview(cleaned, common.PreviewLength)),
	)

	value, err := p.decode(cleaned)
	if err != nil {
		common.LogWarn("無法解析模型輸出", zap.Error(err))
		return nil, err
	}

	draft, err := ValidatePartial(Sanitize(value))
	if err != nil {
		common.LogWarn("食譜結構驗證失敗", zap.Error(err))
		return nil, err
	}
	draft.backfill()

	common.LogInfo("食譜解析完成",
		zap.String("title", draft.Title),
		zap.Int("ingredients", len(draft.Ingredients)),
		zap.Int("steps", len(draft.Steps)),
		zap.Duration("duration", time.Since(start)),
	)
	return draft, nil
}

// decode 依序嘗試貪婪片段、平衡片段與修補後的片段
func (p *Parser) decode(cleaned string) (any, error) {
	candidate, ok := ExtractJSONObject(cleaned)
	if !ok {
		return nil, &common.ExtractionError{Preview: common.Preview(cleaned, common.PreviewLength)}
	}

	var value any
	firstErr := common.ParseJSON(candidate, &value)
	if firstErr == nil {
		return value, nil
	}

	if p.opts.BalancedFallback {
		for _, obj := range balancedObjects(cleaned) {
			if obj == candidate {
				continue
			}
			var v any
			if err := common.ParseJSON(obj, &v); err == nil {
				common.LogDebug("使用括號平衡的 JSON 片段")
				return v, nil
			}
		}
	}

	if p.opts.RepairJSON {
		if repaired, err := jsonrepair.JSONRepair(candidate); err == nil {
			var v any
			if err := common.ParseJSON(repaired, &v); err == nil {
				common.LogDebug("使用修補後的 JSON")
				return v, nil
			}
		}
	}

	return nil, &common.JSONParseError{Err: firstErr}
}
