package recipe

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/tyler-sommer/stick"
)

//go:embed prompts/extract.twig
var extractTemplate string

// PromptBuilder 以 Twig 模板產生抽取指令
type PromptBuilder struct {
	env      *stick.Env
	template string
}

// NewPromptBuilder 使用內建的抽取模板
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{env: stick.New(nil), template: extractTemplate}
}

// WithTemplate 替換模板內容，主要供測試使用
func (b *PromptBuilder) WithTemplate(tpl string) *PromptBuilder {
	b.template = tpl
	return b
}

// Build 將規則與原始文字組成完整提示
func (b *PromptBuilder) Build(rawText string) (string, error) {
	ctx := map[string]stick.Value{
		"categories": strings.Join(Categories, ", "),
		"text":       rawText,
	}

	var out strings.Builder
	if err := b.env.Execute(b.template, &out, ctx); err != nil {
		return "", fmt.Errorf("render extract prompt: %w", err)
	}
	return strings.TrimSpace(out.String()), nil
}
