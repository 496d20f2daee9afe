package recipe

import (
	"context"
	"errors"
	"strings"
	"testing"

	"recipify/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeSender) SendChat(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func TestParseRecipeEndToEnd(t *testing.T) {
	sender := &fakeSender{reply: "```json\n{\"title\":\"Tea\",\"ingredients\":[{\"item\":\"Water\",\"qty\":\"1\"}],\"steps\":[{\"text\":\"Boil\"}]}\n```"}
	p := NewParser(sender, ParserOptions{})

	draft, err := p.ParseRecipe(context.Background(), "Tea: boil 1 cup water")
	require.NoError(t, err)

	assert.Equal(t, "Tea", draft.Title)
	require.Len(t, draft.Ingredients, 1)
	assert.Equal(t, "Water", draft.Ingredients[0].Item)
	require.NotNil(t, draft.Ingredients[0].Qty)
	assert.Equal(t, 1.0, *draft.Ingredients[0].Qty)
	assert.Equal(t, []Step{{Order: 1, Text: "Boil"}}, draft.Steps)

	require.Len(t, sender.prompts, 1)
	assert.Contains(t, sender.prompts[0], "OCR_TEXT:\nTea: boil 1 cup water")
}

func TestParseRecipeBackfillsSequences(t *testing.T) {
	p := NewParser(&fakeSender{reply: `{"title":"Toast"}`}, ParserOptions{})

	draft, err := p.ParseRecipe(context.Background(), "toast")
	require.NoError(t, err)
	assert.NotNil(t, draft.Ingredients)
	assert.Empty(t, draft.Ingredients)
	assert.NotNil(t, draft.Steps)
	assert.Empty(t, draft.Steps)
}

func TestParseRecipeNoJSON(t *testing.T) {
	reply := "Sorry, I cannot read this photo. " + strings.Repeat("x", 300)
	p := NewParser(&fakeSender{reply: reply}, ParserOptions{BalancedFallback: true, RepairJSON: true})

	draft, err := p.ParseRecipe(context.Background(), "???")
	assert.Nil(t, draft)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrExtraction))

	var ee *common.ExtractionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, common.PreviewLength, len([]rune(ee.Preview)))
	assert.True(t, strings.HasPrefix(ee.Preview, "Sorry"))
}

func TestParseRecipeSchemaVersionMismatch(t *testing.T) {
	p := NewParser(&fakeSender{reply: `{"title":"Tea","schemaVersion":2}`}, ParserOptions{})

	draft, err := p.ParseRecipe(context.Background(), "tea")
	assert.Nil(t, draft)
	assert.True(t, errors.Is(err, common.ErrSchemaValidation))
}

func TestParseRecipeInvalidJSON(t *testing.T) {
	p := NewParser(&fakeSender{reply: `{"title": "Tea",}`}, ParserOptions{})

	draft, err := p.ParseRecipe(context.Background(), "tea")
	assert.Nil(t, draft)
	assert.True(t, errors.Is(err, common.ErrJSONParse))

	var pe *common.JSONParseError
	require.ErrorAs(t, err, &pe)
	assert.NotNil(t, pe.Err)
}

func TestParseRecipeModelFailure(t *testing.T) {
	sendErr := &common.TransportError{StatusCode: 429, Message: "OpenRouter 429: rate limited"}
	p := NewParser(&fakeSender{err: sendErr}, ParserOptions{})

	draft, err := p.ParseRecipe(context.Background(), "tea")
	assert.Nil(t, draft)
	assert.True(t, errors.Is(err, common.ErrTransport))
	assert.Equal(t, "OpenRouter 429: rate limited", err.Error())
}

func TestParseRecipeBalancedFallback(t *testing.T) {
	reply := `Here you go: {"title":"Tea","steps":[{"text":"Use {fresh} leaves"}]} Note: {cup} means 240 ml.`

	p := NewParser(&fakeSender{reply: reply}, ParserOptions{})
	_, err := p.ParseRecipe(context.Background(), "tea")
	assert.True(t, errors.Is(err, common.ErrJSONParse))

	p = NewParser(&fakeSender{reply: reply}, ParserOptions{BalancedFallback: true})
	draft, err := p.ParseRecipe(context.Background(), "tea")
	require.NoError(t, err)
	assert.Equal(t, "Tea", draft.Title)
	assert.Equal(t, "Use {fresh} leaves", draft.Steps[0].Text)
}

func TestParseRecipeRepairJSON(t *testing.T) {
	reply := `{"title": "Tea", "steps": [{"text": "Boil",}],}`

	p := NewParser(&fakeSender{reply: reply}, ParserOptions{RepairJSON: true})
	draft, err := p.ParseRecipe(context.Background(), "tea")
	require.NoError(t, err)
	assert.Equal(t, "Tea", draft.Title)
	assert.Equal(t, []Step{{Order: 1, Text: "Boil"}}, draft.Steps)
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences("  ```\n{\"a\":1}```  "))
	assert.Equal(t, `{"a":1}`, StripCodeFences(`{"a":1}`))
}

func TestExtractJSONObject(t *testing.T) {
	got, ok := ExtractJSONObject(`noise {"a":{"b":1}} tail`)
	assert.True(t, ok)
	assert.Equal(t, `{"a":{"b":1}}`, got)

	_, ok = ExtractJSONObject("} before {")
	assert.False(t, ok)

	_, ok = ExtractJSONObject("no braces")
	assert.False(t, ok)
}

func TestBalancedObjects(t *testing.T) {
	got := balancedObjects(`x {"a":"}"} y {"b":{"c":"\"{"}} z {`)
	assert.Equal(t, []string{`{"a":"}"}`, `{"b":{"c":"\"{"}}`}, got)
}

func TestPromptBuilder(t *testing.T) {
	prompt, err := NewPromptBuilder().Build("2 eggs\n{{ not a tag }}")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(prompt, "You extract structured recipe data as JSON ONLY"))
	assert.True(t, strings.HasSuffix(prompt, "Respond with JSON only."))
	assert.Contains(t, prompt, strings.Join(Categories, ", "))
	assert.Contains(t, prompt, "2 eggs\n{{ not a tag }}")
	assert.Contains(t, prompt, `"steps": Array<{ "order": number, "text": string, "timeMinutes"?: number }>`)
}
