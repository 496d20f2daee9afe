package recipe

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"recipify/internal/pkg/common"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var ingredientSchema = map[string]any{
	"type":     "object",
	"required": []any{"item"},
	"properties": map[string]any{
		"qty":   map[string]any{"type": "number"},
		"unit":  map[string]any{"type": "string"},
		"item":  map[string]any{"type": "string", "minLength": 1},
		"notes": map[string]any{"type": "string"},
	},
}

var stepSchema = map[string]any{
	"type":     "object",
	"required": []any{"order", "text"},
	"properties": map[string]any{
		"order":       map[string]any{"type": "integer"},
		"text":        map[string]any{"type": "string", "minLength": 1},
		"timeMinutes": map[string]any{"type": "number", "minimum": 0},
	},
}

var stringList = map[string]any{
	"type":  "array",
	"items": map[string]any{"type": "string"},
}

// partialRecipeSchema 頂層欄位皆為選填，出現的 ingredient 與 step 必須完整
var partialRecipeSchema = map[string]any{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type":    "object",
	"properties": map[string]any{
		"id":               map[string]any{"type": "string"},
		"title":            map[string]any{"type": "string", "minLength": 1},
		"description":      map[string]any{"type": "string"},
		"servings":         map[string]any{"type": "number", "exclusiveMinimum": 0},
		"totalTimeMinutes": map[string]any{"type": "number", "minimum": 0},
		"categories":       stringList,
		"tags":             stringList,
		"ingredients":      map[string]any{"type": "array", "items": ingredientSchema},
		"steps":            map[string]any{"type": "array", "items": stepSchema},
		"source": map[string]any{
			"type":     "object",
			"required": []any{"kind"},
			"properties": map[string]any{
				"kind": map[string]any{"enum": []any{string(SourcePhoto), string(SourceImport), string(SourceManual)}},
				"uri":  map[string]any{"type": "string"},
			},
		},
		"nutrition": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"kcal":     map[string]any{"type": "number"},
				"proteinG": map[string]any{"type": "number"},
				"carbsG":   map[string]any{"type": "number"},
				"fatG":     map[string]any{"type": "number"},
			},
		},
		"image_uri":     map[string]any{"type": "string"},
		"imageUri":      map[string]any{"type": "string"},
		"createdAt":     map[string]any{"type": "number"},
		"updatedAt":     map[string]any{"type": "number"},
		"schemaVersion": map[string]any{"const": SchemaVersion},
	},
}

var compiledPartialSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return compileSchema("recipe.partial.json", partialRecipeSchema)
})

func compileSchema(name string, schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile(name)
}

// wireDraft 接受兩種圖片欄位名稱
type wireDraft struct {
	Draft
	ImageURISnake string `json:"image_uri,omitempty"`
}

// ValidatePartial 以部分結構驗證清理後的值並轉為 Draft。
// 同時出現 image_uri 與 imageUri 時以 image_uri 為準。
func ValidatePartial(value any) (*Draft, error) {
	schema, err := compiledPartialSchema()
	if err != nil {
		return nil, fmt.Errorf("compile recipe schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return nil, toSchemaError(err)
	}

	var wire wireDraft
	if err := common.Remarshal(value, &wire); err != nil {
		return nil, &common.SchemaValidationError{Message: err.Error(), Err: err}
	}

	draft := wire.Draft
	if wire.ImageURISnake != "" {
		draft.ImageURI = wire.ImageURISnake
	}
	return &draft, nil
}

// toSchemaError 取第一個最深層的錯誤原因
func toSchemaError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &common.SchemaValidationError{Message: err.Error(), Err: err}
	}
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	return &common.SchemaValidationError{
		Path:    leaf.InstanceLocation,
		Message: leaf.Message,
		Err:     err,
	}
}
