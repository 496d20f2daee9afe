// Package ingest turns uploaded bytes into recipe text ready for parsing.
package ingest

import (
	"fmt"
	"os"
	"strings"

	"recipify/internal/core/recipe"
	"recipify/internal/pkg/common"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/gabriel-vasile/mimetype"
)

// Document 正規化後的輸入
type Document struct {
	Text       string
	MediaType  string
	SourceKind recipe.SourceKind
}

// Normalize 偵測媒體類型，HTML 轉為 Markdown，純文字與 JSON 直接使用。
// declared 為空時依內容偵測。
func Normalize(data []byte, declared string) (Document, error) {
	mediaType := normalizeMediaType(declared)
	if mediaType == "" {
		mediaType = normalizeMediaType(mimetype.Detect(data).String())
	}

	var doc Document
	switch {
	case mediaType == "text/html" || mediaType == "application/xhtml+xml":
		markdown, err := htmltomarkdown.ConvertString(string(data))
		if err != nil {
			return Document{}, fmt.Errorf("converting HTML to markdown: %w", err)
		}
		doc = Document{Text: markdown, MediaType: mediaType, SourceKind: recipe.SourceImport}
	case strings.HasPrefix(mediaType, "text/") || mediaType == "application/json":
		doc = Document{Text: string(data), MediaType: mediaType, SourceKind: recipe.SourceManual}
	case strings.HasPrefix(mediaType, "image/"):
		return Document{}, common.NewValidationError("%s input must go through OCR before parsing", mediaType)
	default:
		return Document{}, common.NewValidationError("unsupported content type %q", mediaType)
	}

	doc.Text = strings.TrimSpace(doc.Text)
	if doc.Text == "" {
		return Document{}, common.NewValidationError("recipe text is empty")
	}
	return doc, nil
}

// ReadFile 讀取檔案並正規化
func ReadFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Normalize(data, "")
}

func normalizeMediaType(s string) string {
	base, _, _ := strings.Cut(s, ";")
	return strings.ToLower(strings.TrimSpace(base))
}
