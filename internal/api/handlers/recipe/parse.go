package recipe

import (
	"net/http"
	"strings"

	"recipify/internal/api/handlers"
	"recipify/internal/core/batch"
	recipeCore "recipify/internal/core/recipe"
	"recipify/internal/core/ingest"
	"recipify/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ParseRequest 解析食譜文字
type ParseRequest struct {
	Text        string             `json:"text"`
	ContentType string             `json:"content_type,omitempty"`
	Save        bool               `json:"save,omitempty"`
	Source      *recipeCore.Source `json:"source,omitempty"`
}

// BatchItem 批次中的一筆
type BatchItem struct {
	Name        string `json:"name,omitempty"`
	Text        string `json:"text"`
	ContentType string `json:"content_type,omitempty"`
}

// BatchRequest 批次解析請求
type BatchRequest struct {
	Items []BatchItem `json:"items"`
}

// BatchItemResult 與輸入同位置的結果，成功時有 recipe，失敗時有 error
type BatchItemResult struct {
	Name   string                `json:"name,omitempty"`
	Recipe *recipeCore.Draft     `json:"recipe,omitempty"`
	Error  *common.ErrorResponse `json:"error,omitempty"`
}

// HandleParse 將文字交給模型解析，save 為 true 時保存並回傳 201
func (h *Handler) HandleParse(c *gin.Context) {
	requestID := requestid.Get(c)

	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("請求格式無效", zap.Error(err), zap.String("request_id", requestID))
		handlers.BadRequest(c, err, h.debug)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		handlers.RespondError(c, common.NewValidationError("text is required"), h.debug)
		return
	}

	doc, err := ingest.Normalize([]byte(req.Text), req.ContentType)
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}

	common.LogInfo("開始解析食譜",
		zap.String("request_id", requestID),
		zap.String("media_type", doc.MediaType),
		zap.Int("text_length", len(doc.Text)),
		zap.Bool("save", req.Save),
	)

	draft, err := h.parser.ParseRecipe(c.Request.Context(), doc.Text)
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}

	if !req.Save {
		c.JSON(http.StatusOK, gin.H{"recipe": draft})
		return
	}

	src, err := sourceOrDefault(req.Source, doc.SourceKind)
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}
	r, err := recipeCore.Finalize(draft, src, h.now())
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}
	if err := h.store.Insert(c.Request.Context(), r); err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}

	common.LogInfo("解析的食譜已保存", zap.String("id", r.ID), zap.String("request_id", requestID))
	c.JSON(http.StatusCreated, gin.H{"recipe": r})
}

// HandleParseBatch 平行解析多筆文字，每筆獨立成功或失敗
func (h *Handler) HandleParseBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err, h.debug)
		return
	}
	if len(req.Items) == 0 {
		handlers.RespondError(c, common.NewValidationError("items is required"), h.debug)
		return
	}
	if limit := h.runner.Status().MaxSize; limit > 0 && len(req.Items) > limit {
		handlers.RespondError(c, common.NewValidationError("batch has %d items, limit is %d", len(req.Items), limit), h.debug)
		return
	}

	results := make([]BatchItemResult, len(req.Items))
	var inputs []batch.Input
	var positions []int
	for i, item := range req.Items {
		results[i].Name = item.Name
		doc, err := ingest.Normalize([]byte(item.Text), item.ContentType)
		if err != nil {
			results[i].Error = h.errorBody(err)
			continue
		}
		inputs = append(inputs, batch.Input{Name: item.Name, Text: doc.Text})
		positions = append(positions, i)
	}

	if len(inputs) > 0 {
		parsed, err := h.runner.ParseAll(c.Request.Context(), inputs)
		if err != nil {
			handlers.RespondError(c, err, h.debug)
			return
		}
		for j, res := range parsed {
			i := positions[j]
			if res.Err != nil {
				results[i].Error = h.errorBody(res.Err)
				continue
			}
			results[i].Recipe = res.Draft
		}
	}

	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"results":   results,
		"succeeded": len(results) - failed,
		"failed":    failed,
	})
}

func (h *Handler) errorBody(err error) *common.ErrorResponse {
	resp := common.ToCustomError(err).Response(h.debug)
	return &resp
}
