package recipe

import (
	"bytes"
	"net/http"
	"time"

	"recipify/internal/api/handlers"
	"recipify/internal/core/batch"
	recipeCore "recipify/internal/core/recipe"
	"recipify/internal/core/units"
	"recipify/internal/infrastructure/export"
	"recipify/internal/infrastructure/storage"
	"recipify/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler 食譜處理程序
type Handler struct {
	parser batch.Parser
	runner *batch.Runner
	store  *storage.Store
	debug  bool
	now    func() time.Time
}

// NewHandler 創建新的食譜處理程序
func NewHandler(parser batch.Parser, runner *batch.Runner, store *storage.Store, debug bool) *Handler {
	return &Handler{
		parser: parser,
		runner: runner,
		store:  store,
		debug:  debug,
		now:    time.Now,
	}
}

// RecipeResponse 單一食譜與格式化後的食材
type RecipeResponse struct {
	Recipe          *recipeCore.Recipe `json:"recipe"`
	Units           units.Preference   `json:"units"`
	Scale           float64            `json:"scale"`
	PrimaryCategory string             `json:"primaryCategory,omitempty"`
	Ingredients     []IngredientLine   `json:"ingredients"`
	Created         string             `json:"created"`
}

// HandleCreate 由食譜 JSON 建立並保存
func (h *Handler) HandleCreate(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		handlers.BadRequest(c, err, h.debug)
		return
	}
	var value any
	if err := common.ParseJSONBytes(body, &value); err != nil {
		handlers.BadRequest(c, err, h.debug)
		return
	}

	draft, err := recipeCore.ValidatePartial(recipeCore.Sanitize(value))
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}
	r, err := recipeCore.Finalize(draft, &recipeCore.Source{Kind: recipeCore.SourceManual}, h.now())
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}
	if err := h.store.Insert(c.Request.Context(), r); err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}

	common.LogInfo("食譜已建立", zap.String("id", r.ID), zap.String("title", r.Title))
	c.JSON(http.StatusCreated, gin.H{"recipe": r})
}

// HandleList 列出食譜，search 比對標題
func (h *Handler) HandleList(c *gin.Context) {
	list, err := h.store.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": list, "count": len(list)})
}

// HandleGet 讀取食譜，可指定單位偏好與倍率
func (h *Handler) HandleGet(c *gin.Context) {
	scale, err := parseScale(c.Query("scale"))
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}
	pref := units.ParsePreference(c.Query("units"))

	r, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}
	if scale != 1 {
		r = recipeCore.Scale(r, scale)
	}

	c.JSON(http.StatusOK, RecipeResponse{
		Recipe:          r,
		Units:           pref,
		Scale:           scale,
		PrimaryCategory: r.PrimaryCategory(),
		Ingredients:     formatIngredients(r.Ingredients, pref),
		Created:         units.FormatDate(r.CreatedAt),
	})
}

// HandleDelete 刪除食譜
func (h *Handler) HandleDelete(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}
	common.LogInfo("食譜已刪除", zap.String("id", id))
	c.Status(http.StatusNoContent)
}

// HandleExport 匯出所有食譜為 xlsx
func (h *Handler) HandleExport(c *gin.Context) {
	all, err := h.store.All(c.Request.Context())
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, all); err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="recipes.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
