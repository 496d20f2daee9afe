package handlers

import (
	"errors"
	"net/http"

	"recipify/internal/infrastructure/storage"
	"recipify/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RespondError 將錯誤轉為 ErrorResponse，debug 時附帶原始錯誤
func RespondError(c *gin.Context, err error, debug bool) {
	var ce *common.CustomError
	if errors.Is(err, storage.ErrNotFound) {
		ce = common.NewError(common.ErrCodeNotFound, "食譜不存在", http.StatusNotFound, err)
	} else {
		ce = common.ToCustomError(err)
	}

	if ce.Status >= http.StatusInternalServerError {
		common.LogError("請求處理失敗",
			zap.String("code", ce.Code),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", requestid.Get(c)),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(ce.Status, ce.Response(debug))
}

// BadRequest 請求格式錯誤
func BadRequest(c *gin.Context, err error, debug bool) {
	ce := common.NewError(common.ErrCodeInvalidRequest, "請求格式無效", http.StatusBadRequest, err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(ce.Status, ce.Response(debug))
}
