package handlers

import (
	"net/http"

	"recipify/internal/core/units"

	"github.com/gin-gonic/gin"
)

// FormatRequest 單位格式化請求
type FormatRequest struct {
	Qty        *float64 `json:"qty"`
	Unit       string   `json:"unit"`
	Preference string   `json:"preference"`
}

// HandleFormatUnits 依偏好格式化數量與單位
func HandleFormatUnits(c *gin.Context) {
	var req FormatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err, false)
		return
	}
	pref := units.ParsePreference(req.Preference)
	c.JSON(http.StatusOK, gin.H{
		"text":       units.FormatQuantityUnit(req.Qty, req.Unit, pref),
		"preference": pref,
	})
}
