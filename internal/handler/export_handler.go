package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/littleseedlimited/caseview-bot/internal/service"
)

// ExportHandler serves rendered case documents behind signed tokens.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs an export download handler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Download handles GET /exports/:token.
func (h *ExportHandler) Download(c *gin.Context) {
	path, err := h.exports.Open(c.Param("token"))
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "download link is invalid or expired"})
		return
	}
	c.FileAttachment(path, c.Param("token"))
}
