package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/curriculum-tools/dataeditor/internal/service"
	"github.com/curriculum-tools/dataeditor/pkg/response"
)

// ExportHandler triggers catalogue exports.
type ExportHandler struct {
	export *service.ExportService
}

// NewExportHandler constructs an export handler.
func NewExportHandler(export *service.ExportService) *ExportHandler {
	return &ExportHandler{export: export}
}

// Catalogue renders the whole dataset into a PDF file.
func (h *ExportHandler) Catalogue(c *gin.Context) {
	result, err := h.export.GenerateCatalogue()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// CourseList renders the course table into a CSV file.
func (h *ExportHandler) CourseList(c *gin.Context) {
	result, err := h.export.GenerateCourseList()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
