package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexskill/institute-api/internal/service"
	"github.com/nexskill/institute-api/pkg/response"
)

// ExportHandler serves downloadable CSV and PDF reports.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

func exportFormat(c *gin.Context) service.ReportFormat {
	return service.ReportFormat(c.DefaultQuery("format", string(service.ReportFormatCSV)))
}

func writeExport(c *gin.Context, result *service.ExportResult) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}

// Fees godoc
// @Summary Export the fee ledger
// @Tags Reports
// @Produce octet-stream
// @Param branch_id query string false "Branch filter"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /reports/fees [get]
func (h *ExportHandler) Fees(c *gin.Context) {
	result, err := h.exports.Fees(c.Request.Context(), c.Query("branch_id"), exportFormat(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	writeExport(c, result)
}

// Attendance godoc
// @Summary Export a batch attendance register
// @Tags Reports
// @Produce octet-stream
// @Param id path string true "Batch ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /reports/batches/{id}/attendance [get]
func (h *ExportHandler) Attendance(c *gin.Context) {
	result, err := h.exports.Attendance(c.Request.Context(), c.Param("id"), exportFormat(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	writeExport(c, result)
}

// Placements godoc
// @Summary Export the placement register
// @Tags Reports
// @Produce octet-stream
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /reports/placements [get]
func (h *ExportHandler) Placements(c *gin.Context) {
	result, err := h.exports.Placements(c.Request.Context(), exportFormat(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	writeExport(c, result)
}
