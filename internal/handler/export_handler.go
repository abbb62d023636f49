package handler

import (
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"payroll-import/internal/domain"
	"payroll-import/internal/logger"
	"payroll-import/internal/middleware"
	"payroll-import/internal/service"
)

// ExportHandler handles export-related HTTP requests.
type ExportHandler struct {
	exportService service.ExportServiceInterface
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(exportService service.ExportServiceInterface) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
	}
}

// ExportQuery is the query string of an export download.
type ExportQuery struct {
	Period      string `form:"period" binding:"required"`
	IncludeZero string `form:"include_zero"`
}

// Export handles GET /api/v1/exports/:group
func (h *ExportHandler) Export(c *gin.Context) {
	group := c.Param("group")
	if !domain.IsValidGroup(group) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown dataset group"})
		return
	}

	var q ExportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "period is required"})
		return
	}
	if _, err := time.Parse(MonthFormat, q.Period); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "period must be formatted as YYYY-MM"})
		return
	}

	includeZero := false
	if q.IncludeZero != "" {
		v, err := strconv.ParseBool(q.IncludeZero)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "include_zero must be a boolean"})
			return
		}
		includeZero = v
	}

	requestID := middleware.GetRequestID(c)
	file, err := h.exportService.Export(c.Request.Context(), service.ExportRequest{
		Group:       domain.DatasetGroup(group),
		Month:       q.Period,
		IncludeZero: includeZero,
		RequestID:   requestID,
	})
	if err != nil {
		writeError(c, err, "failed to export workbook")
		return
	}

	logger.WithRequestID(requestID).InfoContext(c.Request.Context(), "serving export",
		slog.String("filename", file.Filename),
		slog.Int("records", file.Records),
	)
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Filename}))
	c.Header("X-Record-Count", strconv.Itoa(file.Records))
	c.Data(http.StatusOK, XLSXContentType, file.Data)
}
