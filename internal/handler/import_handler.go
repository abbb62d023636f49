package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"payroll-import/internal/catalog"
	"payroll-import/internal/domain"
	"payroll-import/internal/middleware"
	"payroll-import/internal/service"
)

// ImportHandler handles import-related HTTP requests.
type ImportHandler struct {
	importService service.ImportServiceInterface
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(importService service.ImportServiceInterface) *ImportHandler {
	return &ImportHandler{
		importService: importService,
	}
}

// ImportJobResponse represents an import job in the API response.
type ImportJobResponse struct {
	ID               string                 `json:"id"`
	PeriodID         string                 `json:"period_id"`
	DatasetGroup     string                 `json:"dataset_group"`
	Mode             string                 `json:"mode"`
	Status           string                 `json:"status"`
	TotalRecords     int                    `json:"total_records"`
	ProcessedRecords int                    `json:"processed_records"`
	SuccessCount     int                    `json:"success_count"`
	FailureCount     int                    `json:"failure_count"`
	ErrorMessage     *string                `json:"error_message,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
	Outcome          *domain.ImportOutcome  `json:"outcome,omitempty"`
	CreatedAt        string                 `json:"created_at"`
	UpdatedAt        string                 `json:"updated_at"`
	CompletedAt      *string                `json:"completed_at,omitempty"`
}

// toImportJobResponse converts a domain.ImportJob to an ImportJobResponse.
func toImportJobResponse(job *domain.ImportJob) ImportJobResponse {
	response := ImportJobResponse{
		ID:               job.ID,
		PeriodID:         job.PeriodID,
		DatasetGroup:     string(job.Group),
		Mode:             string(job.Mode),
		Status:           string(job.Status),
		TotalRecords:     job.TotalRecords,
		ProcessedRecords: job.ProcessedRecords,
		SuccessCount:     job.SuccessCount,
		FailureCount:     job.FailureCount,
		ErrorMessage:     job.ErrorMessage,
		Metadata:         job.Metadata,
		Outcome:          job.Outcome,
		CreatedAt:        job.CreatedAt.Format(TimeFormat),
		UpdatedAt:        job.UpdatedAt.Format(TimeFormat),
	}
	if job.CompletedAt != nil {
		completedAt := job.CompletedAt.Format(TimeFormat)
		response.CompletedAt = &completedAt
	}
	return response
}

// ProgressResponse is a progress snapshot with its completion percentage.
type ProgressResponse struct {
	domain.ImportProgress
	Percent float64 `json:"percent"`
}

// RollbackRequest carries the token from the job outcome.
type RollbackRequest struct {
	RollbackToken string `json:"rollback_token" binding:"required"`
}

// CatalogResponse lists the target fields of one dataset group.
type CatalogResponse struct {
	DatasetGroup string                  `json:"dataset_group"`
	DisplayName  string                  `json:"display_name"`
	SheetAliases []string                `json:"sheet_aliases"`
	Fields       []domain.CanonicalField `json:"fields"`
}

// CreateImport handles POST /api/v1/imports
func (h *ImportHandler) CreateImport(c *gin.Context) {
	periodID := c.PostForm("period_id")
	if periodID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "period_id is required"})
		return
	}

	group := c.PostForm("dataset_group")
	if group == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dataset_group is required"})
		return
	}
	if !domain.IsValidGroup(group) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dataset_group must be one of: earnings, bases, job, category"})
		return
	}

	mode := c.DefaultPostForm("mode", string(domain.ModeUpsert))
	if !domain.IsValidMode(mode) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be one of: upsert, replace"})
		return
	}

	skipInvalid := false
	if raw := c.PostForm("skip_invalid"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "skip_invalid must be a boolean"})
			return
		}
		skipInvalid = v
	}

	var mapping map[string]string
	if raw := c.PostForm("mapping"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "mapping must be a JSON object of column to field name"})
			return
		}
	}

	idempotencyToken := c.PostForm("idempotency_token")
	if idempotencyToken == "" {
		idempotencyToken = uuid.New().String()
	}

	if _, err := uuid.Parse(idempotencyToken); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "idempotency_token must be a valid UUID"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()

	job, err := h.importService.StartImport(c.Request.Context(), service.ImportRequest{
		PeriodID:         periodID,
		Group:            domain.DatasetGroup(group),
		Mode:             domain.ImportMode(mode),
		SkipInvalid:      skipInvalid,
		SheetName:        c.PostForm("sheet_name"),
		Mapping:          mapping,
		IdempotencyToken: idempotencyToken,
		Filename:         header.Filename,
		RequestID:        middleware.GetRequestID(c),
		Reader:           file,
	})
	if err != nil {
		writeError(c, err, "failed to process import request")
		return
	}

	c.JSON(http.StatusAccepted, toImportJobResponse(job))
}

// jobID reads and checks the :id path parameter.
func jobID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a valid UUID"})
		return "", false
	}
	return id, true
}

// GetImport handles GET /api/v1/imports/:id
func (h *ImportHandler) GetImport(c *gin.Context) {
	id, ok := jobID(c)
	if !ok {
		return
	}

	job, err := h.importService.GetImportJob(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "failed to retrieve import job")
		return
	}

	c.JSON(http.StatusOK, toImportJobResponse(job))
}

// GetProgress handles GET /api/v1/imports/:id/progress
func (h *ImportHandler) GetProgress(c *gin.Context) {
	id, ok := jobID(c)
	if !ok {
		return
	}

	progress, err := h.importService.GetProgress(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "failed to retrieve import progress")
		return
	}

	c.JSON(http.StatusOK, ProgressResponse{ImportProgress: *progress, Percent: progress.Percent()})
}

// StreamProgress handles GET /api/v1/imports/:id/progress/stream as
// server-sent events, one "progress" event per change.
func (h *ImportHandler) StreamProgress(c *gin.Context) {
	id, ok := jobID(c)
	if !ok {
		return
	}

	updates, err := h.importService.WatchProgress(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "failed to watch import progress")
		return
	}

	// A stream lives as long as the import; writers that cannot drop the
	// server write deadline keep it.
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		snap, ok := <-updates
		if !ok {
			return false
		}
		c.SSEvent("progress", ProgressResponse{ImportProgress: snap, Percent: snap.Percent()})
		return !snap.Phase.IsTerminal()
	})
}

// CancelImport handles POST /api/v1/imports/:id/cancel
func (h *ImportHandler) CancelImport(c *gin.Context) {
	id, ok := jobID(c)
	if !ok {
		return
	}

	job, err := h.importService.CancelImport(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "failed to cancel import job")
		return
	}

	c.JSON(http.StatusAccepted, toImportJobResponse(job))
}

// RollbackImport handles POST /api/v1/imports/:id/rollback
func (h *ImportHandler) RollbackImport(c *gin.Context) {
	id, ok := jobID(c)
	if !ok {
		return
	}

	var req RollbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rollback_token is required"})
		return
	}

	job, err := h.importService.RollbackImport(c.Request.Context(), id, req.RollbackToken)
	if err != nil {
		writeError(c, err, "failed to roll back import job")
		return
	}

	c.JSON(http.StatusOK, toImportJobResponse(job))
}

// Preview handles POST /api/v1/previews
func (h *ImportHandler) Preview(c *gin.Context) {
	group := c.PostForm("dataset_group")
	if !domain.IsValidGroup(group) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dataset_group must be one of: earnings, bases, job, category"})
		return
	}

	mode := c.PostForm("mode")
	if mode != "" && !domain.IsValidMatchMode(mode) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be one of: one_to_one, one_to_many, many_to_one, many_to_many"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()

	preview, err := h.importService.Preview(c.Request.Context(), service.PreviewRequest{
		Group:     domain.DatasetGroup(group),
		Mode:      domain.MatchMode(mode),
		SheetName: c.PostForm("sheet_name"),
		Filename:  header.Filename,
		RequestID: middleware.GetRequestID(c),
		Reader:    file,
	})
	if err != nil {
		writeError(c, err, "failed to preview workbook")
		return
	}

	c.JSON(http.StatusOK, preview)
}

// ListGroups handles GET /api/v1/catalog
func (h *ImportHandler) ListGroups(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"groups": catalog.Groups()})
}

// Catalog handles GET /api/v1/catalog/:group?q=
func (h *ImportHandler) Catalog(c *gin.Context) {
	group := c.Param("group")
	if !domain.IsValidGroup(group) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown dataset group"})
		return
	}

	fields, err := h.importService.Catalog(c.Request.Context(), domain.DatasetGroup(group), c.Query("q"))
	if err != nil {
		writeError(c, err, "failed to load field catalog")
		return
	}

	response := CatalogResponse{DatasetGroup: group, Fields: fields}
	for _, g := range catalog.Groups() {
		if string(g.Group) == group {
			response.DisplayName = g.DisplayName
			response.SheetAliases = g.SheetAliases
		}
	}
	c.JSON(http.StatusOK, response)
}
