package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/content-review-api/internal/dto"
	"github.com/noah-isme/content-review-api/internal/models"
	"github.com/noah-isme/content-review-api/internal/service"
	appErrors "github.com/noah-isme/content-review-api/pkg/errors"
	"github.com/noah-isme/content-review-api/pkg/response"
)

type submissionLister interface {
	List(ctx context.Context, query dto.SubmissionQuery) ([]models.SubmissionView, error)
}

type annotationExporter interface {
	ExportAnnotations(ctx context.Context, assignmentID string, format service.ExportFormat) (*service.ExportResult, error)
}

// SubmissionHandler lists aggregated submissions and exports their annotations.
type SubmissionHandler struct {
	submissions submissionLister
	exports     annotationExporter
}

// NewSubmissionHandler constructs the handler. exports may be nil when exports are disabled.
func NewSubmissionHandler(submissions submissionLister, exports annotationExporter) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, exports: exports}
}

// List godoc
// @Summary List aggregated submissions
// @Tags Submissions
// @Produce json
// @Param status query string false "Display status"
// @Param platform query string false "Platform"
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /submissions [get]
func (h *SubmissionHandler) List(c *gin.Context) {
	var query dto.SubmissionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	views, err := h.submissions.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, map[string]interface{}{"total": len(views)})
}

// Export godoc
// @Summary Export the annotations of an assignment
// @Tags Submissions
// @Produce octet-stream
// @Param assignmentId path string true "Assignment ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /submissions/{assignmentId}/export [get]
func (h *SubmissionHandler) Export(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "exports are disabled"))
		return
	}
	result, err := h.exports.ExportAnnotations(c.Request.Context(), c.Param("assignmentId"), service.ExportFormat(c.Query("format")))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
