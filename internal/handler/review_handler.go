package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/content-review-api/internal/dto"
	"github.com/noah-isme/content-review-api/internal/models"
	"github.com/noah-isme/content-review-api/internal/service"
	appErrors "github.com/noah-isme/content-review-api/pkg/errors"
	"github.com/noah-isme/content-review-api/pkg/response"
)

type workspaceRegistry interface {
	Get(session models.Session) (*service.ReviewWorkspace, error)
}

// ReviewHandler exposes the per-viewer review workspace.
type ReviewHandler struct {
	registry workspaceRegistry
}

// NewReviewHandler builds a new handler.
func NewReviewHandler(registry workspaceRegistry) *ReviewHandler {
	return &ReviewHandler{registry: registry}
}

func (h *ReviewHandler) workspace(c *gin.Context) (*service.ReviewWorkspace, bool) {
	session, ok := sessionFromContext(c)
	if !ok {
		return nil, false
	}
	ws, err := h.registry.Get(session)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	if !ws.Loaded() {
		if err := ws.Refresh(c.Request.Context()); err != nil {
			response.Error(c, err)
			return nil, false
		}
	}
	return ws, true
}

func renderWidth(c *gin.Context) float64 {
	width, err := strconv.ParseFloat(c.Query("width"), 64)
	if err != nil {
		return 0
	}
	return width
}

// View godoc
// @Summary Current review workspace
// @Tags Review
// @Produce json
// @Param width query number false "Rendered media width in pixels"
// @Success 200 {object} response.Envelope
// @Router /review [get]
func (h *ReviewHandler) View(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, ws.View(renderWidth(c)))
}

// Refresh godoc
// @Summary Refetch and rebuild the submission tree
// @Tags Review
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /review/refresh [post]
func (h *ReviewHandler) Refresh(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	if err := ws.Refresh(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ws.View(renderWidth(c)))
}

// Select godoc
// @Summary Select assignment, version and media
// @Tags Review
// @Accept json
// @Produce json
// @Param payload body dto.SelectRequest true "Selection"
// @Success 200 {object} response.Envelope
// @Router /review/select [post]
func (h *ReviewHandler) Select(c *gin.Context) {
	var req dto.SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid selection payload"))
		return
	}
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	if _, err := ws.Select(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ws.View(renderWidth(c)))
}

// Click godoc
// @Summary Click on the media surface
// @Tags Review
// @Accept json
// @Produce json
// @Param payload body dto.ClickRequest true "Click position"
// @Success 200 {object} response.Envelope
// @Router /review/click [post]
func (h *ReviewHandler) Click(c *gin.Context) {
	var req dto.ClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid click payload"))
		return
	}
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	result, err := ws.Click(c.Request.Context(), req.X, req.Y)
	respondMutation(c, http.StatusOK, dto.ClickResponse{Action: string(result.Action), Comment: result.Comment}, err)
}

// UpdateStatus godoc
// @Summary Patch the selected version's review status
// @Tags Review
// @Accept json
// @Produce json
// @Param payload body dto.UpdateVersionStatusRequest true "Status"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /review/status [patch]
func (h *ReviewHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateVersionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	if err := ws.SetVersionStatus(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ws.View(renderWidth(c)))
}

// Edit godoc
// @Summary Open the editor on a comment
// @Tags Review
// @Produce json
// @Param id path string true "Comment ID"
// @Success 200 {object} response.Envelope
// @Router /review/comments/{id}/edit [post]
func (h *ReviewHandler) Edit(c *gin.Context) {
	h.localOp(c, func(ws *service.ReviewWorkspace, id string) (*models.Comment, error) {
		return ws.Edit(id)
	})
}

// StartReposition godoc
// @Summary Arm a comment so the next click moves it
// @Tags Review
// @Produce json
// @Param id path string true "Comment ID"
// @Success 200 {object} response.Envelope
// @Router /review/comments/{id}/reposition [post]
func (h *ReviewHandler) StartReposition(c *gin.Context) {
	h.localOp(c, func(ws *service.ReviewWorkspace, id string) (*models.Comment, error) {
		return ws.StartReposition(id)
	})
}

// Cancel godoc
// @Summary Close the editor of a comment
// @Tags Review
// @Param id path string true "Comment ID"
// @Success 204
// @Router /review/comments/{id}/cancel [post]
func (h *ReviewHandler) Cancel(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	if err := ws.Cancel(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Submit godoc
// @Summary Save the editor text of a comment
// @Tags Review
// @Accept json
// @Produce json
// @Param id path string true "Comment ID"
// @Param payload body dto.SubmitCommentRequest true "Comment text"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /review/comments/{id}/submit [post]
func (h *ReviewHandler) Submit(c *gin.Context) {
	var req dto.SubmitCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid comment payload"))
		return
	}
	h.remoteOp(c, func(ctx context.Context, ws *service.ReviewWorkspace, id string) (*models.Comment, error) {
		return ws.Submit(ctx, id, req.Text)
	})
}

// MarkDone godoc
// @Summary Mark a comment as done
// @Tags Review
// @Produce json
// @Param id path string true "Comment ID"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /review/comments/{id}/done [post]
func (h *ReviewHandler) MarkDone(c *gin.Context) {
	h.remoteOp(c, func(ctx context.Context, ws *service.ReviewWorkspace, id string) (*models.Comment, error) {
		return ws.MarkDone(ctx, id)
	})
}

// Delete godoc
// @Summary Delete a comment
// @Tags Review
// @Param id path string true "Comment ID"
// @Success 204
// @Success 202 {object} response.Envelope
// @Router /review/comments/{id} [delete]
func (h *ReviewHandler) Delete(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	if err := ws.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondMutation(c, http.StatusOK, nil, err)
		return
	}
	response.NoContent(c)
}

func (h *ReviewHandler) localOp(c *gin.Context, op func(ws *service.ReviewWorkspace, id string) (*models.Comment, error)) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	comment, err := op(ws, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, comment)
}

func (h *ReviewHandler) remoteOp(c *gin.Context, op func(ctx context.Context, ws *service.ReviewWorkspace, id string) (*models.Comment, error)) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	comment, err := op(c.Request.Context(), ws, c.Param("id"))
	respondMutation(c, http.StatusOK, comment, err)
}
