package dto

import "github.com/noah-isme/content-review-api/internal/models"

// SelectRequest moves the viewer to an assignment, version and media slot.
type SelectRequest struct {
	AssignmentID string `json:"assignmentId" validate:"required"`
	VersionIndex int    `json:"versionIndex" validate:"min=0"`
	MediaIndex   int    `json:"mediaIndex" validate:"min=0"`
}

// ClickRequest is a click on the media surface, in pixels relative to the rendered media.
type ClickRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SubmitCommentRequest carries the editor text.
type SubmitCommentRequest struct {
	Text string `json:"text"`
}

// UpdateVersionStatusRequest patches the selected version's review status.
type UpdateVersionStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=approved changes_requested rejected under_review"`
}

// SubmissionQuery mirrors listing filters.
type SubmissionQuery struct {
	Status   string `form:"status" validate:"omitempty,oneof=published under_review approved changes_requested rejected"`
	Platform string `form:"platform"`
}

// Filter converts the query into a model filter.
func (q SubmissionQuery) Filter() models.SubmissionFilter {
	return models.SubmissionFilter{Status: models.DisplayStatus(q.Status), Platform: q.Platform}
}

// ReviewView is the workspace snapshot returned to clients.
type ReviewView struct {
	Selection  models.Selection                  `json:"selection"`
	Submission *models.SubmissionView            `json:"submission,omitempty"`
	Version    *models.Version                   `json:"version,omitempty"`
	Media      *models.MediaItem                 `json:"media,omitempty"`
	Comments   []*models.Comment                 `json:"comments"`
	Active     *models.Comment                   `json:"active,omitempty"`
	Placements map[string]models.FlyoutPlacement `json:"placements"`
	Policy     string                            `json:"failurePolicy"`
}

// ClickResponse reports how a click was consumed.
type ClickResponse struct {
	Action  string          `json:"action"`
	Comment *models.Comment `json:"comment,omitempty"`
}
