package service

import (
	"strings"

	"github.com/noah-isme/content-review-api/internal/models"
)

// PublishIndex is the set of identifiers with at least one live publish event.
//
// Upstream producers key events by assignment id, content id or item id interchangeably; every
// one of them is accepted as a join key against the assignment id.
type PublishIndex map[string]struct{}

// NewPublishIndex indexes the published keys of a publish-event feed.
func NewPublishIndex(events []models.PublishEvent) PublishIndex {
	index := make(PublishIndex, len(events))
	for _, event := range events {
		if !eventIsPublished(event) {
			continue
		}
		for _, key := range event.Keys() {
			index[key] = struct{}{}
		}
	}
	return index
}

// Published reports whether the assignment has a live publish event.
func (p PublishIndex) Published(assignmentID string) bool {
	if assignmentID == "" {
		return false
	}
	_, ok := p[assignmentID]
	return ok
}

// Resolve computes the display status for a submission against the indexed feed.
//
// Precedence: a publish event always wins, then the latest version's status, then the
// assignment's own status, then under_review.
func (p PublishIndex) Resolve(submission *models.ContentSubmission) models.DisplayStatus {
	if submission == nil {
		return models.DisplayStatusUnderReview
	}
	if p.Published(submission.AssignmentID) {
		return models.DisplayStatusPublished
	}
	if latest := submission.LatestVersion(); latest != nil {
		if status := normalizeStatus(latest.Status); status != "" {
			return status
		}
	}
	if status := normalizeStatus(submission.Status); status != "" {
		return status
	}
	return models.DisplayStatusUnderReview
}

// ResolveStatus computes the display status of one submission.
func ResolveStatus(submission *models.ContentSubmission, events []models.PublishEvent) models.DisplayStatus {
	return NewPublishIndex(events).Resolve(submission)
}

// ResolveAll pairs every submission with its display status.
func ResolveAll(tree []*models.ContentSubmission, events []models.PublishEvent) []models.SubmissionView {
	return NewPublishIndex(events).Views(tree)
}

// Views pairs every submission with its display status against the indexed feed.
func (p PublishIndex) Views(tree []*models.ContentSubmission) []models.SubmissionView {
	views := make([]models.SubmissionView, 0, len(tree))
	for _, submission := range tree {
		views = append(views, models.SubmissionView{ContentSubmission: submission, DisplayStatus: p.Resolve(submission)})
	}
	return views
}

func eventIsPublished(event models.PublishEvent) bool {
	if strings.EqualFold(strings.TrimSpace(event.Status), string(models.DisplayStatusPublished)) {
		return true
	}
	return event.PublishedAt != nil && !event.PublishedAt.IsZero()
}

func normalizeStatus(raw string) models.DisplayStatus {
	return models.DisplayStatus(strings.ToLower(strings.TrimSpace(raw)))
}
