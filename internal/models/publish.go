package models

import "time"

// DisplayStatus is the single status shown to users for a submission.
type DisplayStatus string

const (
	DisplayStatusPublished        DisplayStatus = "published"
	DisplayStatusUnderReview      DisplayStatus = "under_review"
	DisplayStatusApproved         DisplayStatus = "approved"
	DisplayStatusChangesRequested DisplayStatus = "changes_requested"
	DisplayStatusRejected         DisplayStatus = "rejected"
)

// PublishEvent is an external record that a piece of content went live. Upstream producers
// disagree on the identifier field, so all three are carried.
type PublishEvent struct {
	AssignmentID string     `json:"assignmentId,omitempty" db:"assignment_id"`
	ContentID    string     `json:"contentId,omitempty" db:"content_id"`
	ItemID       string     `json:"item_id,omitempty" db:"item_id"`
	Status       string     `json:"status" db:"status"`
	PublishedAt  *time.Time `json:"publishedAt,omitempty" db:"published_at"`
}

// Keys returns the non-empty join keys carried by the event.
func (e PublishEvent) Keys() []string {
	keys := make([]string, 0, 3)
	for _, k := range []string{e.AssignmentID, e.ContentID, e.ItemID} {
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
