package models

import "time"

// LifecycleState tracks a comment through the annotation workflow.
type LifecycleState string

const (
	CommentStateNew           LifecycleState = "new"
	CommentStateEditing       LifecycleState = "editing"
	CommentStateSaved         LifecycleState = "saved"
	CommentStateRepositioning LifecycleState = "repositioning"
)

// Comment wire statuses.
const (
	CommentStatusOpen = "open"
	CommentStatusDone = "done"
)

// Comment is a positional annotation anchored to one version and one media slot.
type Comment struct {
	ID         string         `json:"id" db:"id"`
	VersionID  string         `json:"versionId" db:"submission_id"`
	MediaIndex int            `json:"mediaIndex" db:"media_index"`
	X          float64        `json:"x" db:"x"`
	Y          float64        `json:"y" db:"y"`
	Text       string         `json:"text" db:"body"`
	AuthorID   string         `json:"authorId,omitempty" db:"author_id"`
	Timestamp  time.Time      `json:"timestamp" db:"created_at"`
	Done       bool           `json:"done" db:"done"`
	Revision   int            `json:"revision" db:"revision"`
	State      LifecycleState `json:"lifecycleState" db:"-"`

	// IsNew is true until the comment has been accepted by the remote store once.
	IsNew bool `json:"isNew" db:"-"`
	// Draft holds the open editor buffer.
	Draft string `json:"draft,omitempty" db:"-"`
}

// Active reports whether the comment holds the viewer's single interaction slot.
func (c *Comment) Active() bool {
	switch c.State {
	case CommentStateNew, CommentStateEditing, CommentStateRepositioning:
		return true
	}
	return false
}

// Clone returns a shallow copy safe to mutate.
func (c *Comment) Clone() *Comment {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// CloneComments copies every comment of a list.
func CloneComments(comments []*Comment) []*Comment {
	if comments == nil {
		return nil
	}
	clones := make([]*Comment, len(comments))
	for i, c := range comments {
		clones[i] = c.Clone()
	}
	return clones
}

// Position is the anchor of a comment on the media surface.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CommentPayload is the wire shape used for remote create and update calls.
type CommentPayload struct {
	Comment    string   `json:"comment"`
	Position   Position `json:"position"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	MediaIndex int      `json:"mediaIndex"`
	Status     string   `json:"status"`
	Revision   int      `json:"revision,omitempty"`
}

// PayloadFor builds the remote payload for a comment using the given text.
func PayloadFor(c *Comment, text string) CommentPayload {
	status := CommentStatusOpen
	if c.Done {
		status = CommentStatusDone
	}
	return CommentPayload{
		Comment:    text,
		Position:   Position{X: c.X, Y: c.Y},
		X:          c.X,
		Y:          c.Y,
		MediaIndex: c.MediaIndex,
		Status:     status,
		Revision:   c.Revision,
	}
}
