package models

// Selection addresses the (assignment, version, media) slice the viewer is looking at. The
// assignment id is the identity key; indices are positional.
type Selection struct {
	AssignmentID string `json:"assignmentId"`
	VersionIndex int    `json:"versionIndex"`
	MediaIndex   int    `json:"mediaIndex"`
}

// Empty reports whether nothing is selected.
func (s Selection) Empty() bool {
	return s.AssignmentID == ""
}

// FlyoutSide is the side of a marker a comment flyout opens on.
type FlyoutSide string

const (
	FlyoutLeft  FlyoutSide = "left"
	FlyoutRight FlyoutSide = "right"
)

// FlyoutPlacement describes where a comment flyout renders relative to its marker.
type FlyoutPlacement struct {
	Side          FlyoutSide `json:"side"`
	VerticalAlign string     `json:"verticalAlign"`
}
