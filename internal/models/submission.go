package models

import "time"

// MediaKind classifies a media item for rendering.
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// MediaItem is a normalized media entry. Its position inside Version.Media is the media index
// comments anchor to.
type MediaItem struct {
	URL  string    `json:"url"`
	Kind MediaKind `json:"kind"`
}

// SubmissionRecord is one canonical upstream submission row; each record becomes one version.
type SubmissionRecord struct {
	ID            string      `json:"id"`
	AssignmentID  string      `json:"assignmentId"`
	CreatedAt     time.Time   `json:"createdAt"`
	Title         string      `json:"title"`
	Caption       string      `json:"caption"`
	Notes         string      `json:"notes"`
	Media         []MediaItem `json:"media"`
	Comments      []Comment   `json:"comments"`
	Status        string      `json:"status"`
	CustomerID    string      `json:"customerId"`
	CustomerName  string      `json:"customerName"`
	CustomerEmail string      `json:"customerEmail"`
	Platform      string      `json:"platform"`
}

// Version is one submitted iteration of an assignment. VersionNumber is derived from the
// chronological rank inside the assignment and is never stored upstream.
type Version struct {
	ID            string      `json:"id"`
	VersionNumber int         `json:"versionNumber"`
	Media         []MediaItem `json:"media"`
	Caption       string      `json:"caption"`
	Notes         string      `json:"notes"`
	CreatedAt     time.Time   `json:"createdAt"`
	Status        string      `json:"status,omitempty"`
	Comments      []*Comment  `json:"comments"`
}

// Clone returns a deep copy detached from the live tree.
func (v *Version) Clone() *Version {
	if v == nil {
		return nil
	}
	clone := *v
	clone.Media = append([]MediaItem(nil), v.Media...)
	clone.Comments = CloneComments(v.Comments)
	return &clone
}

// ContentSubmission groups every version of an assignment. Status holds the raw upstream value
// and is superseded by the resolved display status.
type ContentSubmission struct {
	AssignmentID  string     `json:"assignmentId"`
	Title         string     `json:"title"`
	CustomerID    string     `json:"customerId"`
	CustomerName  string     `json:"customerName"`
	CustomerEmail string     `json:"customerEmail"`
	Platform      string     `json:"platform"`
	Status        string     `json:"-"`
	Versions      []*Version `json:"versions"`
	TotalVersions int        `json:"totalVersions"`
}

// LatestVersion returns the most recent version or nil.
func (s *ContentSubmission) LatestVersion() *Version {
	if s == nil || len(s.Versions) == 0 {
		return nil
	}
	return s.Versions[len(s.Versions)-1]
}

// Clone returns a deep copy detached from the live tree.
func (s *ContentSubmission) Clone() *ContentSubmission {
	if s == nil {
		return nil
	}
	clone := *s
	clone.Versions = make([]*Version, len(s.Versions))
	for i, v := range s.Versions {
		clone.Versions[i] = v.Clone()
	}
	return &clone
}

// SubmissionView pairs a submission with its resolved display status.
type SubmissionView struct {
	*ContentSubmission
	DisplayStatus DisplayStatus `json:"status"`
}

// SubmissionFilter narrows listing of aggregated submissions.
type SubmissionFilter struct {
	Status   DisplayStatus
	Platform string
}
