package service

import "github.com/noah-isme/content-review-api/internal/models"

// RestoreSelection re-resolves a selection against a freshly rebuilt tree. The assignment is
// matched by id; version and media indices are kept as-is and clamped into range. A selection
// whose assignment disappeared becomes empty.
func RestoreSelection(prev models.Selection, tree []*models.ContentSubmission) models.Selection {
	if prev.Empty() {
		return models.Selection{}
	}
	submission, _ := FindSubmission(tree, prev.AssignmentID)
	if submission == nil {
		return models.Selection{}
	}
	return clampSelection(models.Selection{
		AssignmentID: submission.AssignmentID,
		VersionIndex: prev.VersionIndex,
		MediaIndex:   prev.MediaIndex,
	}, submission)
}

// SelectedVersion returns the version a selection points at, or nil.
func SelectedVersion(tree []*models.ContentSubmission, sel models.Selection) *models.Version {
	if sel.Empty() {
		return nil
	}
	submission, _ := FindSubmission(tree, sel.AssignmentID)
	if submission == nil || sel.VersionIndex < 0 || sel.VersionIndex >= len(submission.Versions) {
		return nil
	}
	return submission.Versions[sel.VersionIndex]
}

func clampSelection(sel models.Selection, submission *models.ContentSubmission) models.Selection {
	sel.VersionIndex = clampIndex(sel.VersionIndex, len(submission.Versions))
	if len(submission.Versions) == 0 {
		sel.MediaIndex = 0
		return sel
	}
	sel.MediaIndex = clampIndex(sel.MediaIndex, len(submission.Versions[sel.VersionIndex].Media))
	return sel
}

func clampIndex(i, n int) int {
	if n <= 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
