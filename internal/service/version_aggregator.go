package service

import (
	"fmt"
	"sort"

	"github.com/noah-isme/content-review-api/internal/models"
	appErrors "github.com/noah-isme/content-review-api/pkg/errors"
)

// AggregateVersions groups flat submission records into one ContentSubmission per assignment.
// Versions are ordered by creation time (ties keep input order) and numbered from 1. The first
// version supplies the assignment identity fields.
//
// A record without a timestamp fails the whole aggregation: a partial list would misnumber
// versions, so the result is empty instead.
func AggregateVersions(records []models.SubmissionRecord) ([]*models.ContentSubmission, error) {
	for i := range records {
		if records[i].CreatedAt.IsZero() {
			return []*models.ContentSubmission{}, appErrors.Wrap(
				fmt.Errorf("record %d (%s) has no creation timestamp", i, records[i].ID),
				appErrors.ErrAggregationFailed.Code, appErrors.ErrAggregationFailed.Status, appErrors.ErrAggregationFailed.Message)
		}
	}

	order := make([]string, 0)
	groups := make(map[string][]models.SubmissionRecord)
	for _, record := range records {
		key := record.AssignmentID
		if key == "" {
			key = record.ID
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], record)
	}

	submissions := make([]*models.ContentSubmission, 0, len(order))
	for _, key := range order {
		group := groups[key]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].CreatedAt.Before(group[j].CreatedAt)
		})
		first := group[0]
		submission := &models.ContentSubmission{
			AssignmentID:  key,
			Title:         first.Title,
			CustomerID:    first.CustomerID,
			CustomerName:  first.CustomerName,
			CustomerEmail: first.CustomerEmail,
			Platform:      first.Platform,
			Status:        first.Status,
			Versions:      make([]*models.Version, 0, len(group)),
		}
		for i, record := range group {
			submission.Versions = append(submission.Versions, buildVersion(record, i+1))
		}
		submission.TotalVersions = len(submission.Versions)
		submissions = append(submissions, submission)
	}

	// Most recently active assignments first; ties keep first-appearance order.
	sort.SliceStable(submissions, func(i, j int) bool {
		return submissions[i].LatestVersion().CreatedAt.After(submissions[j].LatestVersion().CreatedAt)
	})
	return submissions, nil
}

// Aggregate decodes a raw submission list and aggregates it, failing closed on malformed input.
func Aggregate(raw []byte) ([]*models.ContentSubmission, error) {
	records, err := DecodeSubmissionRecords(raw)
	if err != nil {
		return []*models.ContentSubmission{}, err
	}
	return AggregateVersions(records)
}

func buildVersion(record models.SubmissionRecord, number int) *models.Version {
	media := record.Media
	if media == nil {
		media = []models.MediaItem{}
	}
	version := &models.Version{
		ID:            record.ID,
		VersionNumber: number,
		Media:         media,
		Caption:       record.Caption,
		Notes:         record.Notes,
		CreatedAt:     record.CreatedAt,
		Status:        record.Status,
		Comments:      make([]*models.Comment, 0, len(record.Comments)),
	}
	for i := range record.Comments {
		comment := record.Comments[i]
		comment.VersionID = record.ID
		if comment.State == "" {
			comment.State = models.CommentStateSaved
		}
		comment.IsNew = false
		version.Comments = append(version.Comments, &comment)
	}
	return version
}

// FindSubmission locates an assignment by id.
func FindSubmission(tree []*models.ContentSubmission, assignmentID string) (*models.ContentSubmission, int) {
	for i, submission := range tree {
		if submission.AssignmentID == assignmentID {
			return submission, i
		}
	}
	return nil, -1
}
