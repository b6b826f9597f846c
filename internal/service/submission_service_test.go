package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/content-review-api/internal/dto"
	"github.com/noah-isme/content-review-api/internal/models"
	appErrors "github.com/noah-isme/content-review-api/pkg/errors"
)

type recordStoreStub struct {
	records   []models.SubmissionRecord
	err       error
	statusErr error
	updated   map[string]string
}

func (s *recordStoreStub) ListRecords(context.Context) ([]models.SubmissionRecord, error) {
	return s.records, s.err
}

func (s *recordStoreStub) UpdateStatus(_ context.Context, versionID, status string) error {
	if s.statusErr != nil {
		return s.statusErr
	}
	if s.updated == nil {
		s.updated = make(map[string]string)
	}
	s.updated[versionID] = status
	return nil
}

type feedStub struct {
	events []models.PublishEvent
	err    error
}

func (f *feedStub) Events(context.Context) ([]models.PublishEvent, error) {
	return f.events, f.err
}

func listingRecords() []models.SubmissionRecord {
	return []models.SubmissionRecord{
		{ID: "1", AssignmentID: "a", CreatedAt: day(1), Platform: "instagram"},
		{ID: "2", AssignmentID: "b", CreatedAt: day(2), Platform: "TikTok", Status: "rejected"},
		{ID: "3", AssignmentID: "c", CreatedAt: day(3), Platform: "tiktok"},
	}
}

func TestSubmissionServiceListFilters(t *testing.T) {
	store := &recordStoreStub{records: listingRecords()}
	feed := &feedStub{events: []models.PublishEvent{{ItemID: "c", Status: "Published"}}}
	svc := NewSubmissionService(store, feed, nil, nil)

	all, err := svc.List(context.Background(), dto.SubmissionQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].AssignmentID)
	assert.Equal(t, models.DisplayStatusPublished, all[0].DisplayStatus)

	tiktok, err := svc.List(context.Background(), dto.SubmissionQuery{Platform: "tiktok"})
	require.NoError(t, err)
	assert.Len(t, tiktok, 2)

	rejected, err := svc.List(context.Background(), dto.SubmissionQuery{Status: "rejected"})
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, "b", rejected[0].AssignmentID)

	_, err = svc.List(context.Background(), dto.SubmissionQuery{Status: "lost"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSubmissionServiceFeedOutageDegrades(t *testing.T) {
	store := &recordStoreStub{records: listingRecords()}
	svc := NewSubmissionService(store, &feedStub{err: errors.New("feed down")}, nil, nil)

	view, err := svc.Get(context.Background(), "c")
	require.NoError(t, err)
	assert.Equal(t, models.DisplayStatusUnderReview, view.DisplayStatus)

	_, err = svc.Get(context.Background(), "nope")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSubmissionServiceLoadFailsClosed(t *testing.T) {
	store := &recordStoreStub{err: errors.New("timeout")}
	svc := NewSubmissionService(store, nil, nil, nil)
	_, err := svc.Load(context.Background())
	assert.Equal(t, appErrors.ErrAggregationFailed.Code, appErrors.FromError(err).Code)

	store.err = nil
	store.records = []models.SubmissionRecord{{ID: "x"}}
	_, err = svc.Load(context.Background())
	assert.Equal(t, appErrors.ErrAggregationFailed.Code, appErrors.FromError(err).Code)
}

func TestSubmissionServiceUpdateVersionStatus(t *testing.T) {
	store := &recordStoreStub{}
	svc := NewSubmissionService(store, nil, nil, nil)

	require.NoError(t, svc.UpdateVersionStatus(context.Background(), "v1", "changes_requested"))
	assert.Equal(t, "changes_requested", store.updated["v1"])

	err := svc.UpdateVersionStatus(context.Background(), "v1", "published")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	store.statusErr = errors.New("boom")
	err = svc.UpdateVersionStatus(context.Background(), "v1", "approved")
	assert.Equal(t, appErrors.ErrMutationFailed.Code, appErrors.FromError(err).Code)
}
