package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/content-review-api/internal/dto"
	"github.com/noah-isme/content-review-api/internal/models"
	appErrors "github.com/noah-isme/content-review-api/pkg/errors"
)

type submissionRecordStore interface {
	ListRecords(ctx context.Context) ([]models.SubmissionRecord, error)
	UpdateStatus(ctx context.Context, versionID, status string) error
}

type publishEventSource interface {
	Events(ctx context.Context) ([]models.PublishEvent, error)
}

// SubmissionSnapshot is one rebuilt submission tree with the publish index it was resolved against.
type SubmissionSnapshot struct {
	Tree     []*models.ContentSubmission
	Index    PublishIndex
	LoadedAt time.Time
}

// Views resolves the display status of every submission in the snapshot.
func (s *SubmissionSnapshot) Views() []models.SubmissionView {
	return s.Index.Views(s.Tree)
}

// SubmissionService fetches raw records and the publish feed and rebuilds the submission tree.
type SubmissionService struct {
	store     submissionRecordStore
	feed      publishEventSource
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewSubmissionService constructs the service. feed may be nil when no publish feed is wired.
func NewSubmissionService(store submissionRecordStore, feed publishEventSource, validate *validator.Validate, logger *zap.Logger) *SubmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{store: store, feed: feed, validator: validate, logger: logger, now: time.Now}
}

// Load refetches and re-aggregates everything. A malformed record list fails closed; an
// unavailable publish feed only degrades status resolution.
func (s *SubmissionService) Load(ctx context.Context) (*SubmissionSnapshot, error) {
	records, err := s.store.ListRecords(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrAggregationFailed.Code, appErrors.ErrAggregationFailed.Status, appErrors.ErrAggregationFailed.Message)
	}
	tree, err := AggregateVersions(records)
	if err != nil {
		s.logger.Warn("submission aggregation failed", zap.Int("records", len(records)), zap.Error(err))
		return nil, err
	}
	return &SubmissionSnapshot{Tree: tree, Index: NewPublishIndex(s.events(ctx)), LoadedAt: s.now().UTC()}, nil
}

func (s *SubmissionService) events(ctx context.Context) []models.PublishEvent {
	if s.feed == nil {
		return nil
	}
	events, err := s.feed.Events(ctx)
	if err != nil {
		s.logger.Warn("publish feed unavailable, resolving without it", zap.Error(err))
		return nil
	}
	return events
}

// List returns aggregated submissions with their display status, filtered by the query.
func (s *SubmissionService) List(ctx context.Context, query dto.SubmissionQuery) ([]models.SubmissionView, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid filter")
	}
	snapshot, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return FilterSubmissions(snapshot.Views(), query.Filter()), nil
}

// Get returns one aggregated submission.
func (s *SubmissionService) Get(ctx context.Context, assignmentID string) (*models.SubmissionView, error) {
	snapshot, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	submission, _ := FindSubmission(snapshot.Tree, assignmentID)
	if submission == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
	}
	return &models.SubmissionView{ContentSubmission: submission, DisplayStatus: snapshot.Index.Resolve(submission)}, nil
}

// UpdateVersionStatus patches the review status of one version upstream.
func (s *SubmissionService) UpdateVersionStatus(ctx context.Context, versionID, status string) error {
	req := dto.UpdateVersionStatusRequest{Status: status}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status")
	}
	if err := s.store.UpdateStatus(ctx, versionID, status); err != nil {
		return mutationCause(err)
	}
	return nil
}

// FilterSubmissions keeps views matching the filter. Empty filter fields match everything.
func FilterSubmissions(views []models.SubmissionView, filter models.SubmissionFilter) []models.SubmissionView {
	result := make([]models.SubmissionView, 0, len(views))
	for _, view := range views {
		if filter.Status != "" && view.DisplayStatus != filter.Status {
			continue
		}
		if filter.Platform != "" && !strings.EqualFold(view.Platform, filter.Platform) {
			continue
		}
		result = append(result, view)
	}
	return result
}
