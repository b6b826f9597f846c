package service

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/content-review-api/internal/dto"
	"github.com/noah-isme/content-review-api/internal/models"
	appErrors "github.com/noah-isme/content-review-api/pkg/errors"
)

type submissionLoader interface {
	Load(ctx context.Context) (*SubmissionSnapshot, error)
	UpdateVersionStatus(ctx context.Context, versionID, status string) error
}

// ReviewWorkspace is one viewer's review session: the rebuilt submission tree, the current
// selection and the annotation store bound to it. Every confirmed mutation triggers a full
// refetch-and-rebuild; the selection survives by assignment id.
type ReviewWorkspace struct {
	mu sync.Mutex

	session   models.Session
	loader    submissionLoader
	store     *AnnotationStore
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	threshold float64
	storeOpts []AnnotationStoreOption

	snapshot  *SubmissionSnapshot
	selection models.Selection
}

// ReviewWorkspaceOption configures a workspace.
type ReviewWorkspaceOption func(*ReviewWorkspace)

// WithWorkspaceMetrics records refresh and mutation metrics.
func WithWorkspaceMetrics(m *MetricsService) ReviewWorkspaceOption {
	return func(w *ReviewWorkspace) {
		w.metrics = m
	}
}

// WithFlyoutThreshold overrides the placement threshold used when media width is unknown.
func WithFlyoutThreshold(threshold float64) ReviewWorkspaceOption {
	return func(w *ReviewWorkspace) {
		if threshold > 0 {
			w.threshold = threshold
		}
	}
}

// WithAnnotationOptions forwards options to the annotation store.
func WithAnnotationOptions(opts ...AnnotationStoreOption) ReviewWorkspaceOption {
	return func(w *ReviewWorkspace) {
		w.storeOpts = append(w.storeOpts, opts...)
	}
}

// WithWorkspaceValidator shares a validator instance.
func WithWorkspaceValidator(v *validator.Validate) ReviewWorkspaceOption {
	return func(w *ReviewWorkspace) {
		if v != nil {
			w.validator = v
		}
	}
}

// NewReviewWorkspace builds an empty workspace for session. Call Refresh to load it.
func NewReviewWorkspace(session models.Session, loader submissionLoader, remote commentRemote, logger *zap.Logger, opts ...ReviewWorkspaceOption) *ReviewWorkspace {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &ReviewWorkspace{
		session:   session,
		loader:    loader,
		validator: validator.New(),
		logger:    logger.With(zap.String("user_id", session.UserID)),
		threshold: DefaultFlyoutThreshold,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	storeOpts := append([]AnnotationStoreOption{WithAnnotationMetrics(w.metrics)}, w.storeOpts...)
	// Store operations only run under w.mu, so the hook must not take the lock again.
	storeOpts = append(storeOpts, WithRefresh(w.refreshLocked))
	w.store = NewAnnotationStore(session, remote, w.logger, storeOpts...)
	return w
}

// Session returns the viewer the workspace belongs to.
func (w *ReviewWorkspace) Session() models.Session {
	return w.session
}

// Loaded reports whether a tree has been loaded at least once.
func (w *ReviewWorkspace) Loaded() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot != nil
}

// Refresh refetches and rebuilds the tree, then restores the selection. On failure the
// previous tree stays in place.
func (w *ReviewWorkspace) Refresh(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.refreshLocked(ctx)
}

func (w *ReviewWorkspace) refreshLocked(ctx context.Context) error {
	start := time.Now()
	snapshot, err := w.loader.Load(ctx)
	if err != nil {
		w.metrics.ObserveRefresh(false, time.Since(start))
		w.logger.Warn("review refresh failed", zap.Error(err))
		return err
	}

	draft := w.pendingDraft()
	w.snapshot = snapshot
	w.selection = RestoreSelection(w.selection, snapshot.Tree)
	version := SelectedVersion(snapshot.Tree, w.selection)
	if draft != nil && version != nil && version.ID == draft.VersionID {
		version.Comments = append(version.Comments, draft)
	}
	w.store.Bind(version, w.selection.MediaIndex)
	w.metrics.ObserveRefresh(true, time.Since(start))
	return nil
}

// pendingDraft returns an unsaved comment that exists only locally and would be lost by a rebuild.
func (w *ReviewWorkspace) pendingDraft() *models.Comment {
	active := w.store.Active()
	if active == nil || !active.IsNew || active.State != models.CommentStateNew {
		return nil
	}
	return active
}

// Select moves the viewer. Switching version closes any open interaction.
func (w *ReviewWorkspace) Select(ctx context.Context, req dto.SelectRequest) (models.Selection, error) {
	if err := w.validator.Struct(req); err != nil {
		return models.Selection{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid selection")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.ensureLoaded(ctx); err != nil {
		return w.selection, err
	}
	submission, _ := FindSubmission(w.snapshot.Tree, req.AssignmentID)
	if submission == nil {
		return w.selection, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
	}
	next := clampSelection(models.Selection{
		AssignmentID: submission.AssignmentID,
		VersionIndex: req.VersionIndex,
		MediaIndex:   req.MediaIndex,
	}, submission)

	version := SelectedVersion(w.snapshot.Tree, next)
	if active := w.store.Active(); active != nil && (version == nil || active.VersionID != version.ID) {
		if err := w.store.Cancel(active.ID); err != nil {
			return w.selection, err
		}
	}
	w.selection = next
	w.store.Bind(version, next.MediaIndex)
	return w.selection, nil
}

// Selection returns the current selection.
func (w *ReviewWorkspace) Selection() models.Selection {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selection
}

func (w *ReviewWorkspace) ensureLoaded(ctx context.Context) error {
	if w.snapshot != nil {
		return nil
	}
	return w.refreshLocked(ctx)
}

// Click forwards a media-surface click to the annotation store.
func (w *ReviewWorkspace) Click(ctx context.Context, x, y float64) (ClickResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	res, err := w.store.Click(ctx, x, y)
	res.Comment = res.Comment.Clone()
	return res, err
}

// Edit opens the editor on a comment.
func (w *ReviewWorkspace) Edit(id string) (*models.Comment, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return detached(w.store.Edit(id))
}

// Submit saves the editor text of a comment.
func (w *ReviewWorkspace) Submit(ctx context.Context, id, text string) (*models.Comment, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return detached(w.store.Submit(ctx, id, text))
}

// Cancel closes the editor of a comment.
func (w *ReviewWorkspace) Cancel(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.Cancel(id)
}

// MarkDone resolves a comment.
func (w *ReviewWorkspace) MarkDone(ctx context.Context, id string) (*models.Comment, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return detached(w.store.MarkDone(ctx, id))
}

// Delete removes a comment.
func (w *ReviewWorkspace) Delete(ctx context.Context, id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.Delete(ctx, id)
}

// StartReposition arms a comment for moving.
func (w *ReviewWorkspace) StartReposition(id string) (*models.Comment, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return detached(w.store.StartReposition(id))
}

// detached copies a comment out of the tree so callers can read it after the lock is released.
func detached(comment *models.Comment, err error) (*models.Comment, error) {
	return comment.Clone(), err
}

// SetVersionStatus patches the selected version's status. Published content cannot be
// approved again.
func (w *ReviewWorkspace) SetVersionStatus(ctx context.Context, req dto.UpdateVersionStatusRequest) error {
	if err := w.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	version := w.store.Version()
	if version == nil || w.snapshot == nil {
		return appErrors.ErrNoSelection
	}
	if req.Status == string(models.DisplayStatusApproved) && w.snapshot.Index.Published(w.selection.AssignmentID) {
		return appErrors.Clone(appErrors.ErrConflict, "content is already published")
	}
	if err := w.loader.UpdateVersionStatus(ctx, version.ID, req.Status); err != nil {
		w.logger.Warn("version status update failed", zap.String("version_id", version.ID), zap.Error(err))
		return err
	}
	return w.refreshLocked(ctx)
}

// Submissions lists the loaded tree with resolved statuses.
func (w *ReviewWorkspace) Submissions(filter models.SubmissionFilter) []models.SubmissionView {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.snapshot == nil {
		return []models.SubmissionView{}
	}
	views := FilterSubmissions(w.snapshot.Views(), filter)
	for i := range views {
		views[i].ContentSubmission = views[i].ContentSubmission.Clone()
	}
	return views
}

// View snapshots what the viewer sees. width is the rendered media width in pixels; zero or
// negative means it is not known yet. The result shares nothing with the live tree.
func (w *ReviewWorkspace) View(width float64) dto.ReviewView {
	w.mu.Lock()
	defer w.mu.Unlock()

	view := dto.ReviewView{
		Selection:  w.selection,
		Comments:   models.CloneComments(w.store.Comments()),
		Active:     w.store.Active().Clone(),
		Placements: make(map[string]models.FlyoutPlacement),
		Policy:     string(w.store.Policy()),
	}
	if w.snapshot != nil {
		if submission, _ := FindSubmission(w.snapshot.Tree, w.selection.AssignmentID); submission != nil {
			view.Submission = &models.SubmissionView{ContentSubmission: submission.Clone(), DisplayStatus: w.snapshot.Index.Resolve(submission)}
		}
	}
	if version := w.store.Version(); version != nil {
		view.Version = version.Clone()
		if w.selection.MediaIndex < len(version.Media) {
			media := version.Media[w.selection.MediaIndex]
			view.Media = &media
		}
	}
	for _, comment := range view.Comments {
		view.Placements[comment.ID] = PlaceFlyoutWithThreshold(comment.X, width, w.threshold)
	}
	return view
}
