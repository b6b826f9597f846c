package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/content-review-api/internal/models"
	appErrors "github.com/noah-isme/content-review-api/pkg/errors"
)

// FailurePolicy decides what happens to optimistic local state when a remote mutation fails.
type FailurePolicy string

const (
	// FailurePolicyLenient keeps the local change as the user's working truth.
	FailurePolicyLenient FailurePolicy = "lenient"
	// FailurePolicyStrict rolls the local change back.
	FailurePolicyStrict FailurePolicy = "strict"
)

// Mutation operations, used for logging, metrics and redelivery.
const (
	OpCreate     = "create"
	OpUpdate     = "update"
	OpDone       = "done"
	OpReposition = "reposition"
	OpDelete     = "delete"
)

// ClickAction reports how a click on the media surface was consumed.
type ClickAction string

const (
	ClickCreated      ClickAction = "created"
	ClickRepositioned ClickAction = "repositioned"
	ClickIgnored      ClickAction = "ignored"
)

type commentRemote interface {
	CreateComment(ctx context.Context, session models.Session, versionID, commentID string, payload models.CommentPayload) error
	UpdateComment(ctx context.Context, session models.Session, versionID, commentID string, payload models.CommentPayload) error
	DeleteComment(ctx context.Context, session models.Session, versionID, commentID string) error
}

// mutationRetrier accepts failed mutations for background redelivery.
type mutationRetrier interface {
	Enqueue(job MutationJob) error
}

// RefreshFunc rebuilds the submission tree after a confirmed mutation.
type RefreshFunc func(ctx context.Context) error

// MutationError reports a failed remote mutation. Kept tells whether the optimistic local change
// survived the failure.
type MutationError struct {
	Op        string
	CommentID string
	Kept      bool
	Err       error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s comment %s: %v", e.Op, e.CommentID, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

// ClickResult describes the outcome of a media-surface click.
type ClickResult struct {
	Action  ClickAction     `json:"action"`
	Comment *models.Comment `json:"comment,omitempty"`
}

// AnnotationStore owns the comments of the selected version for one viewer and drives their
// lifecycle. At most one comment holds the interaction slot (new, editing or repositioning).
type AnnotationStore struct {
	remote  commentRemote
	policy  FailurePolicy
	refresh RefreshFunc
	retrier mutationRetrier
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string

	session    models.Session
	version    *models.Version
	mediaIndex int
	active     *models.Comment
}

// AnnotationStoreOption configures the store.
type AnnotationStoreOption func(*AnnotationStore)

// WithFailurePolicy overrides the default lenient policy.
func WithFailurePolicy(policy FailurePolicy) AnnotationStoreOption {
	return func(s *AnnotationStore) {
		if policy == FailurePolicyStrict || policy == FailurePolicyLenient {
			s.policy = policy
		}
	}
}

// WithRefresh sets the hook run after every confirmed mutation.
func WithRefresh(fn RefreshFunc) AnnotationStoreOption {
	return func(s *AnnotationStore) {
		s.refresh = fn
	}
}

// WithMutationRetrier enables background redelivery of failed mutations under the lenient policy.
func WithMutationRetrier(r mutationRetrier) AnnotationStoreOption {
	return func(s *AnnotationStore) {
		s.retrier = r
	}
}

// WithAnnotationMetrics records mutation outcomes.
func WithAnnotationMetrics(m *MetricsService) AnnotationStoreOption {
	return func(s *AnnotationStore) {
		s.metrics = m
	}
}

// WithClock overrides the time source used for comment timestamps.
func WithClock(now func() time.Time) AnnotationStoreOption {
	return func(s *AnnotationStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides client-side comment id allocation.
func WithIDGenerator(fn func() string) AnnotationStoreOption {
	return func(s *AnnotationStore) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewAnnotationStore constructs a store for the given session.
func NewAnnotationStore(session models.Session, remote commentRemote, logger *zap.Logger, opts ...AnnotationStoreOption) *AnnotationStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AnnotationStore{
		remote:  remote,
		policy:  FailurePolicyLenient,
		logger:  logger,
		session: session,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Bind points the store at a version and media slot. Passing a nil version clears the binding.
func (s *AnnotationStore) Bind(version *models.Version, mediaIndex int) {
	s.version = version
	s.mediaIndex = mediaIndex
	if s.active == nil {
		return
	}
	current := s.find(s.active.ID)
	if current == nil {
		s.active = nil
		return
	}
	if current != s.active {
		// Rebuilt tree: carry the open interaction over to the fresh instance.
		current.State = s.active.State
		current.Draft = s.active.Draft
		s.active = current
	}
}

// Policy returns the active failure policy.
func (s *AnnotationStore) Policy() FailurePolicy {
	return s.policy
}

// Version returns the bound version.
func (s *AnnotationStore) Version() *models.Version {
	return s.version
}

// MediaIndex returns the bound media slot.
func (s *AnnotationStore) MediaIndex() int {
	return s.mediaIndex
}

// Active returns the comment holding the interaction slot, if any.
func (s *AnnotationStore) Active() *models.Comment {
	return s.active
}

// Comments returns the comments anchored to the bound media slot.
func (s *AnnotationStore) Comments() []*models.Comment {
	if s.version == nil {
		return []*models.Comment{}
	}
	return CommentsForMedia(s.version.Comments, s.mediaIndex)
}

// Click handles a click on the media surface. A pending reposition consumes the click; otherwise
// a new comment is created unless another comment is mid-edit, in which case nothing happens.
func (s *AnnotationStore) Click(ctx context.Context, x, y float64) (ClickResult, error) {
	if s.version == nil {
		return ClickResult{Action: ClickIgnored}, appErrors.ErrNoSelection
	}
	if s.active != nil && s.active.State == models.CommentStateRepositioning {
		comment := s.active
		err := s.commitReposition(ctx, comment, x, y)
		return ClickResult{Action: ClickRepositioned, Comment: comment}, err
	}
	if s.active != nil {
		return ClickResult{Action: ClickIgnored, Comment: s.active}, nil
	}
	comment, err := s.Create(x, y, s.mediaIndex)
	if err != nil {
		return ClickResult{Action: ClickIgnored}, err
	}
	return ClickResult{Action: ClickCreated, Comment: comment}, nil
}

// Create allocates an unsaved comment anchored to the bound version.
func (s *AnnotationStore) Create(x, y float64, mediaIndex int) (*models.Comment, error) {
	if s.version == nil {
		return nil, appErrors.ErrNoSelection
	}
	if s.active != nil {
		return nil, appErrors.ErrInteractionBusy
	}
	if mediaIndex < 0 {
		mediaIndex = 0
	}
	comment := &models.Comment{
		ID:         s.newID(),
		VersionID:  s.version.ID,
		MediaIndex: mediaIndex,
		X:          x,
		Y:          y,
		AuthorID:   s.session.UserID,
		Timestamp:  s.now(),
		State:      models.CommentStateNew,
		IsNew:      true,
	}
	s.version.Comments = append(s.version.Comments, comment)
	s.active = comment
	return comment, nil
}

// Edit re-opens the editor on a saved comment.
func (s *AnnotationStore) Edit(id string) (*models.Comment, error) {
	comment, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if s.active == comment && (comment.State == models.CommentStateEditing || comment.State == models.CommentStateNew) {
		return comment, nil
	}
	if s.active != nil && s.active != comment {
		return nil, appErrors.ErrInteractionBusy
	}
	comment.State = models.CommentStateEditing
	comment.Draft = comment.Text
	s.active = comment
	return comment, nil
}

// Submit saves the editor text. Never-persisted comments are created remotely, others updated.
func (s *AnnotationStore) Submit(ctx context.Context, id, text string) (*models.Comment, error) {
	comment, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if comment.State != models.CommentStateNew && comment.State != models.CommentStateEditing {
		return nil, appErrors.Clone(appErrors.ErrConflict, "comment is not being edited")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return comment, appErrors.Clone(appErrors.ErrValidation, "comment text is required")
	}

	prev := comment.Clone()
	comment.Text = text
	comment.Draft = ""
	comment.State = models.CommentStateSaved
	s.release(comment)

	op, err := s.persistAs(ctx, OpUpdate, comment, text)
	if err != nil {
		return comment, s.handleFailure(op, comment, err, func() {
			comment.Text = prev.Text
			comment.State = prev.State
			comment.Draft = text
			s.active = comment
		})
	}
	return comment, s.afterSuccess(ctx, op, comment)
}

// Cancel closes the editor. A comment that never had saved text is removed; otherwise only the
// edit buffer is discarded.
func (s *AnnotationStore) Cancel(id string) error {
	comment, err := s.lookup(id)
	if err != nil {
		return err
	}
	if !comment.Active() {
		return nil
	}
	s.release(comment)
	if comment.Text == "" {
		s.remove(comment.ID)
		return nil
	}
	comment.Draft = ""
	comment.State = models.CommentStateSaved
	return nil
}

// MarkDone flags a comment as resolved. done never reverts.
func (s *AnnotationStore) MarkDone(ctx context.Context, id string) (*models.Comment, error) {
	comment, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if comment.Done {
		return comment, nil
	}
	if comment.Text == "" {
		return comment, appErrors.Clone(appErrors.ErrValidation, "comment must be saved before it can be marked done")
	}
	comment.Done = true

	op, err := s.persistAs(ctx, OpDone, comment, comment.Text)
	if err != nil {
		return comment, s.handleFailure(op, comment, err, func() {
			comment.Done = false
		})
	}
	return comment, s.afterSuccess(ctx, op, comment)
}

// Delete removes a comment locally, then confirms with the remote store.
func (s *AnnotationStore) Delete(ctx context.Context, id string) error {
	comment, err := s.lookup(id)
	if err != nil {
		return err
	}
	position := s.indexOf(comment.ID)
	held := s.active == comment
	s.release(comment)
	s.remove(comment.ID)
	if comment.IsNew {
		return nil
	}

	if err := s.remote.DeleteComment(ctx, s.session, comment.VersionID, comment.ID); err != nil {
		return s.handleFailure(OpDelete, comment, err, func() {
			s.insertAt(position, comment)
			if held && s.active == nil {
				s.active = comment
				return
			}
			comment.Draft = ""
			comment.State = models.CommentStateSaved
		})
	}
	return s.afterSuccess(ctx, OpDelete, comment)
}

// StartReposition arms a comment so the next media-surface click moves it. Any open editor is
// closed first.
func (s *AnnotationStore) StartReposition(id string) (*models.Comment, error) {
	comment, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if comment.State == models.CommentStateNew {
		return nil, appErrors.Clone(appErrors.ErrValidation, "save the comment before moving it")
	}
	if s.active != nil && s.active != comment {
		if err := s.Cancel(s.active.ID); err != nil {
			return nil, err
		}
	}
	comment.Draft = ""
	comment.State = models.CommentStateRepositioning
	s.active = comment
	return comment, nil
}

func (s *AnnotationStore) commitReposition(ctx context.Context, comment *models.Comment, x, y float64) error {
	prevX, prevY := comment.X, comment.Y
	comment.X, comment.Y = x, y
	comment.State = models.CommentStateSaved
	s.release(comment)

	op, err := s.persistAs(ctx, OpReposition, comment, comment.Text)
	if err != nil {
		return s.handleFailure(op, comment, err, func() {
			comment.X, comment.Y = prevX, prevY
		})
	}
	return s.afterSuccess(ctx, op, comment)
}

// persistAs creates the comment remotely when it was never accepted, otherwise updates it as op.
func (s *AnnotationStore) persistAs(ctx context.Context, op string, comment *models.Comment, text string) (string, error) {
	payload := models.PayloadFor(comment, text)
	if comment.IsNew {
		return OpCreate, s.remote.CreateComment(ctx, s.session, comment.VersionID, comment.ID, payload)
	}
	return op, s.remote.UpdateComment(ctx, s.session, comment.VersionID, comment.ID, payload)
}

func (s *AnnotationStore) afterSuccess(ctx context.Context, op string, comment *models.Comment) error {
	if op == OpCreate {
		comment.IsNew = false
	} else if op != OpDelete {
		comment.Revision++
	}
	s.metrics.ObserveCommentMutation(op, "ok")
	if s.refresh == nil {
		return nil
	}
	return s.refresh(ctx)
}

// handleFailure applies the failure policy. rollback undoes the optimistic change and only runs
// under the strict policy.
func (s *AnnotationStore) handleFailure(op string, comment *models.Comment, cause error, rollback func()) error {
	kept := s.policy != FailurePolicyStrict
	outcome := "kept"
	if !kept {
		outcome = "rolled_back"
		rollback()
	}
	s.metrics.ObserveCommentMutation(op, outcome)
	s.logger.Warn("comment mutation failed",
		zap.String("op", op),
		zap.String("comment_id", comment.ID),
		zap.String("version_id", comment.VersionID),
		zap.String("user_id", s.session.UserID),
		zap.Bool("kept_local", kept),
		zap.Error(cause),
	)
	if kept && s.retrier != nil {
		job := MutationJob{Op: op, Session: s.session, VersionID: comment.VersionID, CommentID: comment.ID}
		if op != OpDelete {
			job.Payload = models.PayloadFor(comment, comment.Text)
		}
		if err := s.retrier.Enqueue(job); err != nil {
			s.logger.Warn("failed to enqueue comment redelivery", zap.String("comment_id", comment.ID), zap.Error(err))
		}
	}
	return &MutationError{Op: op, CommentID: comment.ID, Kept: kept, Err: mutationCause(cause)}
}

func mutationCause(err error) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return appErrors.Wrap(err, appErrors.ErrMutationFailed.Code, appErrors.ErrMutationFailed.Status, appErrors.ErrMutationFailed.Message)
}

func (s *AnnotationStore) lookup(id string) (*models.Comment, error) {
	if s.version == nil {
		return nil, appErrors.ErrNoSelection
	}
	comment := s.find(id)
	if comment == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "comment not found")
	}
	return comment, nil
}

func (s *AnnotationStore) find(id string) *models.Comment {
	if s.version == nil {
		return nil
	}
	for _, c := range s.version.Comments {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (s *AnnotationStore) indexOf(id string) int {
	for i, c := range s.version.Comments {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (s *AnnotationStore) remove(id string) {
	comments := s.version.Comments[:0]
	for _, c := range s.version.Comments {
		if c.ID != id {
			comments = append(comments, c)
		}
	}
	s.version.Comments = comments
}

func (s *AnnotationStore) insertAt(position int, comment *models.Comment) {
	if position < 0 || position > len(s.version.Comments) {
		position = len(s.version.Comments)
	}
	s.version.Comments = append(s.version.Comments, nil)
	copy(s.version.Comments[position+1:], s.version.Comments[position:])
	s.version.Comments[position] = comment
}

func (s *AnnotationStore) release(comment *models.Comment) {
	if s.active == comment {
		s.active = nil
	}
}

// CommentsForMedia filters comments anchored to one media slot.
func CommentsForMedia(comments []*models.Comment, mediaIndex int) []*models.Comment {
	filtered := make([]*models.Comment, 0, len(comments))
	for _, c := range comments {
		if c.MediaIndex == mediaIndex {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// PartitionByMedia groups comments by media slot.
func PartitionByMedia(comments []*models.Comment) map[int][]*models.Comment {
	partitions := make(map[int][]*models.Comment)
	for _, c := range comments {
		partitions[c.MediaIndex] = append(partitions[c.MediaIndex], c)
	}
	return partitions
}
