package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/content-review-api/internal/models"
	appErrors "github.com/noah-isme/content-review-api/pkg/errors"
	"github.com/noah-isme/content-review-api/pkg/jobs"
)

// MutationJob is a failed comment mutation queued for redelivery.
type MutationJob struct {
	Op        string
	Session   models.Session
	VersionID string
	CommentID string
	Payload   models.CommentPayload
}

// MutationRedelivery replays failed comment mutations in the background. Creates are keyed by
// the client-side comment id and every write is revision guarded, so a stale replay conflicts
// instead of overwriting newer text.
type MutationRedelivery struct {
	queue   *jobs.Queue
	remote  commentRemote
	metrics *MetricsService
	logger  *zap.Logger
}

// NewMutationRedelivery builds the redelivery worker pool on top of the job queue.
func NewMutationRedelivery(remote commentRemote, metrics *MetricsService, cfg jobs.QueueConfig) *MutationRedelivery {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	r := &MutationRedelivery{remote: remote, metrics: metrics, logger: cfg.Logger}
	cfg.OnDrop = r.abandon
	r.queue = jobs.NewQueue("comment-redelivery", r.handle, cfg)
	return r
}

// Start launches the workers.
func (r *MutationRedelivery) Start(ctx context.Context) {
	r.queue.Start(ctx)
}

// Stop drains the workers.
func (r *MutationRedelivery) Stop() {
	r.queue.Stop()
}

// Enqueue schedules a mutation for redelivery.
func (r *MutationRedelivery) Enqueue(job MutationJob) error {
	return r.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: job.Op, Payload: job})
}

func (r *MutationRedelivery) handle(ctx context.Context, j jobs.Job) error {
	job, ok := j.Payload.(MutationJob)
	if !ok {
		return fmt.Errorf("unexpected redelivery payload %T", j.Payload)
	}
	var err error
	switch job.Op {
	case OpCreate:
		err = r.remote.CreateComment(ctx, job.Session, job.VersionID, job.CommentID, job.Payload)
	case OpUpdate, OpDone, OpReposition:
		err = r.remote.UpdateComment(ctx, job.Session, job.VersionID, job.CommentID, job.Payload)
	case OpDelete:
		err = r.remote.DeleteComment(ctx, job.Session, job.VersionID, job.CommentID)
	default:
		r.logger.Warn("dropping redelivery with unknown op", zap.String("op", job.Op))
		return nil
	}
	if isConflict(err) {
		// A newer write already landed upstream; replaying a stale payload can never succeed.
		r.metrics.ObserveCommentMutation(job.Op, "superseded")
		r.logger.Warn("comment redelivery superseded", zap.String("op", job.Op), zap.String("comment_id", job.CommentID), zap.Error(err))
		return nil
	}
	if err != nil {
		return err
	}
	r.metrics.ObserveCommentMutation(job.Op, "redelivered")
	r.logger.Info("comment mutation redelivered", zap.String("op", job.Op), zap.String("comment_id", job.CommentID))
	return nil
}

func isConflict(err error) bool {
	var appErr *appErrors.Error
	return errors.As(err, &appErr) && appErr.Code == appErrors.ErrConflict.Code
}

func (r *MutationRedelivery) abandon(j jobs.Job, err error) {
	r.metrics.ObserveCommentMutation(j.Type, "abandoned")
	commentID := ""
	if job, ok := j.Payload.(MutationJob); ok {
		commentID = job.CommentID
	}
	r.logger.Error("comment mutation abandoned", zap.String("op", j.Type), zap.String("comment_id", commentID), zap.Int("attempts", j.Attempt), zap.Error(err))
}
