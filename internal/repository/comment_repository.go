package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/content-review-api/internal/models"
	appErrors "github.com/noah-isme/content-review-api/pkg/errors"
)

// CommentRepository persists positional comments. Updates are guarded by the revision the
// client last saw.
type CommentRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewCommentRepository constructs the repository.
func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db, now: time.Now}
}

// CreateComment inserts a comment under its client-allocated id. When the id already exists, as
// after a create that committed but whose reply was lost, the row is brought up to the payload
// instead, guarded by the revision the client last saw. A guard miss is reported as a conflict.
func (r *CommentRepository) CreateComment(ctx context.Context, session models.Session, versionID, commentID string, payload models.CommentPayload) error {
	const query = `INSERT INTO submission_comments
	(id, submission_id, media_index, x, y, body, author_id, created_at, done, revision)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (id) DO UPDATE SET
		body = EXCLUDED.body,
		x = EXCLUDED.x,
		y = EXCLUDED.y,
		media_index = EXCLUDED.media_index,
		done = submission_comments.done OR EXCLUDED.done,
		revision = submission_comments.revision + 1,
		updated_at = EXCLUDED.created_at
	WHERE submission_comments.submission_id = EXCLUDED.submission_id
		AND submission_comments.revision = EXCLUDED.revision`
	done := payload.Status == models.CommentStatusDone
	res, err := r.db.ExecContext(ctx, query, commentID, versionID, payload.MediaIndex, payload.X, payload.Y,
		payload.Comment, session.UserID, r.now().UTC(), done, payload.Revision)
	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create comment rows: %w", err)
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrConflict, "comment changed upstream before it could be saved")
	}
	return nil
}

// UpdateComment rewrites text, position and done flag. A revision mismatch means someone else
// changed the comment first.
func (r *CommentRepository) UpdateComment(ctx context.Context, _ models.Session, versionID, commentID string, payload models.CommentPayload) error {
	const query = `UPDATE submission_comments
	SET body = $1, x = $2, y = $3, media_index = $4, done = done OR $5, revision = revision + 1, updated_at = $6
	WHERE id = $7 AND submission_id = $8 AND revision = $9`
	done := payload.Status == models.CommentStatusDone
	res, err := r.db.ExecContext(ctx, query, payload.Comment, payload.X, payload.Y, payload.MediaIndex, done,
		r.now().UTC(), commentID, versionID, payload.Revision)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update comment rows: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var current int
	err = r.db.GetContext(ctx, &current, `SELECT revision FROM submission_comments WHERE id = $1 AND submission_id = $2`, commentID, versionID)
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "comment not found")
	}
	if err != nil {
		return fmt.Errorf("load comment revision: %w", err)
	}
	return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("comment changed upstream (revision %d, have %d)", current, payload.Revision))
}

// DeleteComment removes a comment. Deleting a missing comment succeeds.
func (r *CommentRepository) DeleteComment(ctx context.Context, _ models.Session, versionID, commentID string) error {
	const query = `DELETE FROM submission_comments WHERE id = $1 AND submission_id = $2`
	if _, err := r.db.ExecContext(ctx, query, commentID, versionID); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}
