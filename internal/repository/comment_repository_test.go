package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/content-review-api/internal/models"
	appErrors "github.com/noah-isme/content-review-api/pkg/errors"
)

var commenter = models.Session{UserID: "u-1", Role: models.RoleCustomer}

func fixedCommentRepo(t *testing.T) (*CommentRepository, sqlmock.Sqlmock, func()) {
	db, mock, cleanup := newRepoMock(t)
	repo := NewCommentRepository(db)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	return repo, mock, cleanup
}

func TestCommentRepositoryCreateIsUpsert(t *testing.T) {
	repo, mock, cleanup := fixedCommentRepo(t)
	defer cleanup()

	payload := models.CommentPayload{Comment: "crop", X: 10, Y: 20, MediaIndex: 1, Status: models.CommentStatusOpen}
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (id) DO UPDATE SET")).
		WithArgs("c-1", "s-1", 1, 10.0, 20.0, "crop", "u-1", sqlmock.AnyArg(), false, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.CreateComment(context.Background(), commenter, "s-1", "c-1", payload))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepositoryCreateReplayOverwritesText(t *testing.T) {
	repo, mock, cleanup := fixedCommentRepo(t)
	defer cleanup()

	// The first create committed but its reply was lost; the resubmitted text must land.
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (id) DO UPDATE SET")).
		WithArgs("c-1", "s-1", 0, 1.0, 2.0, "second", "u-1", sqlmock.AnyArg(), true, 0).
		WillReturnResult(sqlmock.NewResult(0, 2))

	payload := models.CommentPayload{Comment: "second", X: 1, Y: 2, Status: models.CommentStatusDone}
	require.NoError(t, repo.CreateComment(context.Background(), commenter, "s-1", "c-1", payload))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepositoryCreateStaleReplayConflicts(t *testing.T) {
	repo, mock, cleanup := fixedCommentRepo(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("AND submission_comments.revision = EXCLUDED.revision")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	payload := models.CommentPayload{Comment: "first", Status: models.CommentStatusOpen}
	err := repo.CreateComment(context.Background(), commenter, "s-1", "c-1", payload)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepositoryUpdateChecksRevision(t *testing.T) {
	repo, mock, cleanup := fixedCommentRepo(t)
	defer cleanup()

	payload := models.CommentPayload{Comment: "crop more", X: 1, Y: 2, Status: models.CommentStatusDone, Revision: 3}
	mock.ExpectExec(regexp.QuoteMeta("UPDATE submission_comments")).
		WithArgs("crop more", 1.0, 2.0, 0, true, sqlmock.AnyArg(), "c-1", "s-1", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateComment(context.Background(), commenter, "s-1", "c-1", payload))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE submission_comments")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT revision FROM submission_comments")).
		WithArgs("c-1", "s-1").
		WillReturnRows(sqlmock.NewRows([]string{"revision"}).AddRow(5))
	err := repo.UpdateComment(context.Background(), commenter, "s-1", "c-1", payload)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE submission_comments")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT revision FROM submission_comments")).
		WillReturnError(sql.ErrNoRows)
	err = repo.UpdateComment(context.Background(), commenter, "s-1", "c-1", payload)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepositoryDelete(t *testing.T) {
	repo, mock, cleanup := fixedCommentRepo(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM submission_comments")).
		WithArgs("c-1", "s-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, repo.DeleteComment(context.Background(), commenter, "s-1", "c-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
