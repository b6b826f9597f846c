package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/content-review-api/internal/models"
	appErrors "github.com/noah-isme/content-review-api/pkg/errors"
)

type remoteCall struct {
	op        string
	versionID string
	commentID string
	payload   models.CommentPayload
}

type commentRemoteStub struct {
	calls     []remoteCall
	createErr error
	updateErr error
	deleteErr error
}

func (s *commentRemoteStub) CreateComment(_ context.Context, _ models.Session, versionID, commentID string, payload models.CommentPayload) error {
	s.calls = append(s.calls, remoteCall{op: OpCreate, versionID: versionID, commentID: commentID, payload: payload})
	return s.createErr
}

func (s *commentRemoteStub) UpdateComment(_ context.Context, _ models.Session, versionID, commentID string, payload models.CommentPayload) error {
	s.calls = append(s.calls, remoteCall{op: OpUpdate, versionID: versionID, commentID: commentID, payload: payload})
	return s.updateErr
}

func (s *commentRemoteStub) DeleteComment(_ context.Context, _ models.Session, versionID, commentID string) error {
	s.calls = append(s.calls, remoteCall{op: OpDelete, versionID: versionID, commentID: commentID})
	return s.deleteErr
}

type retrierStub struct {
	jobs []MutationJob
}

func (r *retrierStub) Enqueue(job MutationJob) error {
	r.jobs = append(r.jobs, job)
	return nil
}

var reviewer = models.Session{UserID: "u-1", Role: models.RoleCustomer, DisplayName: "Rina"}

func savedComment(id string, mediaIndex int, x, y float64, text string) *models.Comment {
	return &models.Comment{ID: id, VersionID: "v1", MediaIndex: mediaIndex, X: x, Y: y, Text: text, State: models.CommentStateSaved}
}

func newTestStore(remote *commentRemoteStub, opts ...AnnotationStoreOption) (*AnnotationStore, *models.Version) {
	version := &models.Version{ID: "v1", VersionNumber: 1, Comments: []*models.Comment{}}
	seq := 0
	opts = append([]AnnotationStoreOption{WithIDGenerator(func() string {
		seq++
		return fmt.Sprintf("c-%d", seq)
	})}, opts...)
	store := NewAnnotationStore(reviewer, remote, nil, opts...)
	store.Bind(version, 0)
	return store, version
}

func TestAnnotationStoreEmptySubmitIsNoop(t *testing.T) {
	remote := &commentRemoteStub{}
	store, version := newTestStore(remote)

	res, err := store.Click(context.Background(), 10, 20)
	require.NoError(t, err)
	require.Equal(t, ClickCreated, res.Action)
	id := res.Comment.ID

	_, err = store.Submit(context.Background(), id, "   ")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	assert.Equal(t, models.CommentStateNew, res.Comment.State)
	assert.True(t, res.Comment.IsNew)
	assert.Empty(t, remote.calls)

	require.NoError(t, store.Cancel(id))
	assert.Empty(t, version.Comments)
	assert.Nil(t, store.Active())
}

func TestAnnotationStoreSubmitCreatesThenUpdates(t *testing.T) {
	remote := &commentRemoteStub{}
	refreshes := 0
	store, _ := newTestStore(remote, WithRefresh(func(context.Context) error {
		refreshes++
		return nil
	}))

	comment, err := store.Create(0.4, 0.6, 0)
	require.NoError(t, err)
	_, err = store.Submit(context.Background(), comment.ID, " crop tighter ")
	require.NoError(t, err)

	require.Len(t, remote.calls, 1)
	assert.Equal(t, OpCreate, remote.calls[0].op)
	assert.Equal(t, "v1", remote.calls[0].versionID)
	assert.Equal(t, "crop tighter", remote.calls[0].payload.Comment)
	assert.Equal(t, models.Position{X: 0.4, Y: 0.6}, remote.calls[0].payload.Position)
	assert.False(t, comment.IsNew)
	assert.Equal(t, models.CommentStateSaved, comment.State)
	assert.Nil(t, store.Active())

	_, err = store.Edit(comment.ID)
	require.NoError(t, err)
	assert.Equal(t, "crop tighter", comment.Draft)
	_, err = store.Submit(context.Background(), comment.ID, "crop much tighter")
	require.NoError(t, err)

	require.Len(t, remote.calls, 2)
	assert.Equal(t, OpUpdate, remote.calls[1].op)
	assert.Equal(t, 1, comment.Revision)
	assert.Equal(t, 2, refreshes)
}

func TestAnnotationStoreRepositionConsumesClick(t *testing.T) {
	remote := &commentRemoteStub{}
	store, version := newTestStore(remote)
	c1 := savedComment("c1", 0, 10, 10, "logo too small")
	version.Comments = append(version.Comments, c1)

	_, err := store.StartReposition("c1")
	require.NoError(t, err)
	assert.Equal(t, models.CommentStateRepositioning, c1.State)

	res, err := store.Click(context.Background(), 55, 70)
	require.NoError(t, err)
	assert.Equal(t, ClickRepositioned, res.Action)
	assert.Len(t, version.Comments, 1)
	assert.Equal(t, 55.0, c1.X)
	assert.Equal(t, 70.0, c1.Y)
	assert.Equal(t, models.CommentStateSaved, c1.State)

	require.Len(t, remote.calls, 1)
	assert.Equal(t, OpUpdate, remote.calls[0].op)
	assert.Equal(t, 55.0, remote.calls[0].payload.X)
}

func TestAnnotationStoreLenientKeepsLocalChanges(t *testing.T) {
	remote := &commentRemoteStub{updateErr: errors.New("network down")}
	retrier := &retrierStub{}
	store, version := newTestStore(remote, WithMutationRetrier(retrier))
	c1 := savedComment("c1", 0, 10, 10, "fix colors")
	version.Comments = append(version.Comments, c1)

	_, err := store.MarkDone(context.Background(), "c1")
	require.Error(t, err)
	var mutErr *MutationError
	require.True(t, errors.As(err, &mutErr))
	assert.True(t, mutErr.Kept)
	assert.Equal(t, OpDone, mutErr.Op)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrMutationFailed.Code, appErr.Code)

	assert.True(t, version.Comments[0].Done)

	_, err = store.Edit("c1")
	require.NoError(t, err)
	_, err = store.Submit(context.Background(), "c1", "fix colors and font")
	require.Error(t, err)
	assert.Equal(t, "fix colors and font", version.Comments[0].Text)

	require.Len(t, retrier.jobs, 2)
	assert.Equal(t, OpDone, retrier.jobs[0].Op)
	assert.Equal(t, models.CommentStatusDone, retrier.jobs[0].Payload.Status)
	assert.Equal(t, "fix colors and font", retrier.jobs[1].Payload.Comment)
}

func TestAnnotationStoreStrictRollsBack(t *testing.T) {
	remote := &commentRemoteStub{updateErr: errors.New("timeout"), deleteErr: errors.New("timeout")}
	retrier := &retrierStub{}
	store, version := newTestStore(remote, WithFailurePolicy(FailurePolicyStrict), WithMutationRetrier(retrier))
	c1 := savedComment("c1", 0, 10, 10, "old text")
	c2 := savedComment("c2", 0, 20, 20, "second")
	version.Comments = append(version.Comments, c1, c2)

	_, err := store.MarkDone(context.Background(), "c1")
	var mutErr *MutationError
	require.True(t, errors.As(err, &mutErr))
	assert.False(t, mutErr.Kept)
	assert.False(t, c1.Done)

	_, err = store.Edit("c1")
	require.NoError(t, err)
	_, err = store.Submit(context.Background(), "c1", "new text")
	require.Error(t, err)
	assert.Equal(t, "old text", c1.Text)
	assert.Equal(t, "new text", c1.Draft)
	assert.Equal(t, models.CommentStateEditing, c1.State)
	assert.Same(t, c1, store.Active())
	require.NoError(t, store.Cancel("c1"))

	_, err = store.StartReposition("c2")
	require.NoError(t, err)
	_, err = store.Click(context.Background(), 99, 99)
	require.Error(t, err)
	assert.Equal(t, 20.0, c2.X)

	err = store.Delete(context.Background(), "c1")
	require.Error(t, err)
	require.Len(t, version.Comments, 2)
	assert.Equal(t, "c1", version.Comments[0].ID)

	assert.Empty(t, retrier.jobs)
}

func TestAnnotationStoreStrictDeleteRestoresOpenEditor(t *testing.T) {
	remote := &commentRemoteStub{deleteErr: errors.New("timeout")}
	store, version := newTestStore(remote, WithFailurePolicy(FailurePolicyStrict))
	c1 := savedComment("c1", 0, 10, 10, "keep me")
	version.Comments = append(version.Comments, c1)

	_, err := store.Edit("c1")
	require.NoError(t, err)
	require.Error(t, store.Delete(context.Background(), "c1"))

	require.Len(t, version.Comments, 1)
	assert.Same(t, c1, store.Active())
	assert.Equal(t, models.CommentStateEditing, c1.State)

	res, err := store.Click(context.Background(), 50, 50)
	require.NoError(t, err)
	assert.Equal(t, ClickIgnored, res.Action)
	assert.Len(t, version.Comments, 1)
}

func TestAnnotationStoreBusyClickIsIgnored(t *testing.T) {
	remote := &commentRemoteStub{}
	store, version := newTestStore(remote)
	first, err := store.Create(1, 1, 0)
	require.NoError(t, err)

	res, err := store.Click(context.Background(), 5, 5)
	require.NoError(t, err)
	assert.Equal(t, ClickIgnored, res.Action)
	assert.Len(t, version.Comments, 1)

	_, err = store.Create(2, 2, 0)
	assert.ErrorIs(t, err, appErrors.ErrInteractionBusy)

	version.Comments = append(version.Comments, savedComment("c9", 0, 3, 3, "other"))
	_, err = store.Edit("c9")
	assert.ErrorIs(t, err, appErrors.ErrInteractionBusy)
	assert.Same(t, first, store.Active())
}

func TestAnnotationStoreWithoutSelection(t *testing.T) {
	store := NewAnnotationStore(reviewer, &commentRemoteStub{}, nil)
	_, err := store.Click(context.Background(), 1, 1)
	assert.ErrorIs(t, err, appErrors.ErrNoSelection)
	assert.Empty(t, store.Comments())
}

func TestAnnotationStoreCancelKeepsSavedText(t *testing.T) {
	store, version := newTestStore(&commentRemoteStub{})
	c1 := savedComment("c1", 0, 1, 1, "keep me")
	version.Comments = append(version.Comments, c1)

	_, err := store.Edit("c1")
	require.NoError(t, err)
	require.NoError(t, store.Cancel("c1"))
	assert.Equal(t, "keep me", c1.Text)
	assert.Equal(t, models.CommentStateSaved, c1.State)
	assert.Len(t, version.Comments, 1)
}

func TestAnnotationStoreDeleteUnsavedStaysLocal(t *testing.T) {
	remote := &commentRemoteStub{}
	store, version := newTestStore(remote)
	comment, err := store.Create(1, 1, 0)
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), comment.ID))
	assert.Empty(t, version.Comments)
	assert.Empty(t, remote.calls)
	assert.Nil(t, store.Active())
}

func TestAnnotationStoreDeleteLenientStaysRemoved(t *testing.T) {
	remote := &commentRemoteStub{deleteErr: errors.New("502")}
	store, version := newTestStore(remote)
	version.Comments = append(version.Comments, savedComment("c1", 0, 1, 1, "gone"))

	err := store.Delete(context.Background(), "c1")
	var mutErr *MutationError
	require.True(t, errors.As(err, &mutErr))
	assert.True(t, mutErr.Kept)
	assert.Empty(t, version.Comments)
}

func TestAnnotationStoreRejectsRepositionOfUnsaved(t *testing.T) {
	store, _ := newTestStore(&commentRemoteStub{})
	comment, err := store.Create(1, 1, 0)
	require.NoError(t, err)
	_, err = store.StartReposition(comment.ID)
	require.Error(t, err)
	assert.Equal(t, models.CommentStateNew, comment.State)
}

func TestAnnotationStoreMarkDoneIsIdempotent(t *testing.T) {
	remote := &commentRemoteStub{}
	store, version := newTestStore(remote)
	version.Comments = append(version.Comments, savedComment("c1", 0, 1, 1, "ok"))

	_, err := store.MarkDone(context.Background(), "c1")
	require.NoError(t, err)
	_, err = store.MarkDone(context.Background(), "c1")
	require.NoError(t, err)
	assert.Len(t, remote.calls, 1)
}

func TestAnnotationStoreBindCarriesActiveComment(t *testing.T) {
	store, version := newTestStore(&commentRemoteStub{})
	version.Comments = append(version.Comments, savedComment("c1", 0, 1, 1, "text"))
	_, err := store.Edit("c1")
	require.NoError(t, err)

	rebuilt := &models.Version{ID: "v1", Comments: []*models.Comment{savedComment("c1", 0, 1, 1, "text")}}
	store.Bind(rebuilt, 0)
	require.NotNil(t, store.Active())
	assert.Same(t, rebuilt.Comments[0], store.Active())
	assert.Equal(t, models.CommentStateEditing, rebuilt.Comments[0].State)

	store.Bind(&models.Version{ID: "v2"}, 0)
	assert.Nil(t, store.Active())
}

func TestPartitionByMediaCoversEveryComment(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		n := rng.Intn(30)
		var comments []*models.Comment
		for i := 0; i < n; i++ {
			comments = append(comments, savedComment(fmt.Sprintf("c%d", i), rng.Intn(4), 0, 0, "x"))
		}
		partitions := PartitionByMedia(comments)
		total := 0
		for idx, group := range partitions {
			total += len(group)
			for _, c := range group {
				assert.Equal(t, idx, c.MediaIndex)
			}
			assert.Equal(t, group, CommentsForMedia(comments, idx))
		}
		assert.Equal(t, len(comments), total)
	}
}
