package service

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/content-review-api/internal/models"
	appErrors "github.com/noah-isme/content-review-api/pkg/errors"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestAggregateOrdersVersionsChronologically(t *testing.T) {
	raw := []byte(`[
		{"id":"r1","assignment_id":"x","created_at":"2024-01-01"},
		{"id":"r3","assignment_id":"x","created_at":"2024-01-03"},
		{"id":"r2","assignment_id":"x","created_at":"2024-01-02"}
	]`)
	tree, err := Aggregate(raw)
	require.NoError(t, err)
	require.Len(t, tree, 1)

	sub := tree[0]
	assert.Equal(t, "x", sub.AssignmentID)
	assert.Equal(t, 3, sub.TotalVersions)
	for i, want := range []struct {
		id  string
		day int
	}{{"r1", 1}, {"r2", 2}, {"r3", 3}} {
		assert.Equal(t, want.id, sub.Versions[i].ID)
		assert.Equal(t, day(want.day), sub.Versions[i].CreatedAt)
		assert.Equal(t, i+1, sub.Versions[i].VersionNumber)
	}
}

func TestAggregateFirstVersionOwnsIdentity(t *testing.T) {
	records := []models.SubmissionRecord{
		{ID: "late", AssignmentID: "a", CreatedAt: day(5), Title: "Later title", CustomerID: "c2", Platform: "tiktok", Caption: "v2 caption"},
		{ID: "early", AssignmentID: "a", CreatedAt: day(1), Title: "Launch post", CustomerID: "c1", Platform: "instagram", Caption: "v1 caption"},
	}
	tree, err := AggregateVersions(records)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, "Launch post", tree[0].Title)
	assert.Equal(t, "c1", tree[0].CustomerID)
	assert.Equal(t, "instagram", tree[0].Platform)
	assert.Equal(t, "v2 caption", tree[0].Versions[1].Caption)
}

func TestAggregateTiesKeepInputOrder(t *testing.T) {
	records := []models.SubmissionRecord{
		{ID: "first", AssignmentID: "a", CreatedAt: day(2)},
		{ID: "second", AssignmentID: "a", CreatedAt: day(2)},
		{ID: "zero", AssignmentID: "a", CreatedAt: day(1)},
	}
	tree, err := AggregateVersions(records)
	require.NoError(t, err)
	ids := []string{tree[0].Versions[0].ID, tree[0].Versions[1].ID, tree[0].Versions[2].ID}
	assert.Equal(t, []string{"zero", "first", "second"}, ids)
}

func TestAggregateFailsClosedOnMissingTimestamp(t *testing.T) {
	records := []models.SubmissionRecord{
		{ID: "ok", AssignmentID: "a", CreatedAt: day(1)},
		{ID: "broken", AssignmentID: "b"},
	}
	tree, err := AggregateVersions(records)
	require.Error(t, err)
	assert.NotNil(t, tree)
	assert.Empty(t, tree)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrAggregationFailed.Code, appErr.Code)

	tree, err = Aggregate([]byte(`{"not":"a list"}`))
	require.Error(t, err)
	assert.Empty(t, tree)
}

func TestAggregateVersionNumbersDenseAndDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 25; round++ {
		records := make([]models.SubmissionRecord, 0, 40)
		counts := make(map[string]int)
		for i := 0; i < 40; i++ {
			assignment := fmt.Sprintf("a%d", rng.Intn(5))
			counts[assignment]++
			records = append(records, models.SubmissionRecord{
				ID:           fmt.Sprintf("r%d", i),
				AssignmentID: assignment,
				CreatedAt:    day(1 + rng.Intn(10)),
			})
		}
		first, err := AggregateVersions(append([]models.SubmissionRecord(nil), records...))
		require.NoError(t, err)
		second, err := AggregateVersions(append([]models.SubmissionRecord(nil), records...))
		require.NoError(t, err)

		require.Len(t, first, len(counts))
		for i, sub := range first {
			require.Equal(t, counts[sub.AssignmentID], sub.TotalVersions)
			for n, version := range sub.Versions {
				require.Equal(t, n+1, version.VersionNumber)
				require.Equal(t, version.ID, second[i].Versions[n].ID)
				require.Equal(t, version.VersionNumber, second[i].Versions[n].VersionNumber)
			}
		}
	}
}

func TestAggregateBindsCommentsToVersion(t *testing.T) {
	records := []models.SubmissionRecord{{
		ID: "v1", AssignmentID: "a", CreatedAt: day(1),
		Comments: []models.Comment{{ID: "c1", Text: "hi"}},
	}}
	tree, err := AggregateVersions(records)
	require.NoError(t, err)
	comment := tree[0].Versions[0].Comments[0]
	assert.Equal(t, "v1", comment.VersionID)
	assert.Equal(t, models.CommentStateSaved, comment.State)
	assert.False(t, comment.IsNew)
}
