package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/content-review-api/internal/models"
	appErrors "github.com/noah-isme/content-review-api/pkg/errors"
)

func TestDecodeSubmissionRecordsAliases(t *testing.T) {
	raw := []byte(`[
		{"id":"s1","assignment_id":"a1","created_at":"2024-01-01","customer_id":"c1","customer_name":"Ada","media":["a.mp4"]},
		{"_id":"s2","assignmentId":"a1","createdAt":"2024-01-02T10:00:00Z","customerId":"c9","images":[{"src":"b.png"}],
		 "comments":[{"id":"k1","comment":"crop","position":{"x":10,"y":20}},{"id":"k2","text":"ok","x":3,"y":4,"mediaIndex":1,"status":"done"},{"comment":"no id"}]}
	]`)
	records, err := DecodeSubmissionRecords(raw)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "s1", records[0].ID)
	assert.Equal(t, "a1", records[0].AssignmentID)
	assert.Equal(t, "c1", records[0].CustomerID)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), records[0].CreatedAt)
	assert.Equal(t, []models.MediaItem{{URL: "a.mp4", Kind: models.MediaKindVideo}}, records[0].Media)

	second := records[1]
	assert.Equal(t, "s2", second.ID)
	assert.Equal(t, "c9", second.CustomerID)
	assert.Equal(t, []models.MediaItem{{URL: "b.png", Kind: models.MediaKindImage}}, second.Media)
	require.Len(t, second.Comments, 2)
	assert.Equal(t, 0, second.Comments[0].MediaIndex)
	assert.Equal(t, 10.0, second.Comments[0].X)
	assert.Equal(t, "s2", second.Comments[0].VersionID)
	assert.True(t, second.Comments[1].Done)
	assert.Equal(t, 1, second.Comments[1].MediaIndex)
	assert.Equal(t, models.CommentStateSaved, second.Comments[1].State)
}

func TestDecodeSubmissionRecordsFailsClosed(t *testing.T) {
	cases := map[string]string{
		"not an array":      `{"id":"s1"}`,
		"missing timestamp": `[{"id":"s1","assignment_id":"a"},{"id":"s2","assignment_id":"a","created_at":"2024-01-01"}]`,
		"bad timestamp":     `[{"id":"s1","assignment_id":"a","created_at":"yesterday"}]`,
		"invalid json":      `[{`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			records, err := DecodeSubmissionRecords([]byte(raw))
			require.Error(t, err)
			assert.Nil(t, records)
			var appErr *appErrors.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, appErrors.ErrAggregationFailed.Code, appErr.Code)
		})
	}
}
