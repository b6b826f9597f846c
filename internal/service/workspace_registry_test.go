package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/content-review-api/internal/models"
	appErrors "github.com/noah-isme/content-review-api/pkg/errors"
)

func TestWorkspaceRegistryReusesAndExpires(t *testing.T) {
	backend := seededBackend()
	built := 0
	registry := NewWorkspaceRegistry(func(session models.Session) *ReviewWorkspace {
		built++
		return NewReviewWorkspace(session, backend, backend, nil)
	}, time.Minute, nil)
	clock := day(1)
	registry.now = func() time.Time { return clock }

	first, err := registry.Get(reviewer)
	require.NoError(t, err)
	again, err := registry.Get(reviewer)
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Equal(t, reviewer, first.Session())

	other, err := registry.Get(models.Session{UserID: "u-2"})
	require.NoError(t, err)
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, built)

	clock = clock.Add(2 * time.Minute)
	fresh, err := registry.Get(reviewer)
	require.NoError(t, err)
	assert.NotSame(t, first, fresh)

	assert.Equal(t, 1, registry.Sweep())
	assert.Equal(t, 1, registry.Len())

	registry.Evict(reviewer.UserID)
	assert.Equal(t, 0, registry.Len())
}

func TestWorkspaceRegistryRejectsAnonymous(t *testing.T) {
	registry := NewWorkspaceRegistry(nil, 0, nil)
	_, err := registry.Get(models.Session{})
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
