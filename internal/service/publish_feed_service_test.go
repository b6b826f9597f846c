package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/content-review-api/internal/models"
	appErrors "github.com/noah-isme/content-review-api/pkg/errors"
)

type eventStoreStub struct {
	events []models.PublishEvent
	err    error
	calls  int
}

func (s *eventStoreStub) ListEvents(context.Context) ([]models.PublishEvent, error) {
	s.calls++
	return s.events, s.err
}

type memoryCache struct {
	entries map[string][]byte
	getErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

func TestPublishFeedServiceCachesReads(t *testing.T) {
	store := &eventStoreStub{events: []models.PublishEvent{{AssignmentID: "a", Status: "published"}}}
	cache := newMemoryCache()
	metrics := NewMetricsService()
	svc := NewPublishFeedService(store, nil, WithFeedCache(cache, time.Minute), WithFeedMetrics(metrics))

	first, err := svc.Events(context.Background())
	require.NoError(t, err)
	second, err := svc.Events(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.calls)
	snap := metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)

	require.NoError(t, svc.Invalidate(context.Background()))
	_, err = svc.Events(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
}

func TestPublishFeedServiceFallsThroughBrokenCache(t *testing.T) {
	store := &eventStoreStub{}
	cache := newMemoryCache()
	cache.getErr = errors.New("redis down")
	svc := NewPublishFeedService(store, nil, WithFeedCache(cache, 0))

	events, err := svc.Events(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Equal(t, 1, store.calls)
}

func TestPublishFeedServiceWithoutCache(t *testing.T) {
	store := &eventStoreStub{err: errors.New("db down")}
	svc := NewPublishFeedService(store, nil)
	_, err := svc.Events(context.Background())
	require.Error(t, err)
	assert.NoError(t, svc.Invalidate(context.Background()))
}
