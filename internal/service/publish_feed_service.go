package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/content-review-api/internal/models"
	appErrors "github.com/noah-isme/content-review-api/pkg/errors"
)

const publishFeedCacheKey = "publish-feed"

type publishEventStore interface {
	ListEvents(ctx context.Context) ([]models.PublishEvent, error)
}

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// PublishFeedService serves the publish-event feed, optionally through a short-lived cache.
type PublishFeedService struct {
	store   publishEventStore
	cache   CacheRepository
	ttl     time.Duration
	metrics *MetricsService
	logger  *zap.Logger
}

// PublishFeedOption configures the feed service.
type PublishFeedOption func(*PublishFeedService)

// WithFeedCache enables cache-through reads. A non-positive ttl falls back to one minute.
func WithFeedCache(cache CacheRepository, ttl time.Duration) PublishFeedOption {
	return func(s *PublishFeedService) {
		if ttl <= 0 {
			ttl = time.Minute
		}
		s.cache = cache
		s.ttl = ttl
	}
}

// WithFeedMetrics records cache hits and misses.
func WithFeedMetrics(m *MetricsService) PublishFeedOption {
	return func(s *PublishFeedService) {
		s.metrics = m
	}
}

// NewPublishFeedService constructs the service.
func NewPublishFeedService(store publishEventStore, logger *zap.Logger, opts ...PublishFeedOption) *PublishFeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &PublishFeedService{store: store, logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Events returns the feed. Cache failures fall through to the store.
func (s *PublishFeedService) Events(ctx context.Context) ([]models.PublishEvent, error) {
	if s.cache != nil {
		var cached []models.PublishEvent
		start := time.Now()
		err := s.cache.Get(ctx, publishFeedCacheKey, &cached)
		switch {
		case err == nil:
			s.metrics.RecordCacheOperation(true, time.Since(start))
			return cached, nil
		case errors.Is(err, appErrors.ErrCacheMiss):
			s.metrics.RecordCacheOperation(false, time.Since(start))
		default:
			s.metrics.RecordCacheOperation(false, time.Since(start))
			s.logger.Warn("publish feed cache read failed", zap.Error(err))
		}
	}

	events, err := s.store.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []models.PublishEvent{}
	}

	if s.cache != nil {
		start := time.Now()
		if err := s.cache.Set(ctx, publishFeedCacheKey, events, s.ttl); err != nil {
			s.logger.Warn("publish feed cache write failed", zap.Error(err))
		}
		s.metrics.ObserveCacheWrite(time.Since(start))
	}
	return events, nil
}

// Invalidate drops the cached feed so the next read hits the store.
func (s *PublishFeedService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, publishFeedCacheKey)
}
