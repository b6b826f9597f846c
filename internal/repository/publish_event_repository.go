package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/content-review-api/internal/models"
)

// PublishEventRepository reads the publish-event feed written by platform integrations.
type PublishEventRepository struct {
	db *sqlx.DB
}

// NewPublishEventRepository constructs the repository.
func NewPublishEventRepository(db *sqlx.DB) *PublishEventRepository {
	return &PublishEventRepository{db: db}
}

// ListEvents returns the full feed, latest first.
func (r *PublishEventRepository) ListEvents(ctx context.Context) ([]models.PublishEvent, error) {
	const query = `SELECT COALESCE(assignment_id, '') AS assignment_id, COALESCE(content_id, '') AS content_id,
       COALESCE(item_id, '') AS item_id, COALESCE(status, '') AS status, published_at
	FROM publish_events ORDER BY published_at DESC NULLS LAST`
	var events []models.PublishEvent
	if err := r.db.SelectContext(ctx, &events, query); err != nil {
		return nil, fmt.Errorf("list publish events: %w", err)
	}
	return events, nil
}
