package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/content-review-api/internal/models"
	appErrors "github.com/noah-isme/content-review-api/pkg/errors"
)

// MediaDecoder turns the stored media column into normalized media items.
type MediaDecoder func(raw json.RawMessage) []models.MediaItem

// SubmissionRepository reads submission records and their comments.
type SubmissionRepository struct {
	db          *sqlx.DB
	decodeMedia MediaDecoder
}

type submissionRow struct {
	ID            string    `db:"id"`
	AssignmentID  string    `db:"assignment_id"`
	CreatedAt     time.Time `db:"created_at"`
	Title         string    `db:"title"`
	Caption       string    `db:"caption"`
	Notes         string    `db:"notes"`
	Media         []byte    `db:"media"`
	Status        string    `db:"status"`
	CustomerID    string    `db:"customer_id"`
	CustomerName  string    `db:"customer_name"`
	CustomerEmail string    `db:"customer_email"`
	Platform      string    `db:"platform"`
}

// NewSubmissionRepository constructs the repository. A nil decoder reads media as canonical items.
func NewSubmissionRepository(db *sqlx.DB, decodeMedia MediaDecoder) *SubmissionRepository {
	if decodeMedia == nil {
		decodeMedia = func(raw json.RawMessage) []models.MediaItem {
			var items []models.MediaItem
			_ = json.Unmarshal(raw, &items)
			return items
		}
	}
	return &SubmissionRepository{db: db, decodeMedia: decodeMedia}
}

const submissionColumns = `id, COALESCE(assignment_id, '') AS assignment_id, created_at, COALESCE(title, '') AS title,
       COALESCE(caption, '') AS caption, COALESCE(notes, '') AS notes, COALESCE(media, '[]') AS media,
       COALESCE(status, '') AS status, COALESCE(customer_id, '') AS customer_id,
       COALESCE(customer_name, '') AS customer_name, COALESCE(customer_email, '') AS customer_email,
       COALESCE(platform, '') AS platform`

// ListRecords returns every submission record with its comments attached.
func (r *SubmissionRepository) ListRecords(ctx context.Context) ([]models.SubmissionRecord, error) {
	var rows []submissionRow
	query := `SELECT ` + submissionColumns + ` FROM submissions ORDER BY created_at ASC, id ASC`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}

	var comments []models.Comment
	const commentQuery = `SELECT id, submission_id, media_index, x, y, body, COALESCE(author_id, '') AS author_id, created_at, done, revision
	FROM submission_comments ORDER BY created_at ASC, id ASC`
	if err := r.db.SelectContext(ctx, &comments, commentQuery); err != nil {
		return nil, fmt.Errorf("list submission comments: %w", err)
	}
	byVersion := make(map[string][]models.Comment, len(rows))
	for _, c := range comments {
		c.State = models.CommentStateSaved
		byVersion[c.VersionID] = append(byVersion[c.VersionID], c)
	}

	records := make([]models.SubmissionRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, models.SubmissionRecord{
			ID:            row.ID,
			AssignmentID:  row.AssignmentID,
			CreatedAt:     row.CreatedAt,
			Title:         row.Title,
			Caption:       row.Caption,
			Notes:         row.Notes,
			Media:         r.decodeMedia(row.Media),
			Comments:      byVersion[row.ID],
			Status:        row.Status,
			CustomerID:    row.CustomerID,
			CustomerName:  row.CustomerName,
			CustomerEmail: row.CustomerEmail,
			Platform:      row.Platform,
		})
	}
	return records, nil
}

// UpdateStatus patches the review status of one submission record.
func (r *SubmissionRepository) UpdateStatus(ctx context.Context, versionID, status string) error {
	const query = `UPDATE submissions SET status = $1, updated_at = NOW() WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, status, versionID)
	if err != nil {
		return fmt.Errorf("update submission status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update submission status rows: %w", err)
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "submission not found")
	}
	return nil
}
