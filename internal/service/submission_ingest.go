package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/content-review-api/internal/models"
	appErrors "github.com/noah-isme/content-review-api/pkg/errors"
)

// Field aliases emitted by the different upstream producers, canonical name first.
var (
	aliasID            = []string{"id", "_id", "submission_id", "submissionId"}
	aliasAssignment    = []string{"assignment_id", "assignmentId"}
	aliasCreatedAt     = []string{"created_at", "createdAt"}
	aliasCustomerID    = []string{"customer_id", "customerId"}
	aliasCustomerName  = []string{"customer_name", "customerName"}
	aliasCustomerEmail = []string{"customer_email", "customerEmail"}
	aliasMedia         = []string{"media", "images"}
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// DecodeSubmissionRecords converts the duck-typed upstream submission list into canonical
// records. Input that is not a JSON array, or any record without a parseable timestamp, fails
// the whole decode.
func DecodeSubmissionRecords(raw []byte) ([]models.SubmissionRecord, error) {
	var entries []map[string]any
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrAggregationFailed.Code, appErrors.ErrAggregationFailed.Status, "submission list is not an array of records")
	}
	records := make([]models.SubmissionRecord, 0, len(entries))
	for i, entry := range entries {
		record, err := recordFromMap(entry)
		if err != nil {
			return nil, appErrors.Wrap(fmt.Errorf("record %d: %w", i, err), appErrors.ErrAggregationFailed.Code, appErrors.ErrAggregationFailed.Status, appErrors.ErrAggregationFailed.Message)
		}
		records = append(records, record)
	}
	return records, nil
}

func recordFromMap(entry map[string]any) (models.SubmissionRecord, error) {
	if entry == nil {
		return models.SubmissionRecord{}, fmt.Errorf("record is not an object")
	}
	createdAt, err := parseTimestamp(firstValue(entry, aliasCreatedAt))
	if err != nil {
		return models.SubmissionRecord{}, err
	}
	record := models.SubmissionRecord{
		ID:            stringValue(firstValue(entry, aliasID)),
		AssignmentID:  stringValue(firstValue(entry, aliasAssignment)),
		CreatedAt:     createdAt,
		Title:         stringValue(entry["title"]),
		Caption:       stringValue(entry["caption"]),
		Notes:         stringValue(entry["notes"]),
		Status:        stringValue(entry["status"]),
		CustomerID:    stringValue(firstValue(entry, aliasCustomerID)),
		CustomerName:  stringValue(firstValue(entry, aliasCustomerName)),
		CustomerEmail: stringValue(firstValue(entry, aliasCustomerEmail)),
		Platform:      stringValue(entry["platform"]),
	}
	if media, ok := firstValue(entry, aliasMedia).([]any); ok {
		record.Media = NormalizeMedia(media)
	} else {
		record.Media = []models.MediaItem{}
	}
	if rawComments, ok := entry["comments"].([]any); ok {
		record.Comments = decodeComments(record.ID, rawComments)
	}
	return record, nil
}

func decodeComments(versionID string, raw []any) []models.Comment {
	comments := make([]models.Comment, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		c := models.Comment{
			ID:        stringValue(firstValue(m, aliasID)),
			VersionID: versionID,
			Text:      stringValue(firstValue(m, []string{"comment", "text"})),
			AuthorID:  stringValue(firstValue(m, []string{"author_id", "authorId"})),
			Done:      boolValue(m["done"]) || strings.EqualFold(stringValue(m["status"]), models.CommentStatusDone),
			Revision:  int(numberValue(m["revision"])),
			State:     models.CommentStateSaved,
		}
		if c.ID == "" {
			continue
		}
		// mediaIndex defaults to 0 for legacy comments created before multi-media versions.
		c.MediaIndex = int(numberValue(firstValue(m, []string{"mediaIndex", "media_index"})))
		if pos, ok := m["position"].(map[string]any); ok {
			c.X, c.Y = numberValue(pos["x"]), numberValue(pos["y"])
		}
		if _, ok := m["x"]; ok {
			c.X = numberValue(m["x"])
		}
		if _, ok := m["y"]; ok {
			c.Y = numberValue(m["y"])
		}
		if ts, err := parseTimestamp(firstValue(m, []string{"timestamp", "created_at", "createdAt"})); err == nil {
			c.Timestamp = ts
		}
		comments = append(comments, c)
	}
	return comments
}

func firstValue(entry map[string]any, keys []string) any {
	for _, key := range keys {
		if v, ok := entry[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

func numberValue(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	}
	return 0
}

func boolValue(v any) bool {
	b, _ := v.(bool)
	return b
}

func parseTimestamp(v any) (time.Time, error) {
	switch t := v.(type) {
	case string:
		raw := strings.TrimSpace(t)
		if raw == "" {
			break
		}
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, raw); err == nil {
				return ts.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unparseable timestamp %q", raw)
	case float64:
		if t > 0 {
			return time.UnixMilli(int64(t)).UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("missing timestamp")
}
