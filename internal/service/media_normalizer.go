package service

import (
	"encoding/json"
	"path"
	"strings"

	"github.com/noah-isme/content-review-api/internal/models"
)

var videoExtensions = map[string]struct{}{
	"mp4":  {},
	"webm": {},
	"ogg":  {},
	"mov":  {},
	"avi":  {},
}

// urlKeys is the precedence used to resolve a URL from a loosely shaped object.
var urlKeys = []string{"url", "src", "href"}

// NormalizeMedia converts raw media descriptors into media items. Entries without a resolvable
// URL are dropped; output order follows input order because it defines the media index.
func NormalizeMedia(entries []any) []models.MediaItem {
	items := make([]models.MediaItem, 0, len(entries))
	for _, entry := range entries {
		if item, ok := normalizeMediaEntry(entry); ok {
			items = append(items, item)
		}
	}
	return items
}

// NormalizeMediaJSON decodes a JSON media array before normalizing it. Anything that is not an
// array yields no media.
func NormalizeMediaJSON(raw json.RawMessage) []models.MediaItem {
	if len(raw) == 0 {
		return []models.MediaItem{}
	}
	var entries []any
	if err := json.Unmarshal(raw, &entries); err != nil {
		return []models.MediaItem{}
	}
	return NormalizeMedia(entries)
}

func normalizeMediaEntry(entry any) (models.MediaItem, bool) {
	switch v := entry.(type) {
	case string:
		return mediaFromURL(v, "")
	case models.MediaItem:
		return mediaFromURL(v.URL, string(v.Kind))
	case *models.MediaItem:
		if v == nil {
			return models.MediaItem{}, false
		}
		return mediaFromURL(v.URL, string(v.Kind))
	case map[string]any:
		url := ""
		for _, key := range urlKeys {
			if s, ok := v[key].(string); ok && strings.TrimSpace(s) != "" {
				url = s
				break
			}
		}
		declared := ""
		for _, key := range []string{"type", "kind"} {
			if s, ok := v[key].(string); ok && s != "" {
				declared = s
				break
			}
		}
		return mediaFromURL(url, declared)
	default:
		return models.MediaItem{}, false
	}
}

func mediaFromURL(url, declared string) (models.MediaItem, bool) {
	if strings.TrimSpace(url) == "" {
		return models.MediaItem{}, false
	}
	kind, ok := declaredKind(declared)
	if !ok {
		kind = InferMediaKind(url)
	}
	return models.MediaItem{URL: url, Kind: kind}, true
}

func declaredKind(raw string) (models.MediaKind, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch {
	case raw == "":
		return "", false
	case raw == string(models.MediaKindVideo) || strings.HasPrefix(raw, "video/"):
		return models.MediaKindVideo, true
	case raw == string(models.MediaKindImage) || strings.HasPrefix(raw, "image/"):
		return models.MediaKindImage, true
	}
	return "", false
}

// InferMediaKind classifies a URL by its file extension.
func InferMediaKind(url string) models.MediaKind {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(url)), ".")
	if _, ok := videoExtensions[ext]; ok {
		return models.MediaKindVideo
	}
	return models.MediaKindImage
}
