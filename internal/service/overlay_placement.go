package service

import "github.com/noah-isme/content-review-api/internal/models"

// DefaultFlyoutThreshold is the anchor x, in pixels, past which a flyout opens to the left when
// the rendered media width is not known yet.
const DefaultFlyoutThreshold = 300.0

// PlaceFlyout picks the side a comment flyout opens on so it does not clip past the media's
// right edge. anchorX is relative to the media's left edge; renderedWidth is only known after
// layout, so callers re-evaluate on every render pass.
func PlaceFlyout(anchorX, renderedWidth float64) models.FlyoutPlacement {
	return PlaceFlyoutWithThreshold(anchorX, renderedWidth, DefaultFlyoutThreshold)
}

// PlaceFlyoutWithThreshold is PlaceFlyout with a configurable fallback threshold.
func PlaceFlyoutWithThreshold(anchorX, renderedWidth, threshold float64) models.FlyoutPlacement {
	limit := threshold
	if renderedWidth > 0 {
		limit = renderedWidth / 2
	}
	side := models.FlyoutRight
	if anchorX > limit {
		side = models.FlyoutLeft
	}
	return models.FlyoutPlacement{Side: side, VerticalAlign: "center"}
}
