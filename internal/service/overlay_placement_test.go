package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/content-review-api/internal/models"
)

func TestPlaceFlyout(t *testing.T) {
	cases := []struct {
		name   string
		x      float64
		width  float64
		expect models.FlyoutSide
	}{
		{"left half", 100, 800, models.FlyoutRight},
		{"exact midpoint stays right", 400, 800, models.FlyoutRight},
		{"right half", 401, 800, models.FlyoutLeft},
		{"unknown width below threshold", 250, 0, models.FlyoutRight},
		{"unknown width past threshold", 301, 0, models.FlyoutLeft},
		{"negative width treated as unknown", 301, -1, models.FlyoutLeft},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := PlaceFlyout(tc.x, tc.width)
			assert.Equal(t, tc.expect, got.Side)
			assert.Equal(t, "center", got.VerticalAlign)
		})
	}
}

func TestPlaceFlyoutWithThreshold(t *testing.T) {
	assert.Equal(t, models.FlyoutLeft, PlaceFlyoutWithThreshold(60, 0, 50).Side)
	assert.Equal(t, models.FlyoutRight, PlaceFlyoutWithThreshold(60, 200, 50).Side)
}
