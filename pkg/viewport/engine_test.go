package viewport_test

import (
	"testing"

	"github.com/aretw0/umlpad/pkg/domain"
	"github.com/aretw0/umlpad/pkg/viewport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_ZoomClamp(t *testing.T) {
	e := viewport.New()
	e.ZoomBy(1000)
	assert.Equal(t, domain.MaxZoom, e.State().Zoom)
	assert.False(t, e.CanZoomIn())

	e.ZoomBy(-1000)
	assert.Equal(t, domain.MinZoom, e.State().Zoom)
	assert.False(t, e.CanZoomOut())

	e.ZoomOut()
	assert.Equal(t, domain.MinZoom, e.State().Zoom, "zoom out at the floor is a no-op")
}

func TestEngine_Steps(t *testing.T) {
	e := viewport.New()
	assert.Equal(t, 125, e.ZoomIn().Zoom)
	assert.Equal(t, 100, e.ZoomOut().Zoom)
	assert.Equal(t, 90, e.Wheel(3).Zoom)
	assert.Equal(t, 100, e.Wheel(-3).Zoom)
}

func TestEngine_ResetFromAnyState(t *testing.T) {
	e := viewport.New()
	e.ZoomBy(75)
	e.PanStart(domain.Point{X: 10, Y: 10})
	e.PanMove(domain.Point{X: 60, Y: -20})

	got := e.Reset()
	assert.Equal(t, domain.DefaultViewport(), got)
	assert.False(t, e.Panning())
}

func TestEngine_Pan(t *testing.T) {
	e := viewport.New()

	// Moving without a drag does nothing.
	e.PanMove(domain.Point{X: 50, Y: 50})
	assert.Equal(t, domain.Point{}, e.State().Pan())

	e.PanStart(domain.Point{X: 100, Y: 100})
	e.PanMove(domain.Point{X: 130, Y: 80})
	assert.Equal(t, domain.Point{X: 30, Y: -20}, e.State().Pan())
	e.PanEnd()

	// Second drag continues from the previous offset.
	e.PanStart(domain.Point{X: 0, Y: 0})
	e.PanMove(domain.Point{X: 5, Y: 5})
	assert.Equal(t, domain.Point{X: 35, Y: -15}, e.State().Pan())
	e.PanEnd()

	e.PanMove(domain.Point{X: 500, Y: 500})
	assert.Equal(t, domain.Point{X: 35, Y: -15}, e.State().Pan())
}

func TestEngine_PanAllowedAtAnyZoom(t *testing.T) {
	e := viewport.New()
	e.ZoomBy(-75)
	require.Equal(t, domain.MinZoom, e.State().Zoom)

	e.PanStart(domain.Point{})
	e.PanMove(domain.Point{X: 12, Y: 0})
	assert.Equal(t, 12.0, e.State().PanX)
}

func TestEngine_Transform(t *testing.T) {
	e := viewport.New()
	assert.Equal(t, "scale(1) translate(0px, 0px)", e.Transform())

	e.ZoomIn()
	e.PanStart(domain.Point{})
	e.PanMove(domain.Point{X: 8, Y: -4})
	assert.Equal(t, "scale(1.25) translate(8px, -4px)", e.Transform())

	m := e.Matrix()
	assert.Equal(t, viewport.Matrix{1.25, 0, 0, 1.25, 10, -5}, m)
	assert.Equal(t, domain.Point{X: 10, Y: -5}, m.Apply(domain.Point{}))
}

func TestEngine_Subscribe(t *testing.T) {
	e := viewport.New()
	var seen []int
	e.Subscribe(func(s domain.ViewportState) { seen = append(seen, s.Zoom) })

	e.ZoomIn()
	e.ZoomBy(1000)
	e.ZoomIn() // already at max, no change
	e.Reset()

	assert.Equal(t, []int{125, 300, 100}, seen)
}

func TestEngine_HandleKey(t *testing.T) {
	active := viewport.Focus{Focused: true, HasImage: true}

	tests := []struct {
		name     string
		key      viewport.Key
		focus    viewport.Focus
		consumed bool
		zoom     int
	}{
		{"plus", viewport.Key{Rune: '+'}, active, true, 125},
		{"ctrl equals", viewport.Key{Rune: '=', Ctrl: true}, active, true, 125},
		{"bare equals", viewport.Key{Rune: '='}, active, false, 100},
		{"minus", viewport.Key{Rune: '-'}, active, true, 75},
		{"zero", viewport.Key{Rune: '0'}, active, true, 100},
		{"unfocused", viewport.Key{Rune: '+'}, viewport.Focus{HasImage: true}, false, 100},
		{"no image", viewport.Key{Rune: '+'}, viewport.Focus{Focused: true}, false, 100},
		{"other key", viewport.Key{Rune: 'x'}, active, false, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := viewport.New()
			assert.Equal(t, tt.consumed, e.HandleKey(tt.key, tt.focus))
			assert.Equal(t, tt.zoom, e.State().Zoom)
		})
	}
}
