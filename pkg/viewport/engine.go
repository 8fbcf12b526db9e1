package viewport

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/aretw0/umlpad/pkg/domain"
)

// Engine owns the ViewportState of the displayed image.
// Safe for concurrent use.
type Engine struct {
	mu    sync.RWMutex
	state domain.ViewportState

	panning   bool
	panOrigin domain.Point // pointer position at PanStart
	panBase   domain.Point // pan offset at PanStart

	subs []func(domain.ViewportState)
}

// New returns an engine at the default viewport (100%, no pan).
func New() *Engine {
	return &Engine{state: domain.DefaultViewport()}
}

// State returns a copy of the current viewport.
func (e *Engine) State() domain.ViewportState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Subscribe registers fn to be called after every change.
func (e *Engine) Subscribe(fn func(domain.ViewportState)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs = append(e.subs, fn)
}

// ZoomIn increases zoom by one step.
func (e *Engine) ZoomIn() domain.ViewportState {
	return e.ZoomBy(domain.ZoomStep)
}

// ZoomOut decreases zoom by one step.
func (e *Engine) ZoomOut() domain.ViewportState {
	return e.ZoomBy(-domain.ZoomStep)
}

// ZoomBy applies an arbitrary signed delta, clamped to the zoom range.
func (e *Engine) ZoomBy(delta int) domain.ViewportState {
	return e.update(func(s *domain.ViewportState) {
		s.Zoom = clampZoom(s.Zoom + delta)
	})
}

// Wheel maps a wheel delta to a zoom change: scrolling down zooms out.
func (e *Engine) Wheel(deltaY float64) domain.ViewportState {
	if deltaY > 0 {
		return e.ZoomBy(-domain.WheelStep)
	}
	return e.ZoomBy(domain.WheelStep)
}

// Reset restores 100% zoom and clears the pan offset.
// An active pan is abandoned.
func (e *Engine) Reset() domain.ViewportState {
	return e.update(func(s *domain.ViewportState) {
		*s = domain.DefaultViewport()
		e.panning = false
	})
}

// PanStart begins a drag at pointer p.
func (e *Engine) PanStart(p domain.Point) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.panning = true
	e.panOrigin = p
	e.panBase = e.state.Pan()
}

// PanMove moves the image with the pointer while a drag is active.
// It is a no-op otherwise.
func (e *Engine) PanMove(p domain.Point) domain.ViewportState {
	e.mu.RLock()
	active := e.panning
	e.mu.RUnlock()
	if !active {
		return e.State()
	}

	return e.update(func(s *domain.ViewportState) {
		if !e.panning {
			return
		}
		s.PanX = p.X - e.panOrigin.X + e.panBase.X
		s.PanY = p.Y - e.panOrigin.Y + e.panBase.Y
	})
}

// PanEnd finishes the current drag.
func (e *Engine) PanEnd() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.panning = false
}

// Panning reports whether a drag is active.
func (e *Engine) Panning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.panning
}

// CanZoomIn reports whether ZoomIn would change the zoom.
func (e *Engine) CanZoomIn() bool {
	return e.State().Zoom < domain.MaxZoom
}

// CanZoomOut reports whether ZoomOut would change the zoom.
func (e *Engine) CanZoomOut() bool {
	return e.State().Zoom > domain.MinZoom
}

// Transform returns the CSS transform for the current state.
// It is meant to be applied with transform-origin at the center.
func (e *Engine) Transform() string {
	return CSS(e.State())
}

// Matrix returns the affine matrix for the current state.
func (e *Engine) Matrix() Matrix {
	return MatrixOf(e.State())
}

func (e *Engine) update(mutate func(*domain.ViewportState)) domain.ViewportState {
	e.mu.Lock()
	before := e.state
	mutate(&e.state)
	after := e.state
	subs := append([]func(domain.ViewportState){}, e.subs...)
	e.mu.Unlock()

	if after != before {
		for _, fn := range subs {
			fn(after)
		}
	}
	return after
}

func clampZoom(z int) int {
	return max(domain.MinZoom, min(domain.MaxZoom, z))
}

// Matrix is a 2D affine transform in CSS matrix(a, b, c, d, e, f) order.
type Matrix [6]float64

// MatrixOf returns scale(zoom/100) ∘ translate(pan) as a matrix.
// A point p maps to scale*(p + pan).
func MatrixOf(s domain.ViewportState) Matrix {
	scale := float64(s.Zoom) / 100
	return Matrix{scale, 0, 0, scale, scale * s.PanX, scale * s.PanY}
}

// Apply maps p (relative to the image center) through the matrix.
func (m Matrix) Apply(p domain.Point) domain.Point {
	return domain.Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// CSS renders s as a CSS transform value.
func CSS(s domain.ViewportState) string {
	return fmt.Sprintf("scale(%s) translate(%spx, %spx)",
		formatFloat(float64(s.Zoom)/100), formatFloat(s.PanX), formatFloat(s.PanY))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
