package domain

// Point is a pointer position in screen pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ViewportState is the zoom and pan applied to the displayed image.
type ViewportState struct {
	Zoom int     `json:"zoom"`
	PanX float64 `json:"pan_x"`
	PanY float64 `json:"pan_y"`
}

// DefaultViewport returns the state a new image starts with.
func DefaultViewport() ViewportState {
	return ViewportState{Zoom: DefaultZoom}
}

// Pan returns the pan offset as a Point.
func (v ViewportState) Pan() Point {
	return Point{X: v.PanX, Y: v.PanY}
}
