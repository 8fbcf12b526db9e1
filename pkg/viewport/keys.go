package viewport

// Key is a keyboard event delivered to the viewport.
type Key struct {
	Rune rune
	Ctrl bool
}

// Focus describes whether viewport shortcuts are currently allowed.
type Focus struct {
	Focused  bool // the viewport (or a child) has focus
	HasImage bool // an image is displayed
}

// HandleKey applies the zoom shortcut bound to k, if any.
// Shortcuts are only active while the viewport is focused and shows an image.
// It returns true when the key was consumed.
func (e *Engine) HandleKey(k Key, f Focus) bool {
	if !f.Focused || !f.HasImage {
		return false
	}

	switch {
	case k.Rune == '+' || (k.Ctrl && k.Rune == '='):
		e.ZoomIn()
	case k.Rune == '-':
		e.ZoomOut()
	case k.Rune == '0':
		e.Reset()
	default:
		return false
	}
	return true
}
