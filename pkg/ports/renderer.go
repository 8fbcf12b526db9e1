package ports

import (
	"context"

	"github.com/aretw0/umlpad/pkg/domain"
)

// Renderer converts diagram source into an embeddable image payload (SVG markup).
type Renderer interface {
	// Render returns the image for source.
	// Errors should wrap domain.ErrTimeout, domain.ErrNetwork or be a *domain.RejectedError
	// so that domain.Classify can tell them apart.
	Render(ctx context.Context, source string) (string, error)
}

// HealthChecker probes the render service.
type HealthChecker interface {
	Health(ctx context.Context) (domain.HealthStatus, error)
}

// RenderService is the full remote surface consumed by the editor.
type RenderService interface {
	Renderer
	HealthChecker
}
