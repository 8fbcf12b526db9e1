package testutils

import (
	"context"
	"sync"

	"github.com/aretw0/umlpad/pkg/domain"
)

// StubService is a scriptable ports.RenderService.
// RenderFunc and HealthFunc default to success when nil.
type StubService struct {
	mu          sync.Mutex
	RenderFunc  func(ctx context.Context, source string) (string, error)
	HealthFunc  func(ctx context.Context) (domain.HealthStatus, error)
	renderCalls []string
	healthCalls int
}

// Render records the call and delegates to RenderFunc.
func (s *StubService) Render(ctx context.Context, source string) (string, error) {
	s.mu.Lock()
	s.renderCalls = append(s.renderCalls, source)
	fn := s.RenderFunc
	s.mu.Unlock()

	if fn == nil {
		return "<svg>" + source + "</svg>", nil
	}
	return fn(ctx, source)
}

// Health records the call and delegates to HealthFunc.
func (s *StubService) Health(ctx context.Context) (domain.HealthStatus, error) {
	s.mu.Lock()
	s.healthCalls++
	fn := s.HealthFunc
	s.mu.Unlock()

	if fn == nil {
		return domain.HealthStatus{Status: "OK"}, nil
	}
	return fn(ctx)
}

// RenderCalls returns the sources passed to Render so far.
func (s *StubService) RenderCalls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.renderCalls...)
}

// HealthCalls returns how many probes were made.
func (s *StubService) HealthCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.healthCalls
}

// SetHealth swaps HealthFunc under the lock.
func (s *StubService) SetHealth(fn func(ctx context.Context) (domain.HealthStatus, error)) {
	s.mu.Lock()
	s.HealthFunc = fn
	s.mu.Unlock()
}

// SetRender swaps RenderFunc under the lock.
func (s *StubService) SetRender(fn func(ctx context.Context, source string) (string, error)) {
	s.mu.Lock()
	s.RenderFunc = fn
	s.mu.Unlock()
}
