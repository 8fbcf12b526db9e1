package supervisor_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/umlpad/internal/testutils"
	"github.com/aretw0/umlpad/pkg/domain"
	"github.com/aretw0/umlpad/pkg/supervisor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDown = errors.New("connection refused")

func failing(context.Context) (domain.HealthStatus, error) {
	return domain.HealthStatus{}, errDown
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, 700*time.Millisecond, supervisor.Backoff(1))
	assert.Equal(t, 900*time.Millisecond, supervisor.Backoff(2))
	assert.Equal(t, 1900*time.Millisecond, supervisor.Backoff(7))
	assert.Equal(t, 2*time.Second, supervisor.Backoff(8))
	assert.Equal(t, 2*time.Second, supervisor.Backoff(9))
}

func TestSupervisor_StartOnline(t *testing.T) {
	svc := &testutils.StubService{}
	sup := supervisor.New(svc, supervisor.WithClock(testutils.NewFakeClock()))

	var seen []domain.Availability
	sup.Subscribe(func(a domain.Availability) { seen = append(seen, a) })

	require.NoError(t, sup.Start(context.Background()))
	assert.Equal(t, domain.AvailabilityOnline, sup.State())
	assert.Equal(t, 0, sup.Attempt())
	assert.Equal(t, 1, svc.HealthCalls())
	assert.Equal(t, []domain.Availability{domain.AvailabilityOnline}, seen)
}

func TestSupervisor_StartExhausted(t *testing.T) {
	clock := testutils.NewFakeClock()
	svc := &testutils.StubService{}

	var (
		mu       sync.Mutex
		attempts []int
		states   []domain.Availability
	)
	sup := supervisor.New(svc, supervisor.WithClock(clock), supervisor.WithMaxAttempts(3))
	svc.SetHealth(func(context.Context) (domain.HealthStatus, error) {
		mu.Lock()
		attempts = append(attempts, sup.Attempt())
		states = append(states, sup.State())
		mu.Unlock()
		return domain.HealthStatus{}, errDown
	})

	done := make(chan error, 1)
	go func() { done <- sup.Start(context.Background()) }()

	clock.BlockUntil(1)
	clock.Advance(699 * time.Millisecond)
	assert.Equal(t, 1, svc.HealthCalls(), "backoff has not elapsed")
	clock.Advance(time.Millisecond)

	clock.BlockUntil(1)
	clock.Advance(900 * time.Millisecond)

	select {
	case err := <-done:
		require.ErrorIs(t, err, domain.ErrServiceUnavailable)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 3}, attempts)
	for _, s := range states {
		assert.Equal(t, domain.AvailabilityChecking, s, "failures are deferred during the startup loop")
	}
	assert.Equal(t, domain.AvailabilityOffline, sup.State())
	assert.Equal(t, 0, sup.Attempt())
	assert.Equal(t, 0, clock.Pending(), "no wait after the last attempt")
}

func TestSupervisor_StartRecovers(t *testing.T) {
	clock := testutils.NewFakeClock()
	calls := 0
	svc := &testutils.StubService{HealthFunc: func(context.Context) (domain.HealthStatus, error) {
		calls++
		if calls < 3 {
			return domain.HealthStatus{}, errDown
		}
		return domain.HealthStatus{Status: "OK"}, nil
	}}
	sup := supervisor.New(svc, supervisor.WithClock(clock))

	done := make(chan error, 1)
	go func() { done <- sup.Start(context.Background()) }()

	clock.BlockUntil(1)
	clock.Advance(700 * time.Millisecond)
	clock.BlockUntil(1)
	clock.Advance(900 * time.Millisecond)

	require.NoError(t, <-done)
	assert.Equal(t, domain.AvailabilityOnline, sup.State())
	assert.Equal(t, 0, sup.Attempt())
}

func TestSupervisor_StartCancelled(t *testing.T) {
	clock := testutils.NewFakeClock()
	sup := supervisor.New(&testutils.StubService{HealthFunc: failing}, supervisor.WithClock(clock))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Start(ctx) }()

	clock.BlockUntil(1)
	cancel()

	require.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, domain.AvailabilityChecking, sup.State())
}

func TestSupervisor_RetryEndsStartupLoop(t *testing.T) {
	clock := testutils.NewFakeClock()
	svc := &testutils.StubService{HealthFunc: failing}
	sup := supervisor.New(svc, supervisor.WithClock(clock), supervisor.WithMaxAttempts(2))

	done := make(chan error, 1)
	go func() { done <- sup.Start(context.Background()) }()
	clock.BlockUntil(1)

	svc.SetHealth(nil)
	require.NoError(t, sup.Retry(context.Background()))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start kept probing after a successful retry")
	}

	svc.SetHealth(failing)
	clock.Advance(time.Second)

	assert.Equal(t, domain.AvailabilityOnline, sup.State())
	assert.Equal(t, 0, sup.Attempt())
	assert.Equal(t, 2, svc.HealthCalls(), "one startup probe and the retry")
}

func TestSupervisor_ProbeAndRetry(t *testing.T) {
	svc := &testutils.StubService{HealthFunc: failing}
	sup := supervisor.New(svc, supervisor.WithClock(testutils.NewFakeClock()))

	var seen []domain.Availability
	sup.Subscribe(func(a domain.Availability) { seen = append(seen, a) })

	err := sup.Probe(context.Background())
	require.ErrorIs(t, err, errDown)
	assert.Equal(t, domain.AvailabilityOffline, sup.State())

	svc.SetHealth(nil)
	require.NoError(t, sup.Retry(context.Background()))
	assert.Equal(t, domain.AvailabilityOnline, sup.State())

	assert.Equal(t, []domain.Availability{
		domain.AvailabilityOffline,
		domain.AvailabilityChecking,
		domain.AvailabilityOnline,
	}, seen)
}

func TestSupervisor_Hooks(t *testing.T) {
	var probes []*domain.ProbeEvent
	var changes []*domain.AvailabilityEvent
	hooks := domain.LifecycleHooks{
		OnProbe:        func(_ context.Context, e *domain.ProbeEvent) { probes = append(probes, e) },
		OnAvailability: func(_ context.Context, e *domain.AvailabilityEvent) { changes = append(changes, e) },
	}
	sup := supervisor.New(&testutils.StubService{}, supervisor.WithHooks(hooks))

	require.NoError(t, sup.Start(context.Background()))

	require.Len(t, probes, 1)
	assert.True(t, probes[0].OK)
	assert.Equal(t, 1, probes[0].Attempt)
	require.Len(t, changes, 1)
	assert.Equal(t, domain.AvailabilityChecking, changes[0].From)
	assert.Equal(t, domain.AvailabilityOnline, changes[0].To)
}
