package ports_test

import (
	"testing"
	"time"

	"github.com/aretw0/umlpad/pkg/ports"
)

func TestSystemClock_AfterFunc(t *testing.T) {
	var clock ports.Clock = ports.SystemClock{}

	fired := make(chan struct{})
	clock.AfterFunc(5*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("AfterFunc callback did not fire")
	}
}

func TestSystemClock_StopPreventsFire(t *testing.T) {
	clock := ports.SystemClock{}

	fired := make(chan struct{}, 1)
	timer := clock.AfterFunc(20*time.Millisecond, func() { fired <- struct{}{} })
	if !timer.Stop() {
		t.Fatal("expected Stop to report a pending timer")
	}

	select {
	case <-fired:
		t.Fatal("stopped timer fired")
	case <-time.After(50 * time.Millisecond):
	}
}
