package executor

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestModeStringRoundTrip(t *testing.T) {
	for _, mode := range []Mode{SingleThread, EventLoop, JobQueue, Detached} {
		parsed, err := ParseMode(mode.String())
		if err != nil {
			t.Errorf("ParseMode(%q) failed: %v", mode.String(), err)
		}
		if parsed != mode {
			t.Errorf("ParseMode(%q) = %v, want %v", mode.String(), parsed, mode)
		}
	}
}

func TestParseModeUnknown(t *testing.T) {
	if _, err := ParseMode("THREAD_POOL"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("ParseMode(THREAD_POOL) = %v, want ErrInvalidConfig", err)
	}
}

func TestNewUnknownMode(t *testing.T) {
	if _, err := New(Mode(99), zerolog.Nop()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("New(Mode(99)) = %v, want ErrInvalidConfig", err)
	}
}

func TestInlineExecutorRunsSynchronously(t *testing.T) {
	exec, err := New(SingleThread, zerolog.Nop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ran := false
	exec.Execute(func() { ran = true })
	if !ran {
		t.Error("inline job had not run when Execute returned")
	}
}

func TestDetachedExecutorRunsEventually(t *testing.T) {
	exec, err := New(Detached, zerolog.Nop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	exec.Execute(func() { wg.Done() })

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("detached job did not run within a second")
	}
}

func TestPanicRecoveredAtBoundary(t *testing.T) {
	for _, mode := range []Mode{SingleThread, JobQueue, Detached} {
		exec, err := New(mode, zerolog.Nop())
		if err != nil {
			t.Fatalf("New(%v) failed: %v", mode, err)
		}

		var wg sync.WaitGroup
		wg.Add(2)
		exec.Execute(func() { defer wg.Done(); panic("boom") })
		exec.Execute(func() { wg.Done() })

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("mode %v: jobs did not complete after a panic", mode)
		}
		exec.Shutdown()
	}
}
