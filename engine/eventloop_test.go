package engine

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/vldtecno/PTN-Engine-sub000/executor"
	"github.com/vldtecno/PTN-Engine-sub000/petri"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

// An input event must wake the loop well before the sleep duration elapses.
func TestInputEventWakesLoop(t *testing.T) {
	e := mustEngine(t, executor.EventLoop)
	mustCreatePlace(t, e, petri.PlaceProperties{Name: "In", Input: true})
	mustCreatePlace(t, e, petri.PlaceProperties{Name: "Out"})
	mustCreateTransition(t, e, petri.TransitionProperties{
		Name:            "T",
		ActivationArcs:  []petri.ArcProperties{{PlaceName: "In"}},
		DestinationArcs: []petri.ArcProperties{{PlaceName: "Out"}},
	})

	// A long sleep makes an accidental timer wake-up impossible.
	e.SetEventLoopSleepDuration(time.Minute)
	if err := e.Execute(false, nil); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	defer e.Stop()

	// Let the loop reach its wait first.
	time.Sleep(20 * time.Millisecond)

	start := time.Now()
	if err := e.IncrementInputPlace("In"); err != nil {
		t.Fatalf("IncrementInputPlace failed: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool {
		n, err := e.GetNumberOfTokens("Out")
		return err == nil && n == 1
	})
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("firing took %v despite the input notification", elapsed)
	}
}

// Without an input event the loop still picks up enabled transitions after
// at most one sleep duration.
func TestLoopWakesAfterSleepDuration(t *testing.T) {
	e := mustEngine(t, executor.EventLoop)
	mustCreatePlace(t, e, petri.PlaceProperties{Name: "P", InitialNumberOfTokens: 1})
	mustCreatePlace(t, e, petri.PlaceProperties{Name: "Q"})
	var enabled atomic.Bool
	if err := e.RegisterCondition("gate", enabled.Load); err != nil {
		t.Fatalf("RegisterCondition failed: %v", err)
	}
	mustCreateTransition(t, e, petri.TransitionProperties{
		Name:                      "T",
		ActivationArcs:            []petri.ArcProperties{{PlaceName: "P"}},
		DestinationArcs:           []petri.ArcProperties{{PlaceName: "Q"}},
		AdditionalConditionsNames: []string{"gate"},
	})

	e.SetEventLoopSleepDuration(20 * time.Millisecond)
	if err := e.Execute(false, nil); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	defer e.Stop()

	enabled.Store(true)
	waitFor(t, 2*time.Second, func() bool {
		n, err := e.GetNumberOfTokens("Q")
		return err == nil && n == 1
	})
}

func TestSingleThreadExecuteRunsToQuiescence(t *testing.T) {
	e := mustEngine(t, executor.SingleThread)
	mustCreatePlace(t, e, petri.PlaceProperties{Name: "P", InitialNumberOfTokens: 5})
	mustCreatePlace(t, e, petri.PlaceProperties{Name: "Q"})
	mustCreateTransition(t, e, petri.TransitionProperties{
		Name:            "T",
		ActivationArcs:  []petri.ArcProperties{{PlaceName: "P"}},
		DestinationArcs: []petri.ArcProperties{{PlaceName: "Q"}},
	})

	if err := e.Execute(false, nil); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if e.IsEventLoopRunning() {
		t.Error("IsEventLoopRunning() = true after single-thread Execute")
	}
	if got := tokens(t, e, "Q"); got != 5 {
		t.Errorf("Q tokens = %d, want 5", got)
	}
}

// Changing the sleep duration while the loop is sleeping applies to the
// next wait.
func TestSleepDurationChangesWhileRunning(t *testing.T) {
	e := mustEngine(t, executor.EventLoop)
	mustCreatePlace(t, e, petri.PlaceProperties{Name: "P", InitialNumberOfTokens: 1})
	mustCreatePlace(t, e, petri.PlaceProperties{Name: "Q"})
	var enabled atomic.Bool
	if err := e.RegisterCondition("gate", enabled.Load); err != nil {
		t.Fatalf("RegisterCondition failed: %v", err)
	}
	mustCreateTransition(t, e, petri.TransitionProperties{
		Name:                      "T",
		ActivationArcs:            []petri.ArcProperties{{PlaceName: "P"}},
		DestinationArcs:           []petri.ArcProperties{{PlaceName: "Q"}},
		AdditionalConditionsNames: []string{"gate"},
	})

	e.SetEventLoopSleepDuration(50 * time.Millisecond)
	if err := e.Execute(false, nil); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	defer e.Stop()

	e.SetEventLoopSleepDuration(10 * time.Millisecond)
	if got := e.GetEventLoopSleepDuration(); got != 10*time.Millisecond {
		t.Errorf("sleep duration = %v, want 10ms", got)
	}

	enabled.Store(true)
	waitFor(t, 2*time.Second, func() bool {
		n, err := e.GetNumberOfTokens("Q")
		return err == nil && n == 1
	})
}
