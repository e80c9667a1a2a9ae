// Package executor provides the strategies for running place callbacks:
// inline on the calling thread, enqueued on a shared single-worker job
// queue, or on a detached goroutine per callback. The strategy is selected
// once per net and stored behind the ActionsExecutor interface so the hot
// firing path never branches on the mode.
package executor

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig reports an unknown actions thread option.
var ErrInvalidConfig = errors.New("executor: invalid configuration")

// Mode selects where place callbacks run.
type Mode int

const (
	// SingleThread runs callbacks inline on the calling goroutine, before
	// the caller returns.
	SingleThread Mode = iota
	// EventLoop runs callbacks inline like SingleThread. Callbacks of
	// firings run on the event-loop goroutine; the on-enter action of an
	// input place runs on the goroutine that injects the token.
	EventLoop
	// JobQueue appends callbacks to a shared FIFO drained by one worker.
	JobQueue
	// Detached spawns a goroutine per callback; no ordering guarantees.
	Detached
)

// String returns the mode's wire name.
func (m Mode) String() string {
	switch m {
	case SingleThread:
		return "SINGLE_THREAD"
	case EventLoop:
		return "EVENT_LOOP"
	case JobQueue:
		return "JOB_QUEUE"
	case Detached:
		return "DETACHED"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a wire name back to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "SINGLE_THREAD":
		return SingleThread, nil
	case "EVENT_LOOP":
		return EventLoop, nil
	case "JOB_QUEUE":
		return JobQueue, nil
	case "DETACHED":
		return Detached, nil
	default:
		return SingleThread, fmt.Errorf("%w: unknown actions thread option %q", ErrInvalidConfig, s)
	}
}
