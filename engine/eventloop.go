package engine

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vldtecno/PTN-Engine-sub000/executor"
)

// defaultSleepDuration is the loop's wait between firing iterations when no
// input event arrives.
const defaultSleepDuration = 100 * time.Millisecond

// loopDriver is what the event loop needs from the engine. Kept narrow so
// the loop can be exercised with a stub.
type loopDriver interface {
	fireIteration(logState bool, w io.Writer) bool
	newInputReceived() bool
	actionsMode() executor.Mode
}

// eventLoop drives firing iterations on a background goroutine. When an
// iteration fires nothing, the loop waits for up to the sleep duration,
// waking early on NotifyNewEvent.
type eventLoop struct {
	driver loopDriver

	startMu sync.Mutex // serializes Start and Stop
	running atomic.Bool
	stopCh  chan struct{}
	done    chan struct{}

	notify chan struct{}

	sleepMu sync.RWMutex
	sleep   time.Duration
}

func newEventLoop(driver loopDriver) *eventLoop {
	return &eventLoop{
		driver: driver,
		notify: make(chan struct{}, 1),
		sleep:  defaultSleepDuration,
	}
}

// Start begins execution. Rejects a second start while running. Under
// SingleThread it iterates synchronously on the caller until quiescence and
// never enters the running state; otherwise it spawns the loop goroutine.
func (l *eventLoop) Start(logState bool, w io.Writer) error {
	l.startMu.Lock()
	defer l.startMu.Unlock()

	if l.running.Load() {
		return ErrAlreadyRunning
	}

	if l.driver.actionsMode() == executor.SingleThread {
		for l.driver.fireIteration(logState, w) {
		}
		return nil
	}

	// Drop a notification left over from a previous run.
	select {
	case <-l.notify:
	default:
	}

	l.stopCh = make(chan struct{})
	l.done = make(chan struct{})
	l.running.Store(true)
	go l.run(logState, w)
	return nil
}

// run is the loop goroutine body. A stop request only prevents new
// iterations; a callback already handed to the executor is not interrupted.
func (l *eventLoop) run(logState bool, w io.Writer) {
	defer close(l.done)

	for {
		select {
		case <-l.stopCh:
			return
		default:
		}

		if l.driver.fireIteration(logState, w) {
			continue
		}
		if l.driver.newInputReceived() {
			continue
		}

		timer := time.NewTimer(l.SleepDuration())
		select {
		case <-l.stopCh:
			timer.Stop()
			return
		case <-l.notify:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// Stop requests termination, wakes the loop, and joins its goroutine.
// Idempotent and non-blocking when the loop is not running.
func (l *eventLoop) Stop() {
	l.startMu.Lock()
	defer l.startMu.Unlock()

	if !l.running.Load() {
		return
	}
	close(l.stopCh)
	<-l.done
	l.running.Store(false)
}

// IsRunning reports whether the loop goroutine is active.
func (l *eventLoop) IsRunning() bool {
	return l.running.Load()
}

// NotifyNewEvent wakes the loop from its wait. Never blocks.
func (l *eventLoop) NotifyNewEvent() {
	select {
	case l.notify <- struct{}{}:
	default:
	}
}

// SetSleepDuration changes the wait duration; the next wait uses the new
// value even if the loop is currently sleeping on the old one.
func (l *eventLoop) SetSleepDuration(d time.Duration) {
	l.sleepMu.Lock()
	defer l.sleepMu.Unlock()
	l.sleep = d
}

// SleepDuration returns the current wait duration.
func (l *eventLoop) SleepDuration() time.Duration {
	l.sleepMu.RLock()
	defer l.sleepMu.RUnlock()
	return l.sleep
}
