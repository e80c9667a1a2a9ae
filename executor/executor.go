package executor

import (
	"fmt"

	"github.com/rs/zerolog"
)

// ActionsExecutor runs a callback under one of the threading disciplines.
//
// A panic in a callback is recovered at this boundary, logged, and
// swallowed: the net must remain live whatever user code does.
type ActionsExecutor interface {
	// Execute runs or schedules the callback.
	Execute(job func())

	// Shutdown releases any worker resources. Pending jobs of a job-queue
	// executor are abandoned. Safe to call more than once.
	Shutdown()
}

// New creates the executor for the given mode. SingleThread and EventLoop
// share the inline executor; the distinction is who calls Execute.
func New(mode Mode, logger zerolog.Logger) (ActionsExecutor, error) {
	switch mode {
	case SingleThread, EventLoop:
		return &inlineExecutor{logger: logger}, nil
	case JobQueue:
		return &jobQueueExecutor{queue: newJobQueue(logger)}, nil
	case Detached:
		return &detachedExecutor{logger: logger}, nil
	default:
		return nil, fmt.Errorf("%w: actions thread option %v", ErrInvalidConfig, mode)
	}
}

// runSafely runs a job, converting a panic into a log entry.
func runSafely(logger zerolog.Logger, job func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("action panicked")
		}
	}()
	job()
}

// inlineExecutor runs the callback on the calling goroutine. Ordering is
// identical to firing order.
type inlineExecutor struct {
	logger zerolog.Logger
}

func (e *inlineExecutor) Execute(job func()) {
	runSafely(e.logger, job)
}

func (e *inlineExecutor) Shutdown() {}

// detachedExecutor spawns a goroutine per callback. The callback's lifetime
// is independent of the firing loop.
type detachedExecutor struct {
	logger zerolog.Logger
}

func (e *detachedExecutor) Execute(job func()) {
	go runSafely(e.logger, job)
}

func (e *detachedExecutor) Shutdown() {}

// jobQueueExecutor hands callbacks to a single-worker FIFO.
type jobQueueExecutor struct {
	queue *jobQueue
}

func (e *jobQueueExecutor) Execute(job func()) {
	e.queue.AddJob(job)
}

func (e *jobQueueExecutor) Shutdown() {
	e.queue.Deactivate()
}
