package executor

import (
	"sync"

	"github.com/rs/zerolog"
)

// jobQueue is a single-consumer FIFO: jobs are appended under a mutex and a
// lone worker goroutine pops and runs them in order. The worker exits when
// the queue drains and is relaunched by the next AddJob. Deactivating pauses
// dispatch after the current job; reactivating relaunches immediately with
// any accumulated jobs.
type jobQueue struct {
	logger zerolog.Logger

	mu      sync.Mutex
	jobs    []func()
	active  bool
	running bool
}

// newJobQueue creates an active, empty queue.
func newJobQueue(logger zerolog.Logger) *jobQueue {
	return &jobQueue{logger: logger, active: true}
}

// AddJob appends a job and ensures the worker is running while the queue is
// active.
func (q *jobQueue) AddJob(job func()) {
	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	q.mu.Unlock()
	q.launch()
}

// Activate resumes dispatch, relaunching the worker if jobs accumulated.
func (q *jobQueue) Activate() {
	q.mu.Lock()
	if q.active {
		q.mu.Unlock()
		return
	}
	q.active = true
	q.mu.Unlock()
	q.launch()
}

// Deactivate pauses dispatch. The job currently running finishes; queued
// jobs are kept for a later Activate.
func (q *jobQueue) Deactivate() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.active = false
}

// IsActive reports whether the queue dispatches jobs.
func (q *jobQueue) IsActive() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active
}

// Pending returns the number of jobs waiting to run.
func (q *jobQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

func (q *jobQueue) launch() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running || !q.active || len(q.jobs) == 0 {
		return
	}
	q.running = true
	go q.run()
}

// run drains the queue head-first. Jobs must not propagate panics out of
// the worker; runSafely logs and swallows them.
func (q *jobQueue) run() {
	for {
		q.mu.Lock()
		if len(q.jobs) == 0 || !q.active {
			q.running = false
			q.mu.Unlock()
			return
		}
		job := q.jobs[0]
		q.jobs = q.jobs[1:]
		q.mu.Unlock()

		runSafely(q.logger, job)
	}
}
