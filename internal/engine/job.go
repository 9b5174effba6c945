// Package engine schedules multi-step synthesis jobs onto a single inference
// backend. Jobs run strictly in arrival order, one at a time, matching the
// backend's single-session invocation model.
package engine

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// State is the lifecycle state of a Job. Transitions are monotonic: once a
// job reaches Completed or Canceled it never leaves that state.
type State int32

const (
	Queued State = iota
	Running
	Completed
	Canceled
)

func (s State) String() string {
	switch s {
	case Queued:
		return "queued"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Canceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is Completed or Canceled.
func (s State) Terminal() bool {
	return s == Completed || s == Canceled
}

// Step is one atomic unit of inference work: a token sequence, the voice
// style conditioning it, a speed scalar, and a completion callback invoked
// with the resulting samples. The callback is invoked at most once; a
// canceled job's remaining callbacks are never invoked at all.
type Step struct {
	Tokens     []int64
	Style      []float32
	Speed      float32
	OnComplete func(samples []float32)
}

// Job is an ordered sequence of steps plus a state machine. Once enqueued it
// is owned by the engine; callers keep the handle only to cancel it and to
// observe its terminal state.
type Job struct {
	id    string
	steps []Step

	state atomic.Int32

	doneOnce sync.Once
	done     chan struct{}
}

// NewJob builds a job from its steps.
func NewJob(steps []Step) *Job {
	return &Job{
		id:    uuid.NewString(),
		steps: steps,
		done:  make(chan struct{}),
	}
}

// ID returns the job's unique identifier.
func (j *Job) ID() string { return j.id }

// Steps returns the number of steps in the job.
func (j *Job) Steps() int { return len(j.steps) }

// State returns the job's current state.
func (j *Job) State() State { return State(j.state.Load()) }

// Done returns a channel closed when the job reaches a terminal state.
func (j *Job) Done() <-chan struct{} { return j.done }

// Cancel marks the job Canceled. It is idempotent, safe to call from any
// goroutine at any time, and a no-op once the job is terminal. Cancellation
// silences all callbacks that have not yet fired; it is not an event and
// triggers no callback of its own.
func (j *Job) Cancel() {
	for {
		cur := State(j.state.Load())
		if cur.Terminal() {
			return
		}
		if j.state.CompareAndSwap(int32(cur), int32(Canceled)) {
			j.doneOnce.Do(func() { close(j.done) })
			return
		}
	}
}

// transition attempts from→to and reports success. Terminal states are
// sticky: any transition out of one fails.
func (j *Job) transition(from, to State) bool {
	if !j.state.CompareAndSwap(int32(from), int32(to)) {
		return false
	}
	if to.Terminal() {
		j.doneOnce.Do(func() { close(j.done) })
	}
	return true
}
