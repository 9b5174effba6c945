package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrEngineClosed is returned by Enqueue after Shutdown has begun.
var ErrEngineClosed = errors.New("engine is shut down")

// Engine owns a FIFO queue of jobs and a single dispatcher goroutine that
// drains it. The queue is the only mutable state shared between caller
// goroutines and the dispatcher.
type Engine struct {
	backend Backend
	log     *slog.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []*Job
	current *Job
	closed  bool

	stopped chan struct{} // closed when the dispatcher exits
}

// New starts an engine over the given backend. The dispatcher goroutine runs
// until Shutdown.
func New(backend Backend, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{
		backend: backend,
		log:     log,
		stopped: make(chan struct{}),
	}
	e.cond = sync.NewCond(&e.mu)
	go e.dispatch()
	return e
}

// Enqueue appends a job to the queue. The returned job handle is the one
// passed in; callers use it to cancel or to wait on Done.
func (e *Engine) Enqueue(job *Job) (*Job, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrEngineClosed
	}

	e.queue = append(e.queue, job)
	e.cond.Signal()
	return job, nil
}

// Shutdown stops the dispatcher after the step currently in flight, cancels
// every queued or running job, waits for the dispatcher to observe the stop
// signal, and releases the backend. In-flight inference is not interrupted;
// its result is discarded because the job is already Canceled. Safe to call
// more than once.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		<-e.stopped
		return
	}
	e.closed = true
	for _, job := range e.queue {
		job.Cancel()
	}
	e.queue = nil
	if e.current != nil {
		e.current.Cancel()
	}
	e.cond.Broadcast()
	e.mu.Unlock()

	<-e.stopped

	if err := e.backend.Close(); err != nil {
		e.log.Warn("backend close failed", "error", err)
	}
}

// dispatch is the single consumer loop. It blocks on an empty queue and
// wakes on enqueue or shutdown; that wait is the loop's only suspension
// point.
func (e *Engine) dispatch() {
	defer close(e.stopped)

	for {
		e.mu.Lock()
		for len(e.queue) == 0 && !e.closed {
			e.cond.Wait()
		}
		if e.closed {
			// Anything that arrived between the broadcast and this wake has
			// already been rejected by Enqueue; cancel stragglers anyway.
			for _, job := range e.queue {
				job.Cancel()
			}
			e.queue = nil
			e.mu.Unlock()
			return
		}
		job := e.queue[0]
		e.queue = e.queue[1:]
		e.current = job
		e.mu.Unlock()

		e.run(job)

		e.mu.Lock()
		e.current = nil
		e.mu.Unlock()
	}
}

// run progresses one job step by step, strictly in index order. The
// cancellation flag is consulted before submitting each step and again
// before invoking its callback, bounding wasted work to at most one
// in-flight inference call per canceled job.
func (e *Engine) run(job *Job) {
	if !job.transition(Queued, Running) {
		// Canceled while queued.
		return
	}

	for i := range job.steps {
		if job.State() == Canceled {
			return
		}

		step := &job.steps[i]
		tokens := step.Tokens
		if len(tokens) > MaxTokens {
			e.log.Debug("truncating step tokens", "job", job.ID(), "step", i, "tokens", len(tokens))
			tokens = tokens[:MaxTokens]
		}

		samples, err := e.backend.Infer(context.Background(), tokens, step.Style, step.Speed)
		if err != nil {
			e.log.Error("inference failed", "job", job.ID(), "step", i, "error", err)
			job.Cancel()
			return
		}

		if job.State() == Canceled {
			// The call was already in flight when the job was canceled;
			// discard its result and stay silent.
			return
		}

		e.invokeCallback(job, i, step, samples)
	}

	job.transition(Running, Completed)
}

// invokeCallback isolates the caller-supplied callback so a panic inside it
// cannot corrupt the dispatcher loop or block subsequent jobs.
func (e *Engine) invokeCallback(job *Job, i int, step *Step, samples []float32) {
	if step.OnComplete == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("step callback panicked", "job", job.ID(), "step", i, "panic", r)
		}
	}()
	step.OnComplete(samples)
}
