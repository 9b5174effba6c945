package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeBackend records calls and can be gated to hold an inference in flight.
type fakeBackend struct {
	mu        sync.Mutex
	calls     [][]int64
	closed    bool
	err       error
	gate      chan struct{} // when non-nil, Infer blocks until it is closed
	submitted chan struct{} // receives one value per Infer entry when non-nil
}

func (f *fakeBackend) Infer(_ context.Context, tokens []int64, _ []float32, _ float32) ([]float32, error) {
	if f.submitted != nil {
		f.submitted <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	f.calls = append(f.calls, append([]int64(nil), tokens...))
	err := f.err
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return make([]float32, 16), nil
}

func (f *fakeBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func waitDone(t *testing.T, j *Job) {
	t.Helper()
	select {
	case <-j.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("job %s did not reach a terminal state (state=%v)", j.ID(), j.State())
	}
}

func singleStepJob(onComplete func([]float32)) *Job {
	return NewJob([]Step{{
		Tokens:     []int64{1, 2, 3},
		Style:      make([]float32, 4),
		Speed:      1.0,
		OnComplete: onComplete,
	}})
}

func TestCompletesJobAndFiresCallback(t *testing.T) {
	be := &fakeBackend{}
	e := New(be, nil)
	defer e.Shutdown()

	got := make(chan []float32, 1)
	job, err := e.Enqueue(singleStepJob(func(s []float32) { got <- s }))
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	waitDone(t, job)
	if job.State() != Completed {
		t.Fatalf("state = %v, want Completed", job.State())
	}
	select {
	case samples := <-got:
		if len(samples) == 0 {
			t.Fatal("callback received no samples")
		}
	default:
		t.Fatal("callback did not fire")
	}
}

func TestStrictFIFOOrdering(t *testing.T) {
	be := &fakeBackend{}
	e := New(be, nil)
	defer e.Shutdown()

	var mu sync.Mutex
	var order []string

	record := func(name string) func([]float32) {
		return func([]float32) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		}
	}

	a, _ := e.Enqueue(singleStepJob(record("a")))
	b, _ := e.Enqueue(singleStepJob(record("b")))

	waitDone(t, a)
	waitDone(t, b)

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("callback order = %v, want [a b]", order)
	}
}

func TestStepsRunInIndexOrder(t *testing.T) {
	be := &fakeBackend{}
	e := New(be, nil)
	defer e.Shutdown()

	var mu sync.Mutex
	var order []int

	steps := make([]Step, 3)
	for i := range steps {
		idx := i
		steps[i] = Step{
			Tokens: []int64{int64(i)},
			Speed:  1.0,
			OnComplete: func([]float32) {
				mu.Lock()
				order = append(order, idx)
				mu.Unlock()
			},
		}
	}

	job, _ := e.Enqueue(NewJob(steps))
	waitDone(t, job)

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Fatalf("step order = %v, want [0 1 2]", order)
	}
}

func TestCancelQueuedJobNeverRuns(t *testing.T) {
	gate := make(chan struct{})
	be := &fakeBackend{gate: gate, submitted: make(chan struct{}, 16)}
	e := New(be, nil)
	defer e.Shutdown()

	// First job occupies the dispatcher.
	blocker, _ := e.Enqueue(singleStepJob(nil))
	<-be.submitted

	fired := false
	queued, _ := e.Enqueue(singleStepJob(func([]float32) { fired = true }))
	queued.Cancel()

	close(gate)
	waitDone(t, blocker)
	waitDone(t, queued)

	if queued.State() != Canceled {
		t.Fatalf("state = %v, want Canceled", queued.State())
	}
	if fired {
		t.Fatal("canceled job's callback fired")
	}
}

func TestCancelMidFlightSilencesRemainingSteps(t *testing.T) {
	gate := make(chan struct{})
	be := &fakeBackend{gate: gate, submitted: make(chan struct{}, 16)}
	e := New(be, nil)
	defer e.Shutdown()

	var mu sync.Mutex
	var fired []int

	steps := make([]Step, 3)
	for i := range steps {
		idx := i
		steps[i] = Step{
			Tokens: []int64{int64(i)},
			Speed:  1.0,
			OnComplete: func([]float32) {
				mu.Lock()
				fired = append(fired, idx)
				mu.Unlock()
			},
		}
	}

	job, _ := e.Enqueue(NewJob(steps))

	// The first step is submitted (in flight) but its callback has not run.
	<-be.submitted
	job.Cancel()
	close(gate)

	waitDone(t, job)

	if job.State() != Canceled {
		t.Fatalf("state = %v, want Canceled", job.State())
	}

	mu.Lock()
	defer mu.Unlock()
	// The first step's callback may or may not have fired depending on the
	// race with cancellation, but nothing after it ever does. Here the
	// cancel strictly precedes the gate release, so even step 0 is silent.
	for _, idx := range fired {
		if idx > 0 {
			t.Fatalf("step %d callback fired after cancellation", idx)
		}
	}
}

func TestShutdownDrainsQueuedJobs(t *testing.T) {
	gate := make(chan struct{})
	be := &fakeBackend{gate: gate, submitted: make(chan struct{}, 16)}
	e := New(be, nil)

	var mu sync.Mutex
	callbacks := 0
	count := func([]float32) {
		mu.Lock()
		callbacks++
		mu.Unlock()
	}

	// One job in flight, several queued behind it.
	jobs := make([]*Job, 0, 5)
	first, _ := e.Enqueue(singleStepJob(count))
	jobs = append(jobs, first)
	<-be.submitted

	for range 4 {
		j, _ := e.Enqueue(singleStepJob(count))
		jobs = append(jobs, j)
	}

	shutdownDone := make(chan struct{})
	go func() {
		e.Shutdown()
		close(shutdownDone)
	}()

	close(gate)
	<-shutdownDone

	for _, j := range jobs {
		if j.State() != Canceled {
			t.Fatalf("job %s state = %v, want Canceled", j.ID(), j.State())
		}
		select {
		case <-j.Done():
		default:
			t.Fatalf("job %s Done channel not closed", j.ID())
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if callbacks != 0 {
		t.Fatalf("%d callbacks fired after shutdown, want 0", callbacks)
	}
	if !be.closed {
		t.Fatal("backend was not closed")
	}
}

func TestEnqueueAfterShutdown(t *testing.T) {
	be := &fakeBackend{}
	e := New(be, nil)
	e.Shutdown()

	_, err := e.Enqueue(singleStepJob(nil))
	if !errors.Is(err, ErrEngineClosed) {
		t.Fatalf("Enqueue after shutdown = %v, want ErrEngineClosed", err)
	}
}

func TestShutdownIdempotent(t *testing.T) {
	be := &fakeBackend{}
	e := New(be, nil)
	e.Shutdown()
	e.Shutdown()
}

func TestCancelIdempotentAndSticky(t *testing.T) {
	job := NewJob([]Step{{Tokens: []int64{1}}})
	job.Cancel()
	job.Cancel()
	if job.State() != Canceled {
		t.Fatalf("state = %v, want Canceled", job.State())
	}
	// A terminal job never transitions again.
	if job.transition(Canceled, Completed) {
		t.Fatal("transition out of a terminal state succeeded")
	}
}

func TestBackendErrorTerminatesJob(t *testing.T) {
	be := &fakeBackend{err: errors.New("boom")}
	e := New(be, nil)
	defer e.Shutdown()

	fired := false
	job, _ := e.Enqueue(singleStepJob(func([]float32) { fired = true }))
	waitDone(t, job)

	if job.State() != Canceled {
		t.Fatalf("state = %v, want Canceled", job.State())
	}
	if fired {
		t.Fatal("callback fired for a failed step")
	}
}

func TestCallbackPanicDoesNotKillDispatcher(t *testing.T) {
	be := &fakeBackend{}
	e := New(be, nil)
	defer e.Shutdown()

	bad, _ := e.Enqueue(singleStepJob(func([]float32) { panic("bad callback") }))
	waitDone(t, bad)

	ok, _ := e.Enqueue(singleStepJob(nil))
	waitDone(t, ok)
	if ok.State() != Completed {
		t.Fatalf("job after panicking callback: state = %v, want Completed", ok.State())
	}
}

func TestOverlongStepIsTruncated(t *testing.T) {
	be := &fakeBackend{}
	e := New(be, nil)
	defer e.Shutdown()

	tokens := make([]int64, MaxTokens+100)
	job, _ := e.Enqueue(NewJob([]Step{{Tokens: tokens, Speed: 1.0}}))
	waitDone(t, job)

	be.mu.Lock()
	defer be.mu.Unlock()
	if len(be.calls) != 1 {
		t.Fatalf("backend calls = %d, want 1", len(be.calls))
	}
	if len(be.calls[0]) != MaxTokens {
		t.Fatalf("backend received %d tokens, want %d", len(be.calls[0]), MaxTokens)
	}
}
