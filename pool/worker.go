package pool

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// WorkerState is the position of a worker in its run loop.
type WorkerState int32

const (
	Idle WorkerState = iota
	Running
	Terminated
)

func (s WorkerState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Worker is a worker instance
type Worker struct {
	// the worker id, 0..N-1
	id int

	// queue from which the worker consumes work
	tasks *Queue

	// used to signal the pool that the worker has terminated
	wg *sync.WaitGroup

	state atomic.Int32

	hooks Hooks
	log   *slog.Logger
}

func NewWorker(id int, tasks *Queue, wg *sync.WaitGroup, hooks Hooks, log *slog.Logger) *Worker {
	return &Worker{
		id:    id,
		wg:    wg,
		log:   log,
		tasks: tasks,
		hooks: hooks,
	}
}

// ID returns the worker index.
func (w *Worker) ID() int { return w.id }

// State returns the current run loop state.
func (w *Worker) State() WorkerState { return WorkerState(w.state.Load()) }

// Start runs the worker loop until the queue reports closed. A task that
// ends its goroutine with runtime.Goexit does not cost the pool a worker:
// the loop carries on in a fresh goroutine.
func (w *Worker) Start() {
	w.log.Debug("starting worker", "worker", w.id)

	closed := false
	defer func() {
		if !closed {
			go w.Start()
			return
		}

		w.state.Store(int32(Terminated))
		w.wg.Done()
		w.log.Debug("worker has been stopped", "worker", w.id)
	}()

	for {
		task, ok := w.tasks.Dequeue()
		if !ok {
			closed = true
			return
		}

		w.run(task)
	}
}

// run executes one task, containing any panic so the worker survives it.
func (w *Worker) run(task Task) {
	w.state.Store(int32(Running))
	begin := time.Now()

	returned := false
	defer func() {
		rec := recover()
		if rec == nil && !returned {
			rec = ErrTaskExited
		}

		if rec != nil {
			perr := &PanicError{Value: rec, Stack: debug.Stack()}
			w.log.Error(fmt.Sprintf("worker %d recovered from task failure", w.id), "error", perr.Error())
			w.guard("OnPanic", func() { w.hooks.panicked(w.id, perr) })

			if fh, ok := task.(FailureHandler); ok {
				w.guard("OnFailure", func() { fh.OnFailure(perr) })
			}
		}

		w.guard("OnFinish", func() { w.hooks.finish(w.id, time.Since(begin)) })
		w.state.Store(int32(Idle))
	}()

	w.hooks.start(w.id)
	task.Execute()
	returned = true
}

// guard calls fn without letting a panic escape the worker.
func (w *Worker) guard(name string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			w.log.Error(fmt.Sprintf("worker %d recovered from %s panic", w.id, name), "error", rec)
		}
	}()

	fn()
}
