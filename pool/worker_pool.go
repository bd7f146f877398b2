package pool

import (
	"errors"
	"log/slog"
	"os"
	"sync"
)

var (
	ErrWorkerPoolClosed = errors.New("worker pool is not active")
	ErrInvalidPoolSize  = errors.New("worker pool needs at least one worker")
	ErrNilTask          = errors.New("task is nil")
)

var _ Pool = (*WorkerPool)(nil)

type WorkerPool struct {
	// queue from which workers consume work
	tasks *Queue

	// ensure the pool can only be stopped once
	stop sync.Once

	workers []*Worker

	wg *sync.WaitGroup

	policy ShutdownPolicy

	hooks Hooks

	log *slog.Logger
}

type Option func(*WorkerPool)

func WithLogger(log *slog.Logger) Option {
	return func(p *WorkerPool) {
		if log != nil {
			p.log = log
		}
	}
}

// WithShutdownPolicy selects whether Shutdown drains or discards queued tasks.
// The default is Drain.
func WithShutdownPolicy(policy ShutdownPolicy) Option {
	return func(p *WorkerPool) { p.policy = policy }
}

func WithHooks(hooks Hooks) Option {
	return func(p *WorkerPool) { p.hooks = hooks }
}

// NewWorkerPool builds a pool with numWorkers workers, all of them running
// by the time it returns. Release it with Shutdown.
func NewWorkerPool(numWorkers int, opts ...Option) (*WorkerPool, error) {
	if numWorkers < 1 {
		return nil, ErrInvalidPoolSize
	}

	p := &WorkerPool{
		tasks:   NewQueue(),
		workers: make([]*Worker, numWorkers),
		wg:      &sync.WaitGroup{},
		policy:  Drain,
		log:     slog.New(slog.NewTextHandler(os.Stdout, nil)),
	}

	for _, opt := range opts {
		opt(p)
	}

	p.startWorkers()

	return p, nil
}

func (p *WorkerPool) startWorkers() {
	p.log.Info("starting worker pool", "workers", len(p.workers), "shutdown_policy", p.policy.String())

	for i := 0; i < len(p.workers); i++ {
		w := NewWorker(i, p.tasks, p.wg, p.hooks, p.log)
		p.workers[i] = w
		p.wg.Add(1)
		go w.Start()
	}
}

// Execute queues t for a worker and returns immediately.
func (p *WorkerPool) Execute(t Task) error {
	err := p.tasks.push(t, p.hooks.submit)
	if errors.Is(err, ErrWorkerPoolClosed) {
		p.hooks.reject()
	}
	return err
}

// Shutdown closes the queue and waits for every worker to terminate.
// Tasks already running always finish; queued tasks follow the policy.
// Concurrent callers all return once the workers are joined. Calling
// Shutdown from inside a task deadlocks, since the join waits on the
// caller's own worker.
func (p *WorkerPool) Shutdown() error {
	p.stop.Do(func() {
		p.log.Info("stopping worker pool", "pending", p.tasks.Len(), "shutdown_policy", p.policy.String())

		dropped := p.tasks.Close(p.policy)
		for _, t := range dropped {
			p.discard(t)
		}

		// wait for all of them to clean themselves up
		p.wg.Wait()

		p.log.Info("worker pool has been stopped", "discarded", len(dropped))
	})
	return nil
}

func (p *WorkerPool) discard(t Task) {
	defer func() {
		if rec := recover(); rec != nil {
			p.log.Error("recovered from OnDiscard panic", "error", rec)
		}
	}()

	p.hooks.discard()
	if d, ok := t.(Discarder); ok {
		d.OnDiscard()
	}
}

// Size returns the fixed number of workers.
func (p *WorkerPool) Size() int { return len(p.workers) }

// Pending returns the number of tasks waiting for a worker.
func (p *WorkerPool) Pending() int { return p.tasks.Len() }

// Busy returns the number of workers currently running a task.
func (p *WorkerPool) Busy() int {
	n := 0
	for _, w := range p.workers {
		if w.State() == Running {
			n++
		}
	}
	return n
}

// Workers returns the pool's workers, indexed by id.
func (p *WorkerPool) Workers() []*Worker {
	out := make([]*Worker, len(p.workers))
	copy(out, p.workers)
	return out
}
