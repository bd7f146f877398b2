package pool

import "sync"

const (
	defaultQueueCap     = 16
	compactMinCap       = 64 // don't compact below this capacity
	compactShrinkFactor = 4  // compact when len < cap/4
)

// ShutdownPolicy decides what happens to queued tasks when the queue closes.
type ShutdownPolicy int

const (
	// Drain lets workers finish every task queued before the close.
	Drain ShutdownPolicy = iota

	// Discard drops queued tasks; only tasks already running finish.
	Discard
)

func (p ShutdownPolicy) String() string {
	switch p {
	case Drain:
		return "drain"
	case Discard:
		return "discard"
	default:
		return "unknown"
	}
}

// Queue is an unbounded multi-producer multi-consumer FIFO of tasks.
// It is safe for concurrent use.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []Task
	closed bool
}

func NewQueue() *Queue {
	q := &Queue{
		tasks: make([]Task, 0, defaultQueueCap),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue appends a task. It never waits for a consumer and fails only
// once the queue has been closed.
func (q *Queue) Enqueue(t Task) error {
	return q.push(t, nil)
}

// push appends t and, while still holding the lock, calls accepted so that
// it runs before any consumer can see the task.
func (q *Queue) push(t Task, accepted func()) error {
	if t == nil {
		return ErrNilTask
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrWorkerPoolClosed
	}

	if accepted != nil {
		accepted()
	}

	q.tasks = append(q.tasks, t)
	q.cond.Signal()

	return nil
}

// Dequeue blocks until a task is available or the queue is closed and empty.
// The boolean is false only for the closed-signal.
func (q *Queue) Dequeue() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.tasks) == 0 && !q.closed {
		q.cond.Wait()
	}

	if len(q.tasks) == 0 {
		return nil, false
	}

	t := q.tasks[0]
	// zero out the slot so the backing array doesn't pin the task
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	q.maybeCompactLocked()

	return t, true
}

// Close stops the queue from accepting tasks and wakes every blocked
// consumer. With Discard the queued tasks are removed and returned.
// Only the first call has any effect.
func (q *Queue) Close(policy ShutdownPolicy) []Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true

	var dropped []Task
	if policy == Discard && len(q.tasks) > 0 {
		dropped = q.tasks
		q.tasks = nil
	}

	q.cond.Broadcast()

	return dropped
}

// Len returns the number of queued tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

func (q *Queue) maybeCompactLocked() {
	n := len(q.tasks)
	c := cap(q.tasks)

	if c < compactMinCap {
		return
	}
	if n == 0 {
		q.tasks = make([]Task, 0, defaultQueueCap)
		return
	}
	if n*compactShrinkFactor >= c {
		return
	}

	tasks := make([]Task, n, max(c/2, defaultQueueCap, n))
	copy(tasks, q.tasks)
	q.tasks = tasks
}
