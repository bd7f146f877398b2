package pool

type Pool interface {
	// Execute adds a task for the worker pool to process. It never blocks
	// and is only valid before Shutdown() has been called.
	Execute(Task) error

	// Shutdown stops accepting work, applies the shutdown policy to queued
	// tasks and blocks until every worker has returned. It is safe to call
	// more than once.
	Shutdown() error
}
