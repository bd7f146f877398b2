package pool

import (
	"errors"
	"fmt"
)

// ErrTaskExited is the failure reported for a task that ended its goroutine
// with runtime.Goexit instead of returning.
var ErrTaskExited = errors.New("task exited its goroutine without returning")

// Task is a unit of work run by the pool.
type Task interface {
	// Execute performs the work
	Execute()
}

// The TaskFunc type is an adapter to allow the use of
// ordinary functions as a Task. If f is a function
// with the appropriate signature, TaskFunc(f) is a
// Task that calls f.
type TaskFunc func()

// Execute calls fn()
func (fn TaskFunc) Execute() { fn() }

// FailureHandler is implemented by tasks that want to be told when
// Execute panicked or called runtime.Goexit. The error is always a
// *PanicError.
type FailureHandler interface {
	OnFailure(error)
}

// Discarder is implemented by tasks that own resources which must be
// released when the task is dropped from the queue without running.
type Discarder interface {
	OnDiscard()
}

// PanicError wraps a value recovered from a panicking task.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// Unwrap returns the recovered value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
