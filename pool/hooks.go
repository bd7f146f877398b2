package pool

import "time"

// Hooks let callers observe pool lifecycle events. Every field is optional.
// Hooks run on the goroutine that triggered the event and must not block.
type Hooks struct {
	OnSubmit  func()
	OnReject  func()
	OnStart   func(worker int)
	OnFinish  func(worker int, elapsed time.Duration)
	OnPanic   func(worker int, err *PanicError)
	OnDiscard func()
}

func (h Hooks) submit() {
	if h.OnSubmit != nil {
		h.OnSubmit()
	}
}

func (h Hooks) reject() {
	if h.OnReject != nil {
		h.OnReject()
	}
}

func (h Hooks) start(worker int) {
	if h.OnStart != nil {
		h.OnStart(worker)
	}
}

func (h Hooks) finish(worker int, elapsed time.Duration) {
	if h.OnFinish != nil {
		h.OnFinish(worker, elapsed)
	}
}

func (h Hooks) panicked(worker int, err *PanicError) {
	if h.OnPanic != nil {
		h.OnPanic(worker, err)
	}
}

func (h Hooks) discard() {
	if h.OnDiscard != nil {
		h.OnDiscard()
	}
}
