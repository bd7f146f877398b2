package archserver

import (
	"context"
	"time"
)

type Retry struct {
	sleepDuration time.Duration
	RetryFunc     func() error
	numTries      int
}

func NewRetry(numTries int, sleepDuration time.Duration, retryFunc func() error) *Retry {
	if numTries < 1 {
		numTries = 1
	}

	return &Retry{
		sleepDuration: sleepDuration,
		RetryFunc:     retryFunc,
		numTries:      numTries,
	}
}

// Do calls RetryFunc until it succeeds, the tries run out or ctx is done,
// and returns the last error.
func (r *Retry) Do(ctx context.Context) error {
	var err error
	for i := 0; i < r.numTries; i++ {
		if err = r.RetryFunc(); err == nil {
			return nil
		}

		if i == r.numTries-1 {
			break
		}

		select {
		case <-ctx.Done():
			return err
		case <-time.After(r.sleepDuration):
		}
	}

	return err
}
