package testutil

import (
	"errors"
	"sync"
	"sync/atomic"

	"assistance-backend/pkg/domainerrors"
)

// ConcurrentResult tallies outcomes of a RunConcurrent call by error kind.
type ConcurrentResult struct {
	Successes int32
	Conflicts int32
	NotFounds int32
	Errors    int32
}

// RunConcurrent starts goroutines at once and waits for all of them.
func RunConcurrent(goroutines int, fn func(idx int) error) *ConcurrentResult {
	var wg sync.WaitGroup
	var successes, conflicts, notFounds, errs atomic.Int32
	start := make(chan struct{})

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			<-start
			err := fn(idx)
			switch {
			case err == nil:
				successes.Add(1)
			case domainerrors.HasCode(err, domainerrors.CodeConflict):
				conflicts.Add(1)
			case domainerrors.HasCode(err, domainerrors.CodeNotFound):
				notFounds.Add(1)
			default:
				errs.Add(1)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	return &ConcurrentResult{
		Successes: successes.Load(),
		Conflicts: conflicts.Load(),
		NotFounds: notFounds.Load(),
		Errors:    errs.Load(),
	}
}

// RunConcurrentCollect is RunConcurrent keeping every error for inspection.
func RunConcurrentCollect(goroutines int, fn func(idx int) error) (int32, []error) {
	var mu sync.Mutex
	var collected []error
	res := RunConcurrent(goroutines, func(idx int) error {
		err := fn(idx)
		if err != nil {
			mu.Lock()
			collected = append(collected, err)
			mu.Unlock()
		}
		return err
	})
	return res.Successes, collected
}

// CountIs counts errs matching target.
func CountIs(errs []error, target error) int {
	n := 0
	for _, err := range errs {
		if errors.Is(err, target) {
			n++
		}
	}
	return n
}
