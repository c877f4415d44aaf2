package rworker

import "sync"

// Job runs fn on its own goroutine, using rate as a concurrency limiter.
// A failed job pushes its error to errCh unless the channel is full.
func Job(wg *sync.WaitGroup, fn func() error, rate chan struct{}, errCh chan<- error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		rate <- struct{}{}
		if err := fn(); err != nil {
			select {
			case errCh <- err:
			default:
			}
		}
		<-rate
	}()
}
