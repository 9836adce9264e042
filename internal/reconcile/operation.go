package reconcile

import "sync"

// Operation is a reconciler call running in its own goroutine.
type Operation struct {
	done   chan struct{}
	mu     sync.Mutex
	result OpResult
	err    error
}

// Go runs fn in a new goroutine and returns immediately.
func Go(fn func() (OpResult, error)) *Operation {
	op := &Operation{done: make(chan struct{}), result: Pending}
	go func() {
		result, err := fn()
		op.mu.Lock()
		op.result, op.err = result, err
		op.mu.Unlock()
		close(op.done)
	}()
	return op
}

// Result returns Pending until the operation finishes.
func (o *Operation) Result() OpResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.result
}

// Err returns the operation error once finished.
func (o *Operation) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

// Done is closed when the operation finishes.
func (o *Operation) Done() <-chan struct{} {
	return o.done
}

// Wait blocks until the operation finishes.
func (o *Operation) Wait() (OpResult, error) {
	<-o.done
	return o.Result(), o.Err()
}
