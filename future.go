package tikakit

import "context"

// Future is the pending result of a call started with Go.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Go runs fn on its own goroutine and returns a Future for its result.
//
//	f := tikakit.Go(ctx, func(ctx context.Context) (string, error) {
//	    return client.Text(ctx, "report.pdf")
//	})
//	f.Then(func(text string, err error) { ... })
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.value, f.err = fn(ctx)
	}()
	return f
}

// Done is closed once the result is available
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the call completes and returns its result.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.value, f.err
}

// Then calls fn with the result once the call completes. It does not block.
func (f *Future[T]) Then(fn func(T, error)) {
	go func() {
		fn(f.Wait())
	}()
}
