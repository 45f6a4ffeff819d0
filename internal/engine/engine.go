// Package engine implements the bounded asynchronous executor: it submits
// a plugin's work unit to a shared worker pool, enforces a per-execution
// timeout, and reports a uniform Result envelope (spec §4.4).
package engine

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/ironclad-labs/vulnscan/internal/logging"
	"github.com/ironclad-labs/vulnscan/internal/plugin"
	"github.com/ironclad-labs/vulnscan/internal/vserrors"
)

// DefaultTimeout is the per-plugin hard timeout.
const DefaultTimeout = time.Hour

// Status is the terminal state of a Result.
type Status string

const (
	Succeeded Status = "SUCCEEDED"
	Failed    Status = "FAILED"
)

// Result is the uniform envelope every plugin execution resolves to.
type Result[T any] struct {
	Status     Status
	Data       T
	Err        error
	Duration   time.Duration
	Descriptor plugin.PluginDescriptor
}

// WorkUnit bundles a plugin's descriptor, the matched services it's running
// against (carried only for logging context), and the callable producing T.
type WorkUnit[T any] struct {
	Descriptor      plugin.PluginDescriptor
	MatchedServices int
	Run             func(ctx context.Context) (T, error)
}

// Future is a handle to an in-flight execution.
type Future[T any] struct {
	ch chan Result[T]
}

// Await blocks until the execution resolves or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (Result[T], error) {
	select {
	case r := <-f.ch:
		return r, nil
	case <-ctx.Done():
		var zero Result[T]
		return zero, ctx.Err()
	}
}

// Engine is the shared, bounded worker pool all phases submit through.
type Engine struct {
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	timeout time.Duration
	logger  *logging.Logger
}

// DefaultPoolSize returns min(32, cores*4), the configured default pool
// size per spec §4.4.
func DefaultPoolSize() int64 {
	n := int64(runtime.NumCPU() * 4)
	if n > 32 {
		return 32
	}
	if n < 1 {
		return 1
	}
	return n
}

// New builds an Engine. poolSize bounds concurrent executions; limiter (may
// be nil) throttles submission rate into the shared HTTP client's
// connection pool per spec §5; timeout is the per-plugin hard cap (use
// DefaultTimeout unless overridden for tests).
func New(poolSize int64, timeout time.Duration, limiter *rate.Limiter, logger *logging.Logger) *Engine {
	if poolSize < 1 {
		poolSize = DefaultPoolSize()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Engine{
		sem:     semaphore.NewWeighted(poolSize),
		limiter: limiter,
		timeout: timeout,
		logger:  logger,
	}
}

// Execute submits wu to the pool and returns a Future for its result.
// Execute is a package-level function (not a method) because Go methods
// cannot carry their own type parameters.
func Execute[T any](ctx context.Context, e *Engine, wu WorkUnit[T]) *Future[T] {
	fut := &Future[T]{ch: make(chan Result[T], 1)}

	go func() {
		start := time.Now()

		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				fut.ch <- Result[T]{
					Status:     Failed,
					Err:        vserrors.PluginExecutionFailed{Name: wu.Descriptor.Name, Cause: err},
					Duration:   time.Since(start),
					Descriptor: wu.Descriptor,
				}
				return
			}
		}

		if err := e.sem.Acquire(ctx, 1); err != nil {
			fut.ch <- Result[T]{
				Status:     Failed,
				Err:        vserrors.PluginExecutionFailed{Name: wu.Descriptor.Name, Cause: err},
				Duration:   time.Since(start),
				Descriptor: wu.Descriptor,
			}
			return
		}
		defer e.sem.Release(1)

		execCtx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()

		type outcome struct {
			data T
			err  error
		}
		done := make(chan outcome, 1)
		go func() {
			d, err := wu.Run(execCtx)
			done <- outcome{d, err}
		}()

		select {
		case o := <-done:
			dur := time.Since(start)
			if o.err != nil {
				if e.logger != nil {
					e.logger.WarnPluginFailure(wu.Descriptor.Name, o.err)
				}
				cause := o.err
				if !vserrors.IsExecutionFailure(cause) {
					cause = vserrors.PluginExecutionFailed{Name: wu.Descriptor.Name, Cause: o.err}
				}
				fut.ch <- Result[T]{Status: Failed, Err: cause, Duration: dur, Descriptor: wu.Descriptor}
				return
			}
			fut.ch <- Result[T]{Status: Succeeded, Data: o.data, Duration: dur, Descriptor: wu.Descriptor}
		case <-execCtx.Done():
			// The engine does not block the pipeline on an uncancellable
			// plugin: resolution is delivered here even if `done` never
			// fires. The abandoned goroutine exits whenever wu.Run finally
			// observes execCtx.Done() or returns.
			dur := time.Since(start)
			err := vserrors.TimeoutExceeded{Name: wu.Descriptor.Name, Limit: e.timeout}
			if e.logger != nil {
				e.logger.WarnPluginFailure(wu.Descriptor.Name, err)
			}
			fut.ch <- Result[T]{Status: Failed, Err: err, Duration: dur, Descriptor: wu.Descriptor}
		}
	}()

	return fut
}
