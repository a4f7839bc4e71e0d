package actorutil

import (
	"errors"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/primetalk/goio/io"
)

var ErrNilTaskResult = errors.New("background task returned no result")

// SafeBackgroundTask runs a blocking function outside the actor and pipes its
// result back as a message. Failures and timeouts go through Recover.
type SafeBackgroundTask[T any] struct {
	system  *actor.ActorSystem
	fn      func() (*T, error)
	timeout *time.Duration
	recover func(error) T
}

func NewBackgroundTask[T any](ctx actor.Context, fn func() (*T, error)) *SafeBackgroundTask[T] {
	return &SafeBackgroundTask[T]{
		system: ctx.ActorSystem(),
		fn:     fn,
	}
}

func (t *SafeBackgroundTask[T]) WithTimeout(timeout time.Duration) *SafeBackgroundTask[T] {
	t.timeout = &timeout
	return t
}

func (t *SafeBackgroundTask[T]) Recover(fn func(error) T) *SafeBackgroundTask[T] {
	t.recover = fn
	return t
}

// PipeTo runs the task in its own goroutine and sends the result to pid.
// Without Recover, a failed task sends nothing.
func (t *SafeBackgroundTask[T]) PipeTo(pid *actor.PID) {
	go func() {
		value, ok := t.Run()
		if ok {
			t.system.Root.Send(pid, value)
		}
	}()
}

// Run executes the task on the calling goroutine.
func (t *SafeBackgroundTask[T]) Run() (T, bool) {
	bg := io.Eval(func() (T, error) {
		var zero T
		a, err := t.fn()
		if err != nil {
			return zero, err
		}
		if a == nil {
			return zero, ErrNilTaskResult
		}
		return *a, nil
	})
	if t.timeout != nil {
		bg = io.WithTimeout[T](*t.timeout)(bg)
	}
	result := io.RunSync(bg)
	if result.Error != nil {
		if t.recover == nil {
			var zero T
			return zero, false
		}
		return t.recover(result.Error), true
	}
	return result.Value, true
}
