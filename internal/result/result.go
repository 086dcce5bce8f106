// Package result models operations that may degrade instead of failing.
package result

import "fmt"

type Kind int

const (
	KindOK Kind = iota
	// KindDegraded carries a usable fallback value and the reason it was needed.
	KindDegraded
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindDegraded:
		return "degraded"
	default:
		return "fatal"
	}
}

// Result is Ok(value), Degraded(default, reason) or Fatal(err).
type Result[T any] struct {
	kind   Kind
	value  T
	reason string
	err    error
}

func Ok[T any](v T) Result[T] {
	return Result[T]{kind: KindOK, value: v}
}

func Degraded[T any](v T, reason string, args ...any) Result[T] {
	return Result[T]{kind: KindDegraded, value: v, reason: fmt.Sprintf(reason, args...)}
}

func Fatal[T any](err error) Result[T] {
	return Result[T]{kind: KindFatal, err: err}
}

func (r Result[T]) Kind() Kind { return r.kind }
func (r Result[T]) Value() T { return r.value }
func (r Result[T]) Reason() string { return r.reason }
func (r Result[T]) Err() error { return r.err }
func (r Result[T]) IsOK() bool { return r.kind == KindOK }
func (r Result[T]) IsDegraded() bool { return r.kind == KindDegraded }
func (r Result[T]) IsFatal() bool { return r.kind == KindFatal }

// Unwrap returns the value and, for fatal results only, the error.
func (r Result[T]) Unwrap() (T, error) {
	return r.value, r.err
}

// Map transforms the value and keeps the kind, reason and error.
func Map[T, U any](r Result[T], f func(T) U) Result[U] {
	if r.kind == KindFatal {
		return Fatal[U](r.err)
	}
	return Result[U]{kind: r.kind, value: f(r.value), reason: r.reason}
}
