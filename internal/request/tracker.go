// Package request tracks the lifecycle of one kind of backend interaction:
// idle, loading, then success or error, with an explicit reset.
//
// A Tracker is owned by a single event loop and holds no lock. Every
// dispatch is stamped with a Token; a result is applied only when it
// carries the most recent token, so a slow response to an earlier request
// can never overwrite the result of a later one.
package request

// Status is the state of a Tracker
type Status int

const (
	Idle Status = iota
	Loading
	Success
	Error
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "idle"
	}
}

// Token identifies one dispatch
type Token uint64

// Tracker holds the state of one interaction
type Tracker[T any] struct {
	status Status
	data   T
	err    error
	latest Token
}

// Dispatch moves to Loading and returns the token for this request.
// Calling it while already loading is allowed; the previous request
// becomes stale.
func (t *Tracker[T]) Dispatch() Token {
	t.latest++
	t.status = Loading
	t.clear()
	return t.latest
}

// Resolve applies a result and reports whether it was accepted.
// Results for stale tokens, or arriving after Reset or Reject, are dropped.
func (t *Tracker[T]) Resolve(token Token, data T, err error) bool {
	if token != t.latest || t.status != Loading {
		return false
	}
	if err != nil {
		t.status = Error
		t.clear()
		t.err = err
		return true
	}
	t.status = Success
	t.clear()
	t.data = data
	return true
}

// Reject records a local failure that never reached the network
func (t *Tracker[T]) Reject(err error) {
	t.latest++
	t.status = Error
	t.clear()
	t.err = err
}

// Reset returns to Idle and invalidates any request in flight
func (t *Tracker[T]) Reset() {
	t.latest++
	t.status = Idle
	t.clear()
}

func (t *Tracker[T]) clear() {
	var zero T
	t.data = zero
	t.err = nil
}

// Status returns the current state
func (t *Tracker[T]) Status() Status {
	return t.status
}

// Loading reports whether a request is in flight
func (t *Tracker[T]) Loading() bool {
	return t.status == Loading
}

// Data returns the last successful result
func (t *Tracker[T]) Data() (T, bool) {
	return t.data, t.status == Success
}

// Err returns the last failure, or nil
func (t *Tracker[T]) Err() error {
	return t.err
}

// Latest returns the token of the most recent dispatch
func (t *Tracker[T]) Latest() Token {
	return t.latest
}
