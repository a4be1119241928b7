// Package herald provides channel-keyed notification with subscriber-controlled release.
//
// At its core, herald offers three operations: Register listeners on named
// channels, Notify a channel's listeners synchronously with an arbitrary
// payload, and Release individual subscriptions. Register hands back a
// one-shot, idempotent release capability; when the listener implements
// [CleanupAware] it also receives that capability at registration time, so
// the subscriber rather than the publisher decides when the subscription ends.
//
// Notify operates on a snapshot of the channel's listeners taken at sweep
// start: listeners added during a sweep wait for the next one, and listeners
// released mid-sweep are skipped if their turn has not yet come. A separate
// Post path queues payloads to per-channel worker goroutines for callers
// that do not want delivery on their own goroutine.
//
// Quick example:
//
//	change := herald.Channel("change")
//
//	sub, _ := herald.Register(change, herald.ListenerFunc(func(payload ...any) error {
//	    // React to the change...
//	    return nil
//	}))
//
//	herald.Notify(change, 1)
//	sub.Release() // No further callbacks.
//
// See https://github.com/zoobzio/herald for full documentation.
package herald

import "errors"

// Channel identifies a named notification stream used for routing payloads
// to listeners. Single-channel designs simply pick one constant key.
type Channel string

// ErrInvalidListener is returned by Register when the listener is nil.
var ErrInvalidListener = errors.New("herald: listener must be non-nil")

// Listener receives notification payloads for the channels it is registered
// on. Payloads are forwarded verbatim from the Notify or Post call and must
// not be modified by listeners.
type Listener interface {
	Notify(payload ...any) error
}

// ListenerFunc adapts a plain function to the Listener interface.
//
// Func values have no defined equality in Go, so every ListenerFunc
// registration is a distinct subscription: duplicate detection and
// RemoveListener do not apply to it, and it is released through the
// Subscription returned by Register (or its CleanupAware capability).
type ListenerFunc func(payload ...any) error

// Notify invokes the underlying function.
func (f ListenerFunc) Notify(payload ...any) error { return f(payload...) }

// CleanupAware is the optional listener contract for self-directed
// unsubscription. A registered listener implementing it receives its own
// release capability exactly once, synchronously, before Register returns.
// The listener may store the function and call it at any later point,
// including from inside its own Notify invocation.
type CleanupAware interface {
	OnCleanup(release func())
}

// workerState manages the lifecycle of a channel's worker goroutine.
type workerState struct {
	events chan *event   // buffered queue of posted payloads
	done   chan struct{} // signals worker to exit
}

// Stats provides runtime metrics for a Herald instance.
type Stats struct {
	// ActiveWorkers is the number of worker goroutines currently running.
	ActiveWorkers int

	// QueueDepths maps each channel to the number of posted events waiting
	// in its worker's buffer.
	QueueDepths map[Channel]int

	// ListenerCounts maps each channel to the number of active listeners.
	ListenerCounts map[Channel]int
}
