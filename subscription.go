package herald

import "sync/atomic"

// Subscription represents an active registration of one listener on one
// channel. It is the release capability for that registration: call
// Release() to remove the listener and prevent further callbacks.
type Subscription struct {
	channel  Channel
	listener Listener
	herald   *Herald
	released atomic.Bool
}

// Channel returns the channel this subscription is bound to.
func (s *Subscription) Channel() Channel { return s.channel }

// Release removes this subscription from the registry, preventing future
// callbacks. It is idempotent: the second and later calls are no-ops. It is
// safe to call from any goroutine and from inside a notification sweep,
// including from the subscribed listener's own Notify invocation; if the
// listener's turn in an in-progress sweep has not yet come, it is skipped.
func (s *Subscription) Release() {
	if s.released.Swap(true) {
		return
	}
	s.herald.unregister(s)
}
