package herald

import "sync"

var eventPool = sync.Pool{
	New: func() any {
		return &event{}
	},
}

// event is the envelope queued to a channel worker by Post. The worker
// already knows its channel, so only the payload travels.
// Events are pooled internally to reduce allocations.
type event struct {
	payload []any
}

// newEvent wraps a posted payload in a pooled envelope.
func newEvent(payload []any) *event {
	e := eventPool.Get().(*event) //nolint:errcheck // Pool always returns *event
	e.payload = payload
	return e
}

// releaseEvent drops the payload reference and returns the envelope to the
// pool. The envelope must not be used afterwards.
func releaseEvent(e *event) {
	e.payload = nil
	eventPool.Put(e)
}
