package herald

import (
	"log/slog"
	"reflect"
	"sync"

	"github.com/hashicorp/go-multierror"
)

var (
	defaultHerald *Herald
	defaultOnce   sync.Once
)

// Herald is a channel-keyed notification registry. Each channel holds an
// ordered set of active listeners; Notify sweeps a snapshot of that set in
// insertion order. Register, RemoveListener and Subscription.Release are the
// only mutators of the set.
type Herald struct {
	registry     map[Channel][]*Subscription
	workers      map[Channel]*workerState
	observers    []*Observer
	shutdown     chan struct{}
	shutdownOnce sync.Once
	wg           sync.WaitGroup
	mu           sync.RWMutex
	log          *slog.Logger
	bufferSize   int
	panicHandler PanicHandler
	isolate      bool
}

// New creates a new Herald instance with optional configuration.
// If no options are provided, sensible defaults are used (bufferSize=16,
// discarded logs, no panic handler, first listener error aborts a sweep).
func New(opts ...Option) *Herald {
	h := &Herald{
		registry:   make(map[Channel][]*Subscription),
		workers:    make(map[Channel]*workerState),
		shutdown:   make(chan struct{}),
		bufferSize: defaultBufferSize,
		log:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// defaultInstance returns the default Herald instance, creating it if necessary.
func defaultInstance() *Herald {
	defaultOnce.Do(func() {
		defaultOptMu.Lock()
		opts := defaultOptions
		defaultOptMu.Unlock()
		defaultHerald = New(opts...)
	})
	return defaultHerald
}

// Register adds a listener to the channel on the default instance.
// Returns a Subscription that can be released to unregister.
func Register(channel Channel, listener Listener) (*Subscription, error) {
	return defaultInstance().Register(channel, listener)
}

// Register adds a listener to the channel's ordered active set and returns
// the release capability for the new subscription.
//
// Registering a listener already active on the channel does not create a
// second entry; the original Subscription is returned, and releasing either
// returned value removes the single underlying entry. Listeners of func kind
// (such as ListenerFunc) have no defined equality, so every func
// registration is a new entry with its own Subscription. If the listener
// implements CleanupAware, its OnCleanup hook is invoked with the release
// function before Register returns, so the listener holds its capability
// before any notification can reach it.
func (h *Herald) Register(channel Channel, listener Listener) (*Subscription, error) {
	if listener == nil {
		return nil, ErrInvalidListener
	}

	h.mu.Lock()

	for _, existing := range h.registry[channel] {
		if !existing.released.Load() && sameListener(existing.listener, listener) {
			h.mu.Unlock()
			return existing, nil
		}
	}

	sub := &Subscription{
		channel:  channel,
		listener: listener,
		herald:   h,
	}

	// Check if this is a new channel
	_, exists := h.registry[channel]
	h.registry[channel] = append(h.registry[channel], sub)

	// If new channel, attach to all active observers
	if !exists {
		h.attachObservers(channel)
	}

	h.mu.Unlock()

	h.log.Debug("listener registered", "channel", string(channel))

	if aware, ok := listener.(CleanupAware); ok {
		aware.OnCleanup(sub.Release)
	}

	return sub, nil
}

// RemoveListener releases the listener's subscription on the channel of the
// default instance.
func RemoveListener(channel Channel, listener Listener) {
	defaultInstance().RemoveListener(channel, listener)
}

// RemoveListener releases the subscription binding listener to channel, with
// the same semantics as calling Release on that subscription. It exists for
// cleanup driven by an external controller rather than by the subscriber.
// Removing a listener that is not registered on the channel is a no-op, and
// listeners of func kind can only be released through their Subscription
// since they carry no identity to match on.
func (h *Herald) RemoveListener(channel Channel, listener Listener) {
	if listener == nil {
		return
	}

	h.mu.RLock()
	var target *Subscription
	for _, sub := range h.registry[channel] {
		if !sub.released.Load() && sameListener(sub.listener, listener) {
			target = sub
			break
		}
	}
	h.mu.RUnlock()

	if target != nil {
		target.Release()
	}
}

// Notify invokes the channel's listeners on the default instance.
func Notify(channel Channel, payload ...any) error {
	return defaultInstance().Notify(channel, payload...)
}

// Notify synchronously invokes every listener that was active on the channel
// at the moment the sweep began, in insertion order, exactly once each, with
// the payload forwarded verbatim. Listeners registered during the sweep are
// not invoked until the next Notify; listeners released during the sweep are
// skipped if their turn has not yet come. Notifying a channel with no
// listeners is a no-op.
//
// Error policy: by default the first listener error aborts the sweep and is
// returned. With WithErrorIsolation, every listener in the snapshot runs and
// failures are aggregated into the returned error. In both modes a partially
// completed sweep leaves the active set intact. Listener panics are
// recovered and forwarded to the configured PanicHandler, if any.
func (h *Herald) Notify(channel Channel, payload ...any) error {
	snapshot := h.snapshot(channel)
	if len(snapshot) == 0 {
		return nil
	}

	h.log.Debug("notify sweep", "channel", string(channel), "listeners", len(snapshot))

	return h.sweep(snapshot, payload)
}

// snapshot copies the channel's active set under the read lock, insulating
// the sweep from concurrent and reentrant registry mutation.
func (h *Herald) snapshot(channel Channel) []*Subscription {
	h.mu.RLock()
	defer h.mu.RUnlock()

	subs := h.registry[channel]
	if len(subs) == 0 {
		return nil
	}
	snapshot := make([]*Subscription, len(subs))
	copy(snapshot, subs)
	return snapshot
}

// sweep invokes each snapshot member that is still active, in order.
func (h *Herald) sweep(snapshot []*Subscription, payload []any) error {
	var result *multierror.Error

	for _, sub := range snapshot {
		if sub.released.Load() {
			continue
		}
		err := h.invoke(sub, payload)
		if err == nil {
			continue
		}
		if !h.isolate {
			return err
		}
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

// invoke runs a single listener with panic recovery.
func (h *Herald) invoke(sub *Subscription, payload []any) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			if h.panicHandler != nil {
				h.panicHandler(sub.channel, recovered)
			}
		}
	}()
	return sub.listener.Notify(payload...)
}

// unregister removes a subscription from the registry, preserving the
// insertion order of the remaining listeners.
func (h *Herald) unregister(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.registry[sub.channel]
	for i, s := range subs {
		if s == sub {
			h.registry[sub.channel] = append(subs[:i], subs[i+1:]...)
			break
		}
	}

	// Clean up empty channel entries and signal the worker to exit
	if len(h.registry[sub.channel]) == 0 {
		delete(h.registry, sub.channel)

		if worker, exists := h.workers[sub.channel]; exists {
			close(worker.done)
			delete(h.workers, sub.channel)
		}
	}

	h.log.Debug("listener released", "channel", string(sub.channel))
}

// sameListener reports whether two listeners have the same reference
// identity. Only comparable dynamic types can match; Go func values have no
// defined equality, so listeners of func kind such as ListenerFunc are a
// distinct identity per registration and are managed through their
// Subscription instead.
func sameListener(a, b Listener) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

// Stats returns runtime metrics for the Herald instance.
// Provides visibility into active workers, queue depths, and listener counts.
func (h *Herald) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := Stats{
		ActiveWorkers:  len(h.workers),
		QueueDepths:    make(map[Channel]int, len(h.workers)),
		ListenerCounts: make(map[Channel]int, len(h.registry)),
	}

	for channel, worker := range h.workers {
		stats.QueueDepths[channel] = len(worker.events)
	}

	for channel, subs := range h.registry {
		stats.ListenerCounts[channel] = len(subs)
	}

	return stats
}

// Shutdown gracefully stops all worker goroutines on the default instance.
func Shutdown() {
	defaultInstance().Shutdown()
}
