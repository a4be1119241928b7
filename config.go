package herald

import (
	"log/slog"
	"sync"
)

var (
	defaultOptions []Option
	defaultOptMu   sync.Mutex
)

// Option configures a Herald instance.
type Option func(*Herald)

// PanicHandler is called when a listener panics during a notification sweep.
// Receives the channel being swept and the recovered panic value.
type PanicHandler func(channel Channel, recovered any)

// Configure sets options for the default Herald instance.
// Must be called before any module-level functions (Register, Notify, Post,
// Observe, RemoveListener, Shutdown). Subsequent calls have no effect once
// the default instance is created.
func Configure(opts ...Option) {
	defaultOptMu.Lock()
	defaultOptions = opts
	defaultOptMu.Unlock()
}

// WithBufferSize sets the event queue buffer size for each channel's worker.
// Default is 16. Larger buffers reduce backpressure on Post but increase
// memory usage.
func WithBufferSize(size int) Option {
	return func(h *Herald) {
		if size > 0 {
			h.bufferSize = size
		}
	}
}

// WithPanicHandler sets a callback to be invoked when a listener panics.
// The handler receives the channel and the recovered panic value.
// By default, panics are recovered silently so one listener cannot take the
// publisher down with it.
func WithPanicHandler(handler PanicHandler) Option {
	return func(h *Herald) {
		h.panicHandler = handler
	}
}

// WithErrorIsolation makes Notify run every listener in the snapshot even
// when some fail, returning the failures aggregated into a single error.
// Without it, the first listener error aborts the sweep and is returned
// directly. The choice is observable to listeners later in the order, so it
// is fixed per instance rather than per call.
func WithErrorIsolation() Option {
	return func(h *Herald) {
		h.isolate = true
	}
}

// WithLogger sets the structured logger used for registry debug events.
// A nil logger leaves the default (discarding) logger in place.
func WithLogger(log *slog.Logger) Option {
	return func(h *Herald) {
		if log != nil {
			h.log = log
		}
	}
}
