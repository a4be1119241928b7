package herald

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostDelivery(t *testing.T) {
	h := New()
	defer h.Shutdown()

	ch := Channel("test.post.delivery")

	var (
		mu      sync.Mutex
		got     []any
		arrived sync.WaitGroup
	)
	_, err := h.Register(ch, ListenerFunc(func(payload ...any) error {
		mu.Lock()
		got = payload
		mu.Unlock()
		arrived.Done()
		return nil
	}))
	require.NoError(t, err)

	arrived.Add(1)
	h.Post(ch, "async", 42)
	arrived.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []any{"async", 42}, got)
}

func TestPostOrdering(t *testing.T) {
	h := New()
	defer h.Shutdown()

	ch := Channel("test.post.ordering")

	var (
		mu      sync.Mutex
		seen    []any
		arrived sync.WaitGroup
	)
	_, err := h.Register(ch, ListenerFunc(func(payload ...any) error {
		mu.Lock()
		seen = append(seen, payload[0])
		mu.Unlock()
		arrived.Done()
		return nil
	}))
	require.NoError(t, err)

	// A single worker per channel keeps post order.
	arrived.Add(3)
	h.Post(ch, 1)
	h.Post(ch, 2)
	h.Post(ch, 3)
	arrived.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []any{1, 2, 3}, seen)
}

func TestShutdownDrainsPendingEvents(t *testing.T) {
	h := New(WithBufferSize(64))

	ch := Channel("test.post.drain")
	r := &recorder{}

	_, err := h.Register(ch, r)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		h.Post(ch, i)
	}

	// Shutdown returns only after the worker drained its queue.
	h.Shutdown()
	assert.Equal(t, 10, r.count())
}

func TestShutdownIdempotent(t *testing.T) {
	h := New()
	h.Shutdown()
	h.Shutdown()
}

func TestPostAfterShutdown(t *testing.T) {
	h := New()

	ch := Channel("test.post.after.shutdown")
	r := &recorder{}

	_, err := h.Register(ch, r)
	require.NoError(t, err)

	h.Post(ch, "before")
	h.Shutdown()

	// Dropped, not queued and not delivered.
	h.Post(ch, "after")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, r.count())
}

func TestWorkerStopsWhenChannelEmpties(t *testing.T) {
	h := New()
	defer h.Shutdown()

	ch := Channel("test.post.worker.stop")

	var arrived sync.WaitGroup
	sub, err := h.Register(ch, ListenerFunc(func(_ ...any) error {
		arrived.Done()
		return nil
	}))
	require.NoError(t, err)

	arrived.Add(1)
	h.Post(ch, "x")
	arrived.Wait()

	require.Equal(t, 1, h.Stats().ActiveWorkers)

	// Releasing the channel's last listener retires its worker.
	sub.Release()
	assert.Equal(t, 0, h.Stats().ActiveWorkers)
}

func TestStatsQueueDepths(t *testing.T) {
	h := New(WithBufferSize(8))
	defer h.Shutdown()

	ch := Channel("test.post.stats.depth")

	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	_, err := h.Register(ch, ListenerFunc(func(_ ...any) error {
		once.Do(func() { close(started) })
		<-release
		return nil
	}))
	require.NoError(t, err)

	// First post occupies the worker; the rest sit in the queue.
	h.Post(ch, 0)
	<-started
	h.Post(ch, 1)
	h.Post(ch, 2)

	stats := h.Stats()
	assert.Equal(t, 1, stats.ActiveWorkers)
	assert.Equal(t, 2, stats.QueueDepths[ch])

	close(release)
}
