package herald

const (
	// defaultBufferSize is the default channel buffer size for event queues.
	// Each channel gets its own buffered queue with this capacity.
	defaultBufferSize = 16
)

// Post queues a payload for asynchronous delivery on the default instance.
func Post(channel Channel, payload ...any) {
	defaultInstance().Post(channel, payload...)
}

// Post queues the payload for asynchronous delivery to the channel's
// listeners. Delivery runs the same snapshot sweep as Notify, on the
// channel's worker goroutine rather than the caller's; the snapshot is taken
// when the worker dequeues the event, not when Post returns. Listener errors
// on this path are logged instead of returned. A worker goroutine is created
// lazily on first post to a channel.
//
// Post blocks when the channel's queue is full (backpressure). Posts after
// Shutdown, or racing a channel's last release, are dropped.
func (h *Herald) Post(channel Channel, payload ...any) {
	// Fast path: check if worker already exists (read lock)
	h.mu.RLock()
	worker, exists := h.workers[channel]
	h.mu.RUnlock()

	if !exists {
		// Slow path: create worker (write lock)
		h.mu.Lock()

		// Double-check: another goroutine may have created it
		worker, exists = h.workers[channel]
		if !exists {
			worker = &workerState{
				events: make(chan *event, h.bufferSize),
				done:   make(chan struct{}),
			}
			h.workers[channel] = worker

			// Check if this is a new channel in the registry
			if _, known := h.registry[channel]; !known {
				h.registry[channel] = nil
				h.attachObservers(channel)
			}

			h.wg.Add(1)
			go h.processEvents(channel, worker)
		}

		h.mu.Unlock()
	}

	select {
	case worker.events <- newEvent(payload):
	case <-worker.done:
	case <-h.shutdown:
	}
}

// processEvents is the worker goroutine for a specific channel.
// Sweeps the channel's listeners for each queued event.
func (h *Herald) processEvents(channel Channel, worker *workerState) {
	defer h.wg.Done()

	deliver := func(e *event) {
		if err := h.sweep(h.snapshot(channel), e.payload); err != nil {
			h.log.Error("async delivery failed", "channel", string(channel), "error", err)
		}
		releaseEvent(e)
	}

	for {
		select {
		case e := <-worker.events:
			deliver(e)

		case <-worker.done:
			// Last listener released; pending events have no recipients.
			return

		case <-h.shutdown:
			// Drain remaining events before shutting down
			for {
				select {
				case e := <-worker.events:
					deliver(e)
				default:
					return
				}
			}
		}
	}
}

// Shutdown gracefully stops all worker goroutines, draining pending events.
// Safe to call multiple times; subsequent calls are no-ops. Synchronous
// Notify keeps working after Shutdown; only the Post path stops.
func (h *Herald) Shutdown() {
	h.shutdownOnce.Do(func() {
		close(h.shutdown)
	})
	h.wg.Wait()
}
