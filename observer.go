package herald

import "sync"

// Observer represents a subscription to all channels (dynamic).
// Call Close() to release all underlying subscriptions.
type Observer struct {
	subs     []*Subscription
	listener Listener
	herald   *Herald
	active   bool
	channels map[Channel]struct{} // nil = all channels, non-nil = whitelist
	mu       sync.Mutex
}

// Close releases every subscription the observer holds.
// Safe to call multiple times.
func (o *Observer) Close() {
	// Lock observer first to mark inactive
	o.mu.Lock()
	if !o.active {
		o.mu.Unlock()
		return // Already closed
	}
	o.active = false
	subs := o.subs
	o.subs = nil
	o.mu.Unlock()

	// Remove from herald's observer list
	o.herald.mu.Lock()
	for i, obs := range o.herald.observers {
		if obs == o {
			// Swap with last element and truncate
			lastIdx := len(o.herald.observers) - 1
			o.herald.observers[i] = o.herald.observers[lastIdx]
			o.herald.observers = o.herald.observers[:lastIdx]
			break
		}
	}
	o.herald.mu.Unlock()

	// Release all subscriptions
	for _, sub := range subs {
		sub.Release()
	}
}

// Observe registers a listener for all channels on the default instance
// (dynamic). If channels are provided, only those channels are observed
// (whitelist). Returns an Observer that can be closed to unregister.
func Observe(listener Listener, channels ...Channel) *Observer {
	return defaultInstance().Observe(listener, channels...)
}

// Observe registers a listener for all channels (dynamic).
// If channels are provided, only those channels will be observed (whitelist).
// If no channels are provided, all channels will be observed.
// The observer receives payloads from both existing and future channels.
// Returns an Observer that can be closed to release all its subscriptions.
func (h *Herald) Observe(listener Listener, channels ...Channel) *Observer {
	h.mu.Lock()
	defer h.mu.Unlock()

	o := &Observer{
		subs:     make([]*Subscription, 0, len(h.registry)),
		listener: listener,
		herald:   h,
		active:   true,
		channels: nil, // nil = observe all
	}

	// Build whitelist if channels provided
	if len(channels) > 0 {
		o.channels = make(map[Channel]struct{}, len(channels))
		for _, ch := range channels {
			o.channels[ch] = struct{}{}
		}
	}

	// Subscribe to existing channels (filtered by whitelist if present)
	for channel := range h.registry {
		if o.channels != nil {
			if _, ok := o.channels[channel]; !ok {
				continue
			}
		}

		sub := &Subscription{
			channel:  channel,
			listener: listener,
			herald:   h,
		}
		h.registry[channel] = append(h.registry[channel], sub)
		o.subs = append(o.subs, sub)
	}

	// Add to observers list for future channels
	h.observers = append(h.observers, o)

	return o
}

// attachObservers subscribes all active observers to a channel.
// Must be called while holding h.mu write lock.
func (h *Herald) attachObservers(channel Channel) {
	for _, obs := range h.observers {
		obs.mu.Lock()
		if obs.active {
			// Skip if observer has whitelist and channel not in it
			if obs.channels != nil {
				if _, ok := obs.channels[channel]; !ok {
					obs.mu.Unlock()
					continue
				}
			}

			sub := &Subscription{
				channel:  channel,
				listener: obs.listener,
				herald:   h,
			}
			h.registry[channel] = append(h.registry[channel], sub)
			obs.subs = append(obs.subs, sub)
		}
		obs.mu.Unlock()
	}
}
