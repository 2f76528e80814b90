// Package notifier broadcasts store-change pings to listeners grouped by
// session.
package notifier

import "sync"

// Notifier delivers pings to the listeners of one session at a time.
// Listeners receive an empty struct when the session's store changed and
// should re-read it.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[string]map[chan struct{}]struct{}
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[string]map[chan struct{}]struct{}),
	}
}

// Subscribe returns a channel that receives pings for session.
// The caller must call Unsubscribe when done to prevent goroutine leaks.
func (n *Notifier) Subscribe(session string) chan struct{} {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	if n.listeners[session] == nil {
		n.listeners[session] = make(map[chan struct{}]struct{})
	}
	n.listeners[session][ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier) Unsubscribe(session string, ch chan struct{}) {
	n.mu.Lock()
	if set, ok := n.listeners[session]; ok {
		delete(set, ch)
		if len(set) == 0 {
			delete(n.listeners, session)
		}
	}
	n.mu.Unlock()
	close(ch)
}

// Broadcast pings every listener of session.
// Non-blocking: if a listener's channel is full, the ping is skipped.
func (n *Notifier) Broadcast(session string) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners[session] {
		select {
		case ch <- struct{}{}:
		default:
			// a ping is already pending
		}
	}
}

// Listeners returns the number of listeners subscribed to session.
func (n *Notifier) Listeners(session string) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners[session])
}
