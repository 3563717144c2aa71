package store

import "sync"

// Subscription is a cancellable producer of full query snapshots. Each
// delivery supersedes the previous one: if the consumer has not drained the
// channel when a newer snapshot arrives, the stale snapshot is dropped
// rather than queued (latest-wins). A closed subscription delivers nothing
// further and its Snapshots channel is closed.
type Subscription struct {
	mu        sync.Mutex
	snapshots chan []Document
	done      chan struct{}
	closed    bool
}

// NewSubscription creates an open subscription. Store implementations (and
// test doubles) push deliveries with Publish.
func NewSubscription() *Subscription {
	return &Subscription{
		snapshots: make(chan []Document, 1),
		done:      make(chan struct{}),
	}
}

// Snapshots returns the delivery channel. It is closed by Close.
func (s *Subscription) Snapshots() <-chan []Document {
	return s.snapshots
}

// Done is closed when the subscription has been cancelled.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Publish delivers a snapshot, replacing any undelivered one. Publishing to
// a closed subscription is a no-op.
func (s *Subscription) Publish(snapshot []Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.snapshots <- snapshot:
			return
		default:
			// Drop the stale snapshot and retry with the new one.
			select {
			case <-s.snapshots:
			default:
			}
		}
	}
}

// Close cancels the subscription and closes the Snapshots channel. A pending
// undelivered snapshot is still readable by the consumer. Close is
// idempotent.
func (s *Subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
	close(s.snapshots)
}
