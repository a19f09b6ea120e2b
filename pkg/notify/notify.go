package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Severity mirrors the levels the rendering shell knows how to surface.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is one user-facing status message.
type Notification struct {
	Message  string
	Severity Severity
}

const publishTimeout = 100 * time.Millisecond

// Bus decouples state-owning components from whatever renders
// notifications. Publishing never blocks the publisher for more than the
// publish timeout; overflow is counted, not surfaced.
type Bus struct {
	notifications chan Notification
	closed        bool
	dropped       atomic.Uint64
	mu            sync.RWMutex
}

func NewBus() *Bus {
	return &Bus{
		notifications: make(chan Notification, 100),
	}
}

// Publish enqueues a notification for the consumer.
func (b *Bus) Publish(n Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	select {
	case b.notifications <- n:
	default:
		timer := time.NewTimer(publishTimeout)
		defer timer.Stop()
		select {
		case b.notifications <- n:
		case <-timer.C:
			b.dropped.Add(1)
		}
	}
}

// AddNotification is the bridge contract the session core consumes.
func (b *Bus) AddNotification(message string, severity Severity) {
	b.Publish(Notification{Message: message, Severity: severity})
}

// Consume blocks until a notification arrives, the bus closes, or ctx is
// done. ok is false when nothing more will arrive.
func (b *Bus) Consume(ctx context.Context) (Notification, bool) {
	select {
	case n, ok := <-b.notifications:
		if !ok {
			return Notification{}, false
		}
		return n, true
	case <-ctx.Done():
		return Notification{}, false
	}
}

// TryConsume drains one pending notification without blocking.
func (b *Bus) TryConsume() (Notification, bool) {
	select {
	case n, ok := <-b.notifications:
		if !ok {
			return Notification{}, false
		}
		return n, true
	default:
		return Notification{}, false
	}
}

func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.notifications)
}

// Dropped reports how many notifications overflowed the buffer.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}
