// Package events carries game completion events from supervisors to the
// presentation layer.
package events

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/cxlaunch/internal/domain"
)

// ErrBusClosed is returned by Publish after Close.
var ErrBusClosed = errors.New("event bus closed")

// DefaultBufferSize is the capacity of the publish queue.
const DefaultBufferSize = 64

// Bus is a multi-producer channel with fan-out to subscribers.
// Publish may be called from any number of goroutines; Run delivers one
// event at a time, so subscribers never see interleaved records.
type Bus struct {
	source      chan domain.CompletionEvent
	done        chan struct{}
	closeOnce   sync.Once
	subscribers map[int]chan domain.CompletionEvent
	mu          sync.RWMutex
	nextID      int
	logger      *zap.Logger
}

// NewBus creates a bus. Call Run to start delivery.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		source:      make(chan domain.CompletionEvent, DefaultBufferSize),
		done:        make(chan struct{}),
		subscribers: make(map[int]chan domain.CompletionEvent),
		logger:      logger,
	}
}

// Publish queues an event. It blocks while the queue is full and returns
// ErrBusClosed once the bus is closed.
func (b *Bus) Publish(event domain.CompletionEvent) error {
	select {
	case <-b.done:
		return ErrBusClosed
	default:
	}

	select {
	case b.source <- event:
		return nil
	case <-b.done:
		return ErrBusClosed
	}
}

// Run delivers queued events until ctx is canceled or Close is called.
// On exit the bus is closed, so later Publish calls fail instead of
// blocking, and all subscriber channels are closed.
func (b *Bus) Run(ctx context.Context) error {
	defer b.closeAllSubscribers()

	for {
		select {
		case <-ctx.Done():
			b.logger.Debug("event bus stopping")
			b.Close()
			return ctx.Err()

		case <-b.done:
			b.drain()
			return nil

		case event := <-b.source:
			b.broadcast(event)
		}
	}
}

// drain delivers events that were queued before Close.
func (b *Bus) drain() {
	for {
		select {
		case event := <-b.source:
			b.broadcast(event)
		default:
			return
		}
	}
}

// broadcast hands an event to every subscriber without blocking.
// A full subscriber loses the event rather than stalling the bus.
func (b *Bus) broadcast(event domain.CompletionEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			b.logger.Warn("subscriber channel full, dropping event",
				zap.Int("subscriber_id", id),
				zap.String("instance_id", event.InstanceID))
		}
	}
}

// Subscribe registers a subscriber with the given buffer size.
func (b *Bus) Subscribe(bufferSize int) (<-chan domain.CompletionEvent, int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	ch := make(chan domain.CompletionEvent, bufferSize)
	b.subscribers[id] = ch
	return ch, id
}

// Close stops accepting events. Run delivers what is already queued, then returns.
func (b *Bus) Close() {
	b.closeOnce.Do(func() { close(b.done) })
}

func (b *Bus) closeAllSubscribers() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}

// Ensure Bus implements domain.EventPublisher.
var _ domain.EventPublisher = (*Bus)(nil)
