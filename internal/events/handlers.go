package events

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/cxlaunch/internal/domain"
)

// Envelope is the wire form of a named event.
type Envelope struct {
	Event   string                 `json:"event"`
	Payload domain.CompletionEvent `json:"payload"`
}

// JSONWriter writes one JSON line per event.
type JSONWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONWriter creates a writer over w.
func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{enc: json.NewEncoder(w)}
}

// Write encodes the event as {"event":"game-finished","payload":{...}}.
func (w *JSONWriter) Write(event domain.CompletionEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(Envelope{Event: domain.GameFinishedEvent, Payload: event})
}

// Handler processes one event.
type Handler func(event domain.CompletionEvent) error

// Consume calls handler for each event on ch until ch is closed or ctx is done.
// Handler errors are logged and do not stop consumption.
func Consume(ctx context.Context, ch <-chan domain.CompletionEvent, logger *zap.Logger, handler Handler) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := handler(event); err != nil {
				logger.Warn("event handler failed",
					zap.String("instance_id", event.InstanceID),
					zap.Error(err))
			}
		}
	}
}

// RecordPlaytime returns a handler that stores events in the ledger.
func RecordPlaytime(store domain.PlaytimeStore) Handler {
	return store.Record
}
