package event

import (
	"sync"

	"minimal-price/internal/domain"

	"go.uber.org/zap"
)

// Handler receives a single change notification. It runs on its own goroutine
// and must not assume the service cache already reflects the mutation.
type Handler func(domain.Event)

// Notifier fans catalog change events out to an explicit subscriber list.
// Delivery is at-most-once and fire-and-forget: Publish never blocks on a
// subscriber, and a subscriber failure cannot affect the committed write.
type Notifier struct {
	mu       sync.RWMutex
	handlers []Handler
	logger   *zap.Logger
}

// NewNotifier creates a notifier with no subscribers
func NewNotifier(logger *zap.Logger) *Notifier {
	return &Notifier{logger: logger}
}

// Subscribe registers a handler for all subsequent events
func (n *Notifier) Subscribe(h Handler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers = append(n.handlers, h)
}

// Publish delivers the event to every subscriber on its own goroutine.
// Subscriber panics are recovered and logged.
func (n *Notifier) Publish(e domain.Event) {
	n.mu.RLock()
	handlers := make([]Handler, len(n.handlers))
	copy(handlers, n.handlers)
	n.mu.RUnlock()

	for _, h := range handlers {
		h := h
		go func() {
			defer func() {
				if r := recover(); r != nil {
					n.logger.Error("Event subscriber panicked",
						zap.String("event", e.Kind()),
						zap.Any("panic", r),
					)
				}
			}()
			h(e)
		}()
	}
}
