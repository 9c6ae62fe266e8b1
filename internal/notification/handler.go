// Package notification turns order events into customer notifications.
package notification

import (
	"context"
	"encoding/json"
	"log"

	"github.com/example/storefront/internal/events"
)

// Handler processes events from the storefront topic. Delivery is a log
// line; there is no outbound channel wired up.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// HandleEvent processes one event from Kafka.
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var env events.Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		log.Printf("[Notifier] Failed to unmarshal event: %v", err)
		return err
	}

	switch env.Type {
	case events.TypeOrderCreated:
		return h.handleOrderCreated(env)
	case events.TypeStockReserved:
		// Stock movements are not customer-facing.
		return nil
	default:
		return nil
	}
}

func (h *Handler) handleOrderCreated(env events.Envelope) error {
	var e events.OrderCreated
	if err := json.Unmarshal(env.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal order.created: %v", err)
		return err
	}

	log.Printf("[Notifier] Order %s confirmed for %s: %d line(s), total %.2f",
		e.OrderID, e.Name, len(e.Lines), e.TotalPrice)
	return nil
}
