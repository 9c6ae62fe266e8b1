// Package events defines the domain events published to Kafka.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	TypeOrderCreated  = "order.created"
	TypeStockReserved = "stock.reserved"
)

// Envelope wraps an event payload on the wire.
type Envelope struct {
	ID        string          `json:"id"`
	Type      string          `json:"event_type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// Wrap builds an envelope around a payload.
func Wrap(eventType string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		ID:        uuid.New().String(),
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
	}, nil
}

// OrderLine is a reduced order line as it appears in events.
type OrderLine struct {
	ProductID string `json:"_id"`
	Name      string `json:"name"`
}

// OrderCreated is published after an order document is persisted.
type OrderCreated struct {
	OrderID    string      `json:"order_id"`
	Name       string      `json:"name"`
	TotalPrice float64     `json:"total_price"`
	Lines      []OrderLine `json:"lines"`
	CreatedAt  time.Time   `json:"created_at"`
}

// StockReserved is published after a cart's decrements all commit.
type StockReserved struct {
	ProductID  string    `json:"product_id"`
	Units      int       `json:"units"`
	ReservedAt time.Time `json:"reserved_at"`
}
