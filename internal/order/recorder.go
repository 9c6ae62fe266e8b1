// Package order persists normalized order records.
package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/storefront/internal/events"
	"github.com/example/storefront/internal/infrastructure/docstore"
)

var ErrMissingContact = errors.New("name and phone are required")

// Line is a cart line as accepted at order time. Decoding into this struct
// drops any extra client-supplied fields, so only the product id and the
// display name ever reach the store.
type Line struct {
	ProductID docstore.ID `json:"_id"`
	Name      string      `json:"name"`
}

// Publisher publishes domain events. Satisfied by the Kafka producer.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Recorder persists orders. It never touches inventory; callers sequence
// the reservation and the order themselves.
type Recorder struct {
	orders    docstore.Collection
	publisher Publisher // nil disables event publishing
}

func NewRecorder(orders docstore.Collection, publisher Publisher) *Recorder {
	return &Recorder{orders: orders, publisher: publisher}
}

// Create validates the contact fields, reduces the cart lines, stamps the
// order with the server clock, and persists it. The total price is stored
// as the client sent it.
func (r *Recorder) Create(ctx context.Context, name, phone string, totalPrice float64, lines []Line) (docstore.ID, error) {
	if name == "" || phone == "" {
		return "", ErrMissingContact
	}

	reduced := make([]docstore.Document, len(lines))
	for i, line := range lines {
		reduced[i] = docstore.Document{
			docstore.IDField: line.ProductID.String(),
			"name":           line.Name,
		}
	}

	createdAt := time.Now().UTC()
	doc := docstore.Document{
		"name":       name,
		"phone":      phone,
		"totalPrice": totalPrice,
		"order":      reduced,
		"date":       createdAt.Format(time.RFC3339Nano),
	}

	id, err := r.orders.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("insert order: %w", err)
	}

	r.publishCreated(ctx, id, name, totalPrice, lines, createdAt)
	return id, nil
}

func (r *Recorder) publishCreated(ctx context.Context, id docstore.ID, name string, totalPrice float64, lines []Line, createdAt time.Time) {
	if r.publisher == nil {
		return
	}

	eventLines := make([]events.OrderLine, len(lines))
	for i, line := range lines {
		eventLines[i] = events.OrderLine{ProductID: line.ProductID.String(), Name: line.Name}
	}

	env, err := events.Wrap(events.TypeOrderCreated, events.OrderCreated{
		OrderID:    id.String(),
		Name:       name,
		TotalPrice: totalPrice,
		Lines:      eventLines,
		CreatedAt:  createdAt,
	})
	if err == nil {
		err = r.publisher.Publish(ctx, id.String(), env)
	}
	if err != nil {
		log.Printf("[Order] Failed to publish order.created for %s: %v", id, err)
	}
}
