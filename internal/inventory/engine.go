// Package inventory checks and decrements product stock for submitted carts.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/example/storefront/internal/events"
	"github.com/example/storefront/internal/infrastructure/docstore"
)

const availabilityField = "availability"

var (
	ErrEmptyCart         = errors.New("cart must not be empty")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Publisher publishes domain events. Satisfied by the Kafka producer.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Engine reserves stock: per distinct product it issues one atomic
// conditional decrement, so the check and the write cannot be separated by
// a concurrent reservation. There is no cross-product rollback: products
// whose decrement committed stay decremented when another product in the
// same cart fails.
type Engine struct {
	products  docstore.Collection
	publisher Publisher // nil disables event publishing
}

func NewEngine(products docstore.Collection, publisher Publisher) *Engine {
	return &Engine{products: products, publisher: publisher}
}

// Reserve decrements availability for every product in the cart. The cart
// is a multiset: the same id appearing n times demands n units. On failure
// the returned error wraps ErrProductNotFound or ErrInsufficientStock and
// names the offending product id.
func (e *Engine) Reserve(ctx context.Context, cart []docstore.ID) error {
	if len(cart) == 0 {
		return ErrEmptyCart
	}

	demand := make(map[docstore.ID]int)
	var order []docstore.ID // distinct ids, first-appearance order
	for _, id := range cart {
		if demand[id] == 0 {
			order = append(order, id)
		}
		demand[id]++
	}

	// Decrements for distinct products are independent and issued
	// concurrently; all complete before the request resolves.
	errs := make([]error, len(order))
	var wg sync.WaitGroup
	for i, id := range order {
		wg.Add(1)
		go func(i int, id docstore.ID) {
			defer wg.Done()
			errs[i] = e.reserveOne(ctx, id, demand[id])
		}(i, id)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	e.publishReserved(ctx, order, demand)
	return nil
}

func (e *Engine) reserveOne(ctx context.Context, id docstore.ID, units int) error {
	err := e.products.IncrementField(ctx, id, availabilityField, -units)
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		return fmt.Errorf("product %s: %w", id, ErrProductNotFound)
	case errors.Is(err, docstore.ErrConditionFailed):
		return fmt.Errorf("product %s: %w", id, ErrInsufficientStock)
	case err != nil:
		return fmt.Errorf("decrement product %s: %w", id, err)
	}
	return nil
}

// publishReserved emits one stock.reserved event per product. Best effort:
// a dead broker must not fail a committed reservation.
func (e *Engine) publishReserved(ctx context.Context, order []docstore.ID, demand map[docstore.ID]int) {
	if e.publisher == nil {
		return
	}
	for _, id := range order {
		env, err := events.Wrap(events.TypeStockReserved, events.StockReserved{
			ProductID:  id.String(),
			Units:      demand[id],
			ReservedAt: time.Now().UTC(),
		})
		if err == nil {
			err = e.publisher.Publish(ctx, id.String(), env)
		}
		if err != nil {
			log.Printf("[Inventory] Failed to publish stock.reserved for %s: %v", id, err)
		}
	}
}
