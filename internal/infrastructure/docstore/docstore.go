// Package docstore is the document store boundary: named collections of
// schema-less documents keyed by a store-generated identifier.
package docstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no document has the requested id.
	ErrNotFound = errors.New("document not found")

	// ErrConditionFailed is returned when a conditional update would drive
	// the target field below zero.
	ErrConditionFailed = errors.New("condition failed")

	// ErrInvalidID is returned for identifier strings that do not parse.
	ErrInvalidID = errors.New("invalid document id")
)

// IDField is the document field holding the store-assigned identifier.
const IDField = "_id"

// ID is an opaque store-generated document identifier.
type ID string

func (id ID) String() string { return string(id) }

// ParseID validates a client-supplied identifier string.
func ParseID(s string) (ID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", ErrInvalidID
	}
	return ID(s), nil
}

// NewID returns a fresh store-assigned identifier.
func NewID() ID {
	return ID(uuid.New().String())
}

// Document is a schema-less record. Numeric values decode as float64
// regardless of backend.
type Document map[string]any

// ID returns the document's identifier, if present.
func (d Document) ID() (ID, bool) {
	s, ok := d[IDField].(string)
	if !ok {
		return "", false
	}
	return ID(s), true
}

// Collection is a named set of documents.
type Collection interface {
	// FindAll returns every document in store-native order.
	FindAll(ctx context.Context) ([]Document, error)

	// Find returns the documents matching the filter.
	Find(ctx context.Context, f Filter) ([]Document, error)

	// FindByID returns the document with the given id, or ErrNotFound.
	FindByID(ctx context.Context, id ID) (Document, error)

	// InsertOne assigns an id, persists the document, and returns the id.
	InsertOne(ctx context.Context, doc Document) (ID, error)

	// IncrementField atomically adds delta to a numeric field of a single
	// document. A missing field reads as zero. The update applies only if
	// the resulting value is non-negative; otherwise ErrConditionFailed.
	// Returns ErrNotFound if no document has the id.
	IncrementField(ctx context.Context, id ID, field string, delta int) error
}

// Store is an open connection to a named logical database.
type Store interface {
	Collection(name string) Collection
	Close() error
}
