package docstore

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory document store. It backs unit tests and the
// zero-dependency dev driver; the same mutex guards every collection, so
// IncrementField is atomic like the real backends.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]memoryCollection // collection -> documents
}

type memoryCollection struct {
	docs  map[ID]Document
	order []ID // insertion order, the store-native order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]memoryCollection)}
}

func (s *MemoryStore) Collection(name string) Collection {
	return &memoryHandle{store: s, name: name}
}

func (s *MemoryStore) Close() error { return nil }

type memoryHandle struct {
	store *MemoryStore
	name  string
}

func (h *memoryHandle) coll() memoryCollection {
	c, ok := h.store.data[h.name]
	if !ok {
		c = memoryCollection{docs: make(map[ID]Document)}
		h.store.data[h.name] = c
	}
	return c
}

func (h *memoryHandle) FindAll(ctx context.Context) ([]Document, error) {
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()

	c := h.store.data[h.name]
	docs := make([]Document, 0, len(c.order))
	for _, id := range c.order {
		docs = append(docs, copyDoc(c.docs[id]))
	}
	return docs, nil
}

func (h *memoryHandle) Find(ctx context.Context, f Filter) ([]Document, error) {
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()

	c := h.store.data[h.name]
	var docs []Document
	for _, id := range c.order {
		if f.Matches(c.docs[id]) {
			docs = append(docs, copyDoc(c.docs[id]))
		}
	}
	return docs, nil
}

func (h *memoryHandle) FindByID(ctx context.Context, id ID) (Document, error) {
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()

	doc, ok := h.store.data[h.name].docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyDoc(doc), nil
}

func (h *memoryHandle) InsertOne(ctx context.Context, doc Document) (ID, error) {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	c := h.coll()
	id := NewID()
	stored := copyDoc(doc)
	stored[IDField] = id.String()
	c.docs[id] = stored
	c.order = append(c.order, id)
	h.store.data[h.name] = c
	return id, nil
}

func (h *memoryHandle) IncrementField(ctx context.Context, id ID, field string, delta int) error {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	doc, ok := h.store.data[h.name].docs[id]
	if !ok {
		return ErrNotFound
	}

	current := 0.0
	if v, ok := doc[field]; ok {
		n, ok := asNumber(v)
		if !ok {
			return ErrConditionFailed
		}
		current = n
	}

	next := current + float64(delta)
	if next < 0 {
		return ErrConditionFailed
	}
	doc[field] = next
	return nil
}

func copyDoc(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
