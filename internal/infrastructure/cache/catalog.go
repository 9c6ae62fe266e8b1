// Package cache holds the Redis-backed catalog listing cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/storefront/internal/infrastructure/docstore"
)

const (
	catalogKey = "catalog:products"
	catalogTTL = 30 * time.Second
)

// CatalogCache stores the serialized product listing in Redis. Every
// operation is best effort: Redis being down degrades reads to the store,
// it never fails a request.
type CatalogCache struct {
	client *redis.Client
}

func NewCatalogCache(client *redis.Client) *CatalogCache {
	return &CatalogCache{client: client}
}

func (c *CatalogCache) Get(ctx context.Context) ([]docstore.Document, bool) {
	raw, err := c.client.Get(ctx, catalogKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		log.Printf("[Cache] Catalog read failed: %v", err)
		return nil, false
	}

	var docs []docstore.Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		log.Printf("[Cache] Corrupt catalog entry, dropping: %v", err)
		c.Invalidate(ctx)
		return nil, false
	}
	return docs, true
}

func (c *CatalogCache) Set(ctx context.Context, docs []docstore.Document) {
	raw, err := json.Marshal(docs)
	if err != nil {
		log.Printf("[Cache] Catalog encode failed: %v", err)
		return
	}
	if err := c.client.Set(ctx, catalogKey, raw, catalogTTL).Err(); err != nil {
		log.Printf("[Cache] Catalog write failed: %v", err)
	}
}

func (c *CatalogCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, catalogKey).Err(); err != nil {
		log.Printf("[Cache] Catalog invalidate failed: %v", err)
	}
}
