// Command seed loads product documents from a JSON file into the products
// collection. Products are only ever created here; the API mutates nothing
// but availability.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/infrastructure/docstore"
)

func main() {
	file := flag.String("file", "products.json", "path to a JSON array of product documents")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Seed] Invalid configuration: %v", err)
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("[Seed] Failed to read %s: %v", *file, err)
	}

	var products []docstore.Document
	if err := json.Unmarshal(raw, &products); err != nil {
		log.Fatalf("[Seed] Failed to parse %s: %v", *file, err)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("[Seed] Failed to open document store: %v", err)
	}
	defer store.Close()

	collection := store.Collection("products")
	for _, product := range products {
		id, err := collection.InsertOne(ctx, product)
		if err != nil {
			log.Fatalf("[Seed] Failed to insert product: %v", err)
		}
		log.Printf("[Seed] Inserted product %s (%v)", id, product["name"])
	}

	log.Printf("[Seed] Done, %d product(s) inserted", len(products))
}

func openStore(ctx context.Context, cfg *config.Config) (docstore.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return nil, errors.New("the memory driver is process-local and cannot be seeded")
	case config.DriverPostgres:
		db, err := docstore.ConnectPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		store := docstore.NewPostgresStore(db, cfg.Database)
		if err := store.EnsureSchema(ctx, "products", "orders"); err != nil {
			return nil, err
		}
		return store, nil
	default:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, err
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.DynamoEndpoint != "" {
				o.BaseEndpoint = aws.String(cfg.DynamoEndpoint)
			}
		})
		return docstore.NewDynamoStore(client, cfg.Database), nil
	}
}
