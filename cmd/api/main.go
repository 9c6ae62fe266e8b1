package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redis/go-redis/v9"

	"github.com/example/storefront/internal/api"
	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/infrastructure/cache"
	"github.com/example/storefront/internal/infrastructure/docstore"
	"github.com/example/storefront/internal/infrastructure/kafka"
	"github.com/example/storefront/internal/inventory"
	"github.com/example/storefront/internal/order"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[API] Invalid configuration: %v", err)
	}

	log.Println("[API] ========================================")
	log.Println("[API] Storefront API")
	log.Println("[API] ========================================")
	log.Printf("[API] Store driver: %s", cfg.StoreDriver)
	log.Printf("[API] Database: %s", cfg.Database)

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("[API] Failed to open document store: %v", err)
	}
	defer store.Close()

	products := store.Collection("products")
	orders := store.Collection("orders")

	var publisher *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		publisher = kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer publisher.Close()
		log.Printf("[API] Kafka: %v topic %s", cfg.KafkaBrokers, cfg.KafkaTopic)
	} else {
		log.Println("[API] Kafka disabled (KAFKA_BROKERS not set)")
	}

	var listCache catalog.ListCache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatalf("[API] Failed to connect to Redis at %s: %v", cfg.RedisAddr, err)
		}
		listCache = cache.NewCatalogCache(client)
		log.Printf("[API] Catalog cache: redis %s", cfg.RedisAddr)
	} else {
		log.Println("[API] Catalog cache disabled (REDIS_ADDR not set)")
	}

	catalogSvc := catalog.NewService(products, listCache)
	engine := inventory.NewEngine(products, publisherOrNil(publisher))
	recorder := order.NewRecorder(orders, publisherOrNil(publisher))

	handlers := api.NewHandlers(catalogSvc, engine, recorder)
	router := api.NewRouter(handlers, cfg.ImagesDir)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("[API] Server started on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[API] Server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[API] Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config) (docstore.Store, error) {
	switch cfg.StoreDriver {
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
	case config.DriverMemory:
		return docstore.NewMemoryStore(), nil
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

// publisherOrNil keeps a nil *kafka.Producer from becoming a non-nil
// Publisher interface value.
func publisherOrNil(p *kafka.Producer) inventory.Publisher {
	if p == nil {
		return nil
	}
	return p
}
