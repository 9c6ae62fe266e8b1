package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/infrastructure/kafka"
	"github.com/example/storefront/internal/notification"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Notifier] Invalid configuration: %v", err)
	}
	if len(cfg.KafkaBrokers) == 0 {
		log.Fatal("[Notifier] KAFKA_BROKERS is required")
	}

	consumerGroup := "storefront-notifier"

	log.Println("[Notifier] ========================================")
	log.Println("[Notifier] Storefront - Order Notification Service")
	log.Println("[Notifier] ========================================")
	log.Printf("[Notifier] Kafka: %v", cfg.KafkaBrokers)
	log.Printf("[Notifier] Topic: %s", cfg.KafkaTopic)
	log.Printf("[Notifier] Group: %s", consumerGroup)

	handler := notification.NewHandler()

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, consumerGroup)
	defer consumer.Close()

	go func() {
		log.Println("[Notifier] Starting event consumer...")
		if err := consumer.Consume(ctx, handler.HandleEvent); err != nil {
			if ctx.Err() == nil {
				log.Printf("[Notifier] Consumer error: %v", err)
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[Notifier] Shutting down...")
	cancel()
}
