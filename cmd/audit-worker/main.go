package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	mongoadapter "github.com/Ayooluwa21/tikker-backend/internal/adapters/mongo"
	"github.com/Ayooluwa21/tikker-backend/internal/adapters/rabbit"
	"github.com/Ayooluwa21/tikker-backend/internal/config"
	"github.com/Ayooluwa21/tikker-backend/internal/observability"
)

// The audit worker consumes booking events off the broker and writes
// them to the mongo audit trail. Deliveries are acked only after the
// write succeeds; redelivered duplicates are tolerated because each
// audit entry carries the originating message id.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := observability.NewLogger()

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())
	audit := mongoadapter.NewAuditLogger(mongoClient.Database("tikker"), logger)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()

	consumer, err := rabbit.NewConsumer(conn, "audit.q", "booking.*")
	if err != nil {
		log.Fatalf("failed to create consumer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deliveries, err := consumer.Consume(ctx)
	if err != nil {
		log.Fatalf("failed to consume: %v", err)
	}

	go func() {
		for d := range deliveries {
			handle(ctx, audit, logger, d)
		}
	}()
	logger.Info("audit worker started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("Shutdown audit worker")
}

func handle(ctx context.Context, audit *mongoadapter.AuditLogger, logger observability.Logger, d amqp.Delivery) {
	var payload map[string]interface{}
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		logger.WithField("message_id", d.MessageId).Error("malformed event payload: ", err)
		_ = d.Nack(false, false)
		return
	}

	data := map[string]interface{}{
		"message_id": d.MessageId,
		"payload":    payload,
	}
	if err := audit.Record(ctx, d.RoutingKey, data); err != nil {
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}
