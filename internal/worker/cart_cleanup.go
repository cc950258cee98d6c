package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/greenbasket/storefront/internal/model"
	"github.com/greenbasket/storefront/internal/remote"
)

const (
	cleanupQueueName = "cart_cleanup"
	dlxExchange      = "cart_cleanup.dlx"
	dlqQueueName     = "cart_cleanup.dlq"
	idempotencyTTL   = 24 * time.Hour
)

// CartCleanupWorker retries remote cart clears that failed right after
// an order was placed. Order success never waits on this; the worker
// drains the queue in the background.
type CartCleanupWorker struct {
	channel     *amqp.Channel
	store       remote.Store
	redisClient *redis.Client
	log         *slog.Logger
	done        chan struct{}
}

func NewCartCleanupWorker(ch *amqp.Channel, store remote.Store, redisClient *redis.Client, log *slog.Logger) *CartCleanupWorker {
	return &CartCleanupWorker{
		channel:     ch,
		store:       store,
		redisClient: redisClient,
		log:         log,
		done:        make(chan struct{}),
	}
}

// SetupRabbitMQ declares the cleanup queue and its DLX/DLQ.
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, cleanupQueueName, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(cleanupQueueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": cleanupQueueName,
	}); err != nil {
		return fmt.Errorf("declare cleanup queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

func (w *CartCleanupWorker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(cleanupQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("cart cleanup worker started")
	return nil
}

func (w *CartCleanupWorker) Stop() { close(w.done) }

func (w *CartCleanupWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var cleanup model.CartCleanupMessage
	if err := json.Unmarshal(msg.Body, &cleanup); err != nil {
		w.log.Error("unmarshal cleanup message", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	log := w.log.With("user_id", cleanup.UserID, "batch_id", cleanup.BatchID)

	// Idempotency check via Redis
	idempotencyKey := "cart_cleanup:" + cleanup.BatchID
	exists, err := w.redisClient.Exists(ctx, idempotencyKey).Result()
	if err != nil {
		log.Error("check idempotency key", "error", err)
		_ = msg.Nack(false, true)
		return
	}
	if exists > 0 {
		log.Info("cleanup already done, skipping")
		_ = msg.Ack(false)
		return
	}

	if err := w.store.Delete(ctx, "cart", remote.Eq("user_id", cleanup.UserID)); err != nil {
		log.Error("retry cart clear failed", "error", err)
		_ = msg.Nack(false, false) // → DLQ
		return
	}

	if err := w.redisClient.Set(ctx, idempotencyKey, "1", idempotencyTTL).Err(); err != nil {
		log.Error("set idempotency key", "error", err)
	}

	_ = msg.Ack(false)
	log.Info("cart cleared")
}
