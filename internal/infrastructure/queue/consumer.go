package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"rentalhub/internal/domain/entity"
	"rentalhub/pkg/logger"
)

// EventHandler processes one decoded event. An error rejects the delivery without requeue.
type EventHandler func(ctx context.Context, event entity.RentalEvent) error

// Consume reads events from queue until ctx is done, reconnecting with backoff.
func Consume(ctx context.Context, url, queue string, handle EventHandler) {
	backoff := time.Second
	for ctx.Err() == nil {
		conn, err := amqp.Dial(url)
		if err != nil {
			logger.Warn("event-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, queue, handle)
		conn.Close()
		if err != nil && ctx.Err() == nil {
			logger.Warn("event-consumer: consume loop ended: %v; reconnecting", err)
			if !sleep(ctx, 2*time.Second) {
				return
			}
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queue string, handle EventHandler) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer ch.Close()

	if err := ch.Qos(50, 0, false); err != nil {
		logger.Warn("event-consumer: set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := HandleDelivery(ctx, d.Body, handle); err != nil {
				logger.Warn("event-consumer: handle message failed: %v", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleDelivery decodes body and passes it to handle.
func HandleDelivery(ctx context.Context, body []byte, handle EventHandler) error {
	var event entity.RentalEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if event.Type == "" || event.ListingID == "" {
		return errors.New("event missing type or listing id")
	}
	return handle(ctx, event)
}

// LogEvent is an EventHandler that writes each event to the structured log.
func LogEvent(ctx context.Context, event entity.RentalEvent) error {
	logger.L().Info().
		Str("type", event.Type).
		Str("listing_id", event.ListingID).
		Str("owner_id", event.OwnerID).
		Str("renter_id", event.RenterID).
		Str("status", event.Status).
		Int64("occurred_at", event.OccurredAt).
		Msg("Rental event")
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
