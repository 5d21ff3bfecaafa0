package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Producer publishes hint delivery events to the queue
type Producer struct {
	conn *Connection
}

// NewProducer creates a new queue producer
func NewProducer(conn *Connection) *Producer {
	return &Producer{conn: conn}
}

// PublishHintDelivered publishes a hint delivery event
func (p *Producer) PublishHintDelivered(ctx context.Context, event *HintDeliveredEvent) error {
	if event.DeliveryID == uuid.Nil {
		event.DeliveryID = uuid.New()
	}
	if event.DeliveredAt.IsZero() {
		event.DeliveredAt = time.Now()
	}

	if err := p.conn.PublishJSON(ctx, HintDeliveredQueueName, event); err != nil {
		return fmt.Errorf("failed to publish hint delivery event: %w", err)
	}

	slog.Info("published hint delivery event",
		"delivery_id", event.DeliveryID,
		"user_id", event.UserID,
		"problem_id", event.ProblemID,
		"level", event.Level,
		"auto_triggered", event.AutoTriggered,
	)

	return nil
}
