//go:build integration

package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"

	"github.com/hintwise/hintwise/internal/queue"
)

// setupRabbitMQ creates a RabbitMQ container for testing
func setupRabbitMQ(t *testing.T) (string, func()) {
	ctx := context.Background()

	container, err := rabbitmq.Run(ctx, "rabbitmq:3.12-management")
	if err != nil {
		t.Fatalf("failed to start RabbitMQ container: %v", err)
	}

	amqpURL, err := container.AmqpURL(ctx)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("failed to get AMQP URL: %v", err)
	}

	cleanup := func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return amqpURL, cleanup
}

func TestIntegration_Connection_ConnectAndClose(t *testing.T) {
	amqpURL, cleanup := setupRabbitMQ(t)
	defer cleanup()

	conn, err := queue.NewConnection(amqpURL)
	if err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}

	if !conn.IsConnected() {
		t.Error("expected connection to be active")
	}

	if err := conn.Close(); err != nil {
		t.Errorf("failed to close connection: %v", err)
	}
}

func TestIntegration_Connection_InvalidURL(t *testing.T) {
	_, err := queue.NewConnection("amqp://invalid:5672")
	if err == nil {
		t.Error("expected error for invalid URL")
	}
}

func TestIntegration_PublishAndConsume(t *testing.T) {
	amqpURL, cleanup := setupRabbitMQ(t)
	defer cleanup()

	conn, err := queue.NewConnection(amqpURL)
	if err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}
	defer conn.Close()

	received := make(chan *queue.HintDeliveredEvent, 1)
	consumer := queue.NewConsumer(conn, func(ctx context.Context, event *queue.HintDeliveredEvent) error {
		received <- event
		return nil
	}, queue.DefaultConsumerConfig())

	ctx := context.Background()
	if err := consumer.Start(ctx); err != nil {
		t.Fatalf("failed to start consumer: %v", err)
	}
	defer consumer.Stop()

	producer := queue.NewProducer(conn)
	event := &queue.HintDeliveredEvent{
		DeliveryID: uuid.New(),
		HintID:     uuid.New(),
		UserID:     uuid.New(),
		ProblemID:  uuid.New(),
		Level:      2,
		Type:       "approach",
	}
	if err := producer.PublishHintDelivered(ctx, event); err != nil {
		t.Fatalf("failed to publish: %v", err)
	}

	select {
	case got := <-received:
		if got.DeliveryID != event.DeliveryID {
			t.Errorf("DeliveryID = %v; want %v", got.DeliveryID, event.DeliveryID)
		}
		if got.Level != 2 {
			t.Errorf("Level = %d; want 2", got.Level)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestIntegration_Producer_FillsDefaults(t *testing.T) {
	amqpURL, cleanup := setupRabbitMQ(t)
	defer cleanup()

	conn, err := queue.NewConnection(amqpURL)
	if err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}
	defer conn.Close()

	producer := queue.NewProducer(conn)
	event := &queue.HintDeliveredEvent{
		HintID:    uuid.New(),
		UserID:    uuid.New(),
		ProblemID: uuid.New(),
	}
	if err := producer.PublishHintDelivered(context.Background(), event); err != nil {
		t.Fatalf("failed to publish: %v", err)
	}

	if event.DeliveryID == uuid.Nil {
		t.Error("DeliveryID should be generated")
	}
	if event.DeliveredAt.IsZero() {
		t.Error("DeliveredAt should be set")
	}
}
