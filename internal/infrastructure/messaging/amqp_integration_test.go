//go:build integration

package messaging_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"

	"github.com/eatwhat/eatwhat-api/internal/core/domain"
	"github.com/eatwhat/eatwhat-api/internal/infrastructure/messaging"
)

func setupRabbitMQ(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := rabbitmq.Run(ctx, "rabbitmq:3.12-management")
	if err != nil {
		t.Fatalf("failed to start RabbitMQ container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	amqpURL, err := container.AmqpURL(ctx)
	if err != nil {
		t.Fatalf("failed to get AMQP URL: %v", err)
	}
	return amqpURL
}

func TestIntegration_Publisher_RoutesByEventType(t *testing.T) {
	amqpURL := setupRabbitMQ(t)

	conn, err := messaging.NewConnection(amqpURL, "", zerolog.Nop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer conn.Close()

	// Independent consumer bound to the locked events only.
	raw, err := amqp.Dial(amqpURL)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer raw.Close()
	ch, err := raw.Channel()
	if err != nil {
		t.Fatalf("channel: %v", err)
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		t.Fatalf("queue declare: %v", err)
	}
	if err := ch.QueueBind(q.Name, "session.locked", messaging.DefaultExchange, false, nil); err != nil {
		t.Fatalf("bind: %v", err)
	}
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	pub := messaging.NewPublisher(conn)
	ctx := context.Background()
	if err := pub.Publish(ctx, domain.SessionEvent{Type: domain.EventSessionCreated, SessionCode: "ABC123"}); err != nil {
		t.Fatalf("publish created: %v", err)
	}
	if err := pub.Publish(ctx, domain.SessionEvent{Type: domain.EventSessionLocked, SessionCode: "ABC123", Actor: "alice"}); err != nil {
		t.Fatalf("publish locked: %v", err)
	}

	select {
	case d := <-deliveries:
		var got domain.SessionEvent
		if err := json.Unmarshal(d.Body, &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Type != domain.EventSessionLocked || got.Actor != "alice" {
			t.Fatalf("unexpected event: %+v", got)
		}
		if d.ContentType != "application/json" || d.MessageId == "" {
			t.Fatalf("unexpected delivery metadata: %q %q", d.ContentType, d.MessageId)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for session.locked")
	}
}

func TestIntegration_Connection_InvalidURL(t *testing.T) {
	if _, err := messaging.NewConnection("amqp://invalid:5672", "", zerolog.Nop()); err == nil {
		t.Fatal("expected error for invalid URL")
	}
}
