package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/emilhornlund/quiz-game-service/internal/app"
	"github.com/emilhornlund/quiz-game-service/internal/domain"
)

func awaitDelivery(t *testing.T, ch <-chan app.Delivery) app.Delivery {
	t.Helper()
	select {
	case delivery := <-ch:
		return delivery
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for delivery")
	}
	return app.Delivery{}
}

func TestEventBusDeliversLocally(t *testing.T) {
	_, client := testClient(t)
	bus := NewEventBus(client, 0, zerolog.Nop())
	defer bus.Close()

	ch, cancel := bus.Subscribe("game-1")
	defer cancel()

	err := bus.Publish(context.Background(), domain.DistributedEvent{
		GameID:   "game-1",
		PlayerID: "player-1",
		Event:    domain.GameLoading{Type: domain.EventTypeLoading},
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	delivery := awaitDelivery(t, ch)
	if delivery.GameID != "game-1" || delivery.PlayerID != "player-1" {
		t.Fatalf("unexpected delivery addressing: %s/%s", delivery.GameID, delivery.PlayerID)
	}
	var event domain.GameLoading
	if err := json.Unmarshal(delivery.Payload, &event); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if event.Type != domain.EventTypeLoading {
		t.Fatalf("expected loading payload, got %s", event.Type)
	}
}

func TestEventBusCrossInstanceDelivery(t *testing.T) {
	_, client := testClient(t)
	publisher := NewEventBus(client, 0, zerolog.Nop())
	defer publisher.Close()
	receiver := NewEventBus(client, 0, zerolog.Nop())
	defer receiver.Close()

	ch, cancel := receiver.Subscribe("game-1")
	defer cancel()

	// The reader needs its subscription registered before the publish.
	time.Sleep(100 * time.Millisecond)

	err := publisher.Publish(context.Background(), domain.DistributedEvent{
		GameID: "game-1",
		Event:  domain.GameQuit{Type: domain.EventTypeQuit, Status: domain.GameStatusCompleted},
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	delivery := awaitDelivery(t, ch)
	var event domain.GameQuit
	if err := json.Unmarshal(delivery.Payload, &event); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if event.Type != domain.EventTypeQuit || event.Status != domain.GameStatusCompleted {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestEventBusSkipsOwnRemoteEcho(t *testing.T) {
	_, client := testClient(t)
	bus := NewEventBus(client, 0, zerolog.Nop())
	defer bus.Close()

	ch, cancel := bus.Subscribe("game-1")
	defer cancel()
	time.Sleep(100 * time.Millisecond)

	err := bus.Publish(context.Background(), domain.DistributedEvent{
		GameID: "game-1",
		Event:  domain.GameLoading{Type: domain.EventTypeLoading},
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	awaitDelivery(t, ch) // the local copy
	select {
	case extra := <-ch:
		t.Fatalf("received the event twice: %s", string(extra.Payload))
	case <-time.After(200 * time.Millisecond):
	}
}

func TestEventBusHeartbeatReachesSubscribers(t *testing.T) {
	_, client := testClient(t)
	bus := NewEventBus(client, 20*time.Millisecond, zerolog.Nop())
	defer bus.Close()

	ch, cancel := bus.Subscribe("game-1")
	defer cancel()

	delivery := awaitDelivery(t, ch)
	var event domain.GameHeartbeat
	if err := json.Unmarshal(delivery.Payload, &event); err != nil {
		t.Fatalf("decode heartbeat: %v", err)
	}
	if event.Type != domain.EventTypeHeartbeat {
		t.Fatalf("expected heartbeat, got %s", event.Type)
	}
}

func TestEventBusCloseClosesSubscribers(t *testing.T) {
	_, client := testClient(t)
	bus := NewEventBus(client, 0, zerolog.Nop())

	ch, _ := bus.Subscribe("game-1")
	if err := bus.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Fatalf("repeat close: %v", err)
	}
	if _, open := <-ch; open {
		t.Fatalf("expected subscriber channel closed on shutdown")
	}
}
