package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/emilhornlund/quiz-game-service/internal/app"
	"github.com/emilhornlund/quiz-game-service/internal/domain"
)

func receiveDelivery(t *testing.T, ch <-chan app.Delivery) app.Delivery {
	t.Helper()
	select {
	case delivery := <-ch:
		return delivery
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for delivery")
	}
	return app.Delivery{}
}

func TestEventBusFanOut(t *testing.T) {
	bus := NewEventBus(0)
	defer bus.Close()

	first, cancelFirst := bus.Subscribe("game-1")
	defer cancelFirst()
	second, cancelSecond := bus.Subscribe("game-1")
	defer cancelSecond()
	other, cancelOther := bus.Subscribe("game-2")
	defer cancelOther()

	err := bus.Publish(context.Background(), domain.DistributedEvent{
		GameID: "game-1",
		Event:  domain.GameLoading{Type: domain.EventTypeLoading},
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	for _, ch := range []<-chan app.Delivery{first, second} {
		delivery := receiveDelivery(t, ch)
		if delivery.GameID != "game-1" {
			t.Fatalf("expected game-1 delivery, got %s", delivery.GameID)
		}
		var event domain.GameLoading
		if err := json.Unmarshal(delivery.Payload, &event); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if event.Type != domain.EventTypeLoading {
			t.Fatalf("expected loading payload, got %s", event.Type)
		}
	}

	select {
	case delivery := <-other:
		t.Fatalf("other game received a delivery: %s", delivery.GameID)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestEventBusAddressedDeliveryKeepsPlayerID(t *testing.T) {
	bus := NewEventBus(0)
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
	if got := receiveDelivery(t, ch); got.PlayerID != "player-1" {
		t.Fatalf("expected addressed delivery, got %q", got.PlayerID)
	}
}

func TestEventBusHeartbeat(t *testing.T) {
	bus := NewEventBus(20 * time.Millisecond)
	defer bus.Close()

	ch, cancel := bus.Subscribe("game-1")
	defer cancel()

	delivery := receiveDelivery(t, ch)
	var event domain.GameHeartbeat
	if err := json.Unmarshal(delivery.Payload, &event); err != nil {
		t.Fatalf("decode heartbeat: %v", err)
	}
	if event.Type != domain.EventTypeHeartbeat {
		t.Fatalf("expected heartbeat, got %s", event.Type)
	}
}

func TestEventBusSlowSubscriberDropsOldest(t *testing.T) {
	bus := NewEventBus(0)
	defer bus.Close()

	ch, cancel := bus.Subscribe("game-1")
	defer cancel()

	// Overflow the buffer without draining; the newest must survive.
	for i := 0; i < 32; i++ {
		err := bus.Publish(context.Background(), domain.DistributedEvent{
			GameID: "game-1",
			Event:  domain.GameBeginHost{Type: domain.EventTypeBeginHost, PlayerCount: i},
		})
		if err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}

	var last domain.GameBeginHost
	for {
		select {
		case delivery := <-ch:
			if err := json.Unmarshal(delivery.Payload, &last); err != nil {
				t.Fatalf("decode: %v", err)
			}
			continue
		case <-time.After(100 * time.Millisecond):
		}
		break
	}
	if last.PlayerCount != 31 {
		t.Fatalf("expected the newest delivery to survive, got %d", last.PlayerCount)
	}
}

func TestEventBusCancelStopsDelivery(t *testing.T) {
	bus := NewEventBus(0)
	defer bus.Close()

	ch, cancel := bus.Subscribe("game-1")
	cancel()

	if err := bus.Publish(context.Background(), domain.DistributedEvent{GameID: "game-1", Event: domain.GameLoading{Type: domain.EventTypeLoading}}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if _, open := <-ch; open {
		t.Fatalf("expected closed channel after cancel")
	}
}

func TestEventBusCloseIsIdempotent(t *testing.T) {
	bus := NewEventBus(time.Hour)
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
