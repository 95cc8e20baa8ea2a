package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/emilhornlund/quiz-game-service/internal/app"
	"github.com/emilhornlund/quiz-game-service/internal/domain"
)

// EventBus is the single-process implementation of app.EventBus. Published
// events fan out to every subscriber of the game; a process-wide heartbeat
// reaches every open stream regardless of game.
type EventBus struct {
	mu          sync.Mutex
	subscribers map[string]map[chan app.Delivery]struct{}
	heartbeat   *time.Ticker
	done        chan struct{}
	closeOnce   sync.Once
}

func NewEventBus(heartbeatInterval time.Duration) *EventBus {
	bus := &EventBus{
		subscribers: make(map[string]map[chan app.Delivery]struct{}),
		done:        make(chan struct{}),
	}
	if heartbeatInterval > 0 {
		bus.heartbeat = time.NewTicker(heartbeatInterval)
		go bus.heartbeatLoop()
	}
	return bus
}

func (b *EventBus) Publish(_ context.Context, event domain.DistributedEvent) error {
	payload, err := json.Marshal(event.Event)
	if err != nil {
		return err
	}
	b.deliver(app.Delivery{GameID: event.GameID, PlayerID: event.PlayerID, Payload: payload})
	return nil
}

func (b *EventBus) Subscribe(gameID string) (<-chan app.Delivery, func()) {
	ch := make(chan app.Delivery, 16)
	b.mu.Lock()
	if _, ok := b.subscribers[gameID]; !ok {
		b.subscribers[gameID] = make(map[chan app.Delivery]struct{})
	}
	b.subscribers[gameID][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if set, ok := b.subscribers[gameID]; ok {
			if _, subscribed := set[ch]; subscribed {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(b.subscribers, gameID)
			}
		}
	}
	return ch, cancel
}

func (b *EventBus) Close() error {
	b.closeOnce.Do(func() {
		if b.heartbeat != nil {
			b.heartbeat.Stop()
		}
		close(b.done)
		b.mu.Lock()
		defer b.mu.Unlock()
		for gameID, set := range b.subscribers {
			for ch := range set {
				close(ch)
			}
			delete(b.subscribers, gameID)
		}
	})
	return nil
}

func (b *EventBus) deliver(delivery app.Delivery) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subscribers[delivery.GameID] {
		send(ch, delivery)
	}
}

func (b *EventBus) heartbeatLoop() {
	payload, _ := json.Marshal(domain.GameHeartbeat{Type: domain.EventTypeHeartbeat})
	for {
		select {
		case <-b.done:
			return
		case <-b.heartbeat.C:
			b.mu.Lock()
			for _, set := range b.subscribers {
				for ch := range set {
					send(ch, app.Delivery{Payload: payload})
				}
			}
			b.mu.Unlock()
		}
	}
}

// send never blocks broadcast: a full subscriber drops its oldest delivery.
func send(ch chan app.Delivery, delivery app.Delivery) {
	select {
	case ch <- delivery:
	default:
		select {
		case <-ch:
		default:
		}
		ch <- delivery
	}
}
