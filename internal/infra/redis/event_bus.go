package redis

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/emilhornlund/quiz-game-service/internal/app"
	"github.com/emilhornlund/quiz-game-service/internal/domain"
)

// eventsChannel is the shared pub/sub channel carrying every game event
// across all service instances.
const eventsChannel = "game:events"

// envelope is the wire format on the channel. Instance lets a process skip
// its own messages, since Publish already delivered them locally.
type envelope struct {
	Instance string          `json:"instance"`
	GameID   string          `json:"gameId"`
	PlayerID string          `json:"playerId,omitempty"`
	Event    json.RawMessage `json:"event"`
}

// EventBus is the multi-instance implementation of app.EventBus: publishes
// deliver locally first and then broadcast on the shared Redis channel; a
// background reader re-emits remote instances' events to local subscribers.
type EventBus struct {
	client   *redis.Client
	instance string
	log      zerolog.Logger

	mu          sync.Mutex
	subscribers map[string]map[chan app.Delivery]struct{}

	pubsub    *redis.PubSub
	heartbeat *time.Ticker
	done      chan struct{}
	closeOnce sync.Once
}

func NewEventBus(client *redis.Client, heartbeatInterval time.Duration, log zerolog.Logger) *EventBus {
	bus := &EventBus{
		client:      client,
		instance:    uuid.NewString(),
		log:         log,
		subscribers: make(map[string]map[chan app.Delivery]struct{}),
		done:        make(chan struct{}),
	}
	bus.pubsub = client.Subscribe(context.Background(), eventsChannel)
	go bus.readLoop()
	if heartbeatInterval > 0 {
		bus.heartbeat = time.NewTicker(heartbeatInterval)
		go bus.heartbeatLoop()
	}
	return bus
}

func (b *EventBus) Publish(ctx context.Context, event domain.DistributedEvent) error {
	payload, err := json.Marshal(event.Event)
	if err != nil {
		return err
	}
	b.deliver(app.Delivery{GameID: event.GameID, PlayerID: event.PlayerID, Payload: payload})

	wire, err := json.Marshal(envelope{
		Instance: b.instance,
		GameID:   event.GameID,
		PlayerID: event.PlayerID,
		Event:    payload,
	})
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, eventsChannel, wire).Err()
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
	var err error
	b.closeOnce.Do(func() {
		if b.heartbeat != nil {
			b.heartbeat.Stop()
		}
		close(b.done)
		err = b.pubsub.Close()
		b.mu.Lock()
		defer b.mu.Unlock()
		for gameID, set := range b.subscribers {
			for ch := range set {
				close(ch)
			}
			delete(b.subscribers, gameID)
		}
	})
	return err
}

func (b *EventBus) readLoop() {
	for msg := range b.pubsub.Channel() {
		var env envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			b.log.Warn().Err(err).Msg("dropping malformed bus envelope")
			continue
		}
		if env.Instance == b.instance {
			continue // already delivered locally by Publish
		}
		b.deliver(app.Delivery{GameID: env.GameID, PlayerID: env.PlayerID, Payload: env.Event})
	}
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
