package app

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/emilhornlund/quiz-game-service/internal/domain"
)

// participantRegistry is the lock-protected bookkeeping of currently
// subscribed participants per game.
type participantRegistry struct {
	mu     sync.Mutex
	byGame map[string]map[string]struct{}
}

func newParticipantRegistry() *participantRegistry {
	return &participantRegistry{byGame: make(map[string]map[string]struct{})}
}

func (r *participantRegistry) add(gameID, participantID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byGame[gameID]; !ok {
		r.byGame[gameID] = make(map[string]struct{})
	}
	r.byGame[gameID][participantID] = struct{}{}
}

func (r *participantRegistry) remove(gameID, participantID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.byGame[gameID]; ok {
		delete(set, participantID)
		if len(set) == 0 {
			delete(r.byGame, gameID)
		}
	}
}

func (r *participantRegistry) list(gameID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.byGame[gameID]))
	for id := range r.byGame[gameID] {
		ids = append(ids, id)
	}
	return ids
}

// Subscribe opens a filtered, replay-seeded event stream for one
// participant. The first delivery reconstructs the current task state from
// the answer store so a client joining mid-task is immediately consistent;
// a failure building that seed is logged and the live stream proceeds.
// The returned cancel function tears the stream down exactly once.
func (s *GameService) Subscribe(ctx context.Context, gameID, participantID string) (<-chan Delivery, func(), error) {
	game, err := s.games.Get(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}
	viewer, ok := game.Participant(participantID)
	if !ok {
		return nil, nil, domain.ErrParticipantNotFound
	}

	raw, unsubscribe := s.bus.Subscribe(gameID)
	out := make(chan Delivery, subscriberBuffer)

	if seed, err := s.buildSeedDelivery(ctx, game, *viewer); err != nil {
		s.log.Warn().Err(err).Str("game", gameID).Str("participant", participantID).
			Msg("seed event build failed, continuing with live stream only")
	} else {
		out <- seed
	}

	s.active.add(gameID, participantID)

	go func() {
		defer close(out)
		for delivery := range raw {
			if delivery.PlayerID != "" && delivery.PlayerID != participantID {
				continue
			}
			select {
			case out <- delivery:
			default:
				// Slow consumer: drop the oldest so live state wins.
				select {
				case <-out:
				default:
				}
				out <- delivery
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			unsubscribe()
			s.active.remove(gameID, participantID)
		})
	}
	return out, cancel, nil
}

// buildSeedDelivery derives the catch-up event for a fresh subscriber from
// the game's current task and any answers already submitted.
func (s *GameService) buildSeedDelivery(ctx context.Context, game *domain.Game, viewer domain.Participant) (Delivery, error) {
	meta, err := s.questionMetadata(ctx, game, viewer.ID)
	if err != nil {
		return Delivery{}, err
	}
	event, err := BuildEvent(game, viewer, meta)
	if err != nil {
		return Delivery{}, err
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return Delivery{}, err
	}
	return Delivery{GameID: game.ID, PlayerID: viewer.ID, Payload: payload}, nil
}

// ActiveParticipants lists the participants with an open stream on this
// instance for the given game.
func (s *GameService) ActiveParticipants(gameID string) []string {
	return s.active.list(gameID)
}

const subscriberBuffer = 16
