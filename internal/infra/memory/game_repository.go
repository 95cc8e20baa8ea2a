package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/emilhornlund/quiz-game-service/internal/domain"
)

// GameRepository is an in-memory implementation of app.GameRepository.
// Games are stored as JSON snapshots so callers always get an isolated
// copy, mirroring the Redis implementation's semantics.
type GameRepository struct {
	now func() time.Time

	mu    sync.RWMutex
	games map[string][]byte
	pins  map[string]pinClaim
}

type pinClaim struct {
	gameID  string
	expires time.Time
}

func NewGameRepository() *GameRepository {
	return NewGameRepositoryWithClock(time.Now)
}

// NewGameRepositoryWithClock allows deterministic PIN expiry in tests.
func NewGameRepositoryWithClock(now func() time.Time) *GameRepository {
	return &GameRepository{
		now:   now,
		games: make(map[string][]byte),
		pins:  make(map[string]pinClaim),
	}
}

func (r *GameRepository) Save(_ context.Context, game *domain.Game) error {
	data, err := json.Marshal(game)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games[game.ID] = data
	return nil
}

func (r *GameRepository) Get(_ context.Context, id string) (*domain.Game, error) {
	r.mu.RLock()
	data, ok := r.games[id]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	var game domain.Game
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *GameRepository) GetByPIN(ctx context.Context, pin string) (*domain.Game, error) {
	r.mu.RLock()
	claim, ok := r.pins[pin]
	r.mu.RUnlock()
	if !ok || claim.expires.Before(r.now()) {
		return nil, domain.ErrGameNotFound
	}
	return r.Get(ctx, claim.gameID)
}

func (r *GameRepository) ClaimPIN(_ context.Context, pin, gameID string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if claim, ok := r.pins[pin]; ok && claim.expires.After(now) {
		return false, nil
	}
	r.pins[pin] = pinClaim{gameID: gameID, expires: now.Add(ttl)}
	return true, nil
}

func (r *GameRepository) ExpireBefore(_ context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	expired := 0
	for id, data := range r.games {
		var game domain.Game
		if err := json.Unmarshal(data, &game); err != nil {
			return expired, err
		}
		if game.Status != domain.GameStatusActive || !game.Updated.Before(cutoff) {
			continue
		}
		game.Status = domain.GameStatusExpired
		updated, err := json.Marshal(&game)
		if err != nil {
			return expired, err
		}
		r.games[id] = updated
		expired++
	}
	return expired, nil
}
