package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/emilhornlund/quiz-game-service/internal/domain"
)

// GameRepository stores game aggregates as JSON values in Redis and keeps a
// PIN index with its own TTL, which is what makes PINs unique among games
// created within that window:
//
//	SET game:{id} {json} EX {ttl}
//	SET game:pin:{pin} {id} NX EX {pinTTL}
type GameRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewGameRepository(client *redis.Client, ttl time.Duration) *GameRepository {
	return &GameRepository{client: client, ttl: ttl}
}

func (r *GameRepository) Save(ctx context.Context, game *domain.Game) error {
	data, err := json.Marshal(game)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.gameKey(game.ID), data, r.ttl).Err()
}

func (r *GameRepository) Get(ctx context.Context, id string) (*domain.Game, error) {
	data, err := r.client.Get(ctx, r.gameKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	var game domain.Game
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *GameRepository) GetByPIN(ctx context.Context, pin string) (*domain.Game, error) {
	id, err := r.client.Get(ctx, r.pinKey(pin)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *GameRepository) ClaimPIN(ctx context.Context, pin, gameID string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, r.pinKey(pin), gameID, ttl).Result()
}

func (r *GameRepository) ExpireBefore(ctx context.Context, cutoff time.Time) (int, error) {
	expired := 0
	iter := r.client.Scan(ctx, 0, "game:*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		// Aggregate keys are game:{id}; pin, lock and answer keys carry
		// further segments.
		if strings.Count(key, ":") != 1 {
			continue
		}
		data, err := r.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return expired, err
		}
		var game domain.Game
		if err := json.Unmarshal(data, &game); err != nil {
			continue // not a game value
		}
		if game.Status != domain.GameStatusActive || !game.Updated.Before(cutoff) {
			continue
		}
		game.Status = domain.GameStatusExpired
		if err := r.Save(ctx, &game); err != nil {
			return expired, err
		}
		expired++
	}
	if err := iter.Err(); err != nil {
		return expired, err
	}
	return expired, nil
}

func (r *GameRepository) gameKey(id string) string {
	return "game:" + id
}

func (r *GameRepository) pinKey(pin string) string {
	return "game:pin:" + pin
}
