package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/emilhornlund/quiz-game-service/internal/domain"
)

const (
	lockTTL       = 10 * time.Second
	lockRetryWait = 25 * time.Millisecond
)

// unlockScript releases the lock only if the caller still holds it.
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// GameLocker serializes game mutations across instances with a Redis
// SET NX PX lock per game ID.
type GameLocker struct {
	client *redis.Client
}

func NewGameLocker(client *redis.Client) *GameLocker {
	return &GameLocker{client: client}
}

func (l *GameLocker) Lock(ctx context.Context, gameID string) (func(), error) {
	key := "game:lock:" + gameID
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			unlock := func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = unlockScript.Run(releaseCtx, l.client, []string{key}, token).Err()
			}
			return unlock, nil
		}
		select {
		case <-ctx.Done():
			return nil, domain.ErrLockNotAcquired
		case <-time.After(lockRetryWait):
		}
	}
}
