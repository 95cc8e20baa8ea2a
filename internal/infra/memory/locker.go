package memory

import (
	"context"
	"sync"

	"github.com/emilhornlund/quiz-game-service/internal/domain"
)

// GameLocker serializes game mutations within one process using a
// single-slot channel per game ID.
type GameLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewGameLocker() *GameLocker {
	return &GameLocker{slots: make(map[string]chan struct{})}
}

func (l *GameLocker) Lock(ctx context.Context, gameID string) (func(), error) {
	slot := l.slot(gameID)
	select {
	case slot <- struct{}{}:
		return func() { <-slot }, nil
	case <-ctx.Done():
		return nil, domain.ErrLockNotAcquired
	}
}

func (l *GameLocker) slot(gameID string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	if slot, ok := l.slots[gameID]; ok {
		return slot
	}
	slot := make(chan struct{}, 1)
	l.slots[gameID] = slot
	return slot
}
