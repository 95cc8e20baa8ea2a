package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/emilhornlund/quiz-game-service/internal/domain"
)

func TestGameLockerMutualExclusion(t *testing.T) {
	mr, client := testClient(t)
	locker := NewGameLocker(client)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "game-1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if !mr.Exists("game:lock:game-1") {
		t.Fatalf("expected lock key to be set")
	}

	waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(waitCtx, "game-1"); !errors.Is(err, domain.ErrLockNotAcquired) {
		t.Fatalf("expected ErrLockNotAcquired while held, got %v", err)
	}

	unlock()
	if mr.Exists("game:lock:game-1") {
		t.Fatalf("expected lock key to be released")
	}

	second, err := locker.Lock(ctx, "game-1")
	if err != nil {
		t.Fatalf("relock after unlock: %v", err)
	}
	second()
}

func TestGameLockerUnlockOnlyReleasesOwnToken(t *testing.T) {
	mr, client := testClient(t)
	locker := NewGameLocker(client)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "game-1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	// Simulate the lock expiring and another holder taking over.
	mr.Set("game:lock:game-1", "other-token")

	unlock()
	value, err := mr.Get("game:lock:game-1")
	if err != nil || value != "other-token" {
		t.Fatalf("stale unlock must not release another holder's lock, got %q (%v)", value, err)
	}
}

func TestGameLockerWaitsForRelease(t *testing.T) {
	_, client := testClient(t)
	locker := NewGameLocker(client)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "game-1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		second, err := locker.Lock(ctx, "game-1")
		if err != nil {
			t.Errorf("blocked lock: %v", err)
			close(acquired)
			return
		}
		close(acquired)
		second()
	}()

	time.Sleep(50 * time.Millisecond)
	unlock()
	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatalf("second lock never acquired after release")
	}
}
