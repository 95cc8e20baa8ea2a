package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/emilhornlund/quiz-game-service/internal/domain"
)

type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2024, 11, 22, 12, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func storedGame(id, pin string) *domain.Game {
	return &domain.Game{
		ID:     id,
		PIN:    pin,
		Status: domain.GameStatusActive,
		CurrentTask: domain.Task{
			Kind:   domain.TaskKindLobby,
			Status: domain.TaskStatusPending,
		},
		Updated: time.Date(2024, 11, 22, 12, 0, 0, 0, time.UTC),
	}
}

func TestGameRepositorySaveGetRoundTrip(t *testing.T) {
	repo := NewGameRepository()
	ctx := context.Background()

	game := storedGame("game-1", "123456")
	game.Participants = []domain.Participant{{ID: "host-1", Role: domain.RoleHost, Nickname: "Host"}}
	if err := repo.Save(ctx, game); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := repo.Get(ctx, "game-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.PIN != "123456" || len(loaded.Participants) != 1 {
		t.Fatalf("unexpected loaded game: %+v", loaded)
	}

	// Snapshot isolation: mutating the loaded copy must not affect storage.
	loaded.PIN = "tampered"
	again, _ := repo.Get(ctx, "game-1")
	if again.PIN != "123456" {
		t.Fatalf("stored game mutated through a returned copy")
	}
}

func TestGameRepositoryGetUnknown(t *testing.T) {
	repo := NewGameRepository()
	if _, err := repo.Get(context.Background(), "missing"); !errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
}

func TestClaimPINRejectsDoubleClaim(t *testing.T) {
	repo := NewGameRepository()
	ctx := context.Background()

	claimed, err := repo.ClaimPIN(ctx, "123456", "game-1", time.Hour)
	if err != nil || !claimed {
		t.Fatalf("expected first claim to succeed, got %v (%v)", claimed, err)
	}
	claimed, err = repo.ClaimPIN(ctx, "123456", "game-2", time.Hour)
	if err != nil || claimed {
		t.Fatalf("expected second claim to fail, got %v (%v)", claimed, err)
	}
}

func TestClaimPINReleasedAfterTTL(t *testing.T) {
	clock := newStepClock()
	repo := NewGameRepositoryWithClock(clock.Now)
	ctx := context.Background()

	if claimed, _ := repo.ClaimPIN(ctx, "123456", "game-1", time.Hour); !claimed {
		t.Fatalf("expected claim to succeed")
	}
	clock.Advance(2 * time.Hour)
	if claimed, _ := repo.ClaimPIN(ctx, "123456", "game-2", time.Hour); !claimed {
		t.Fatalf("expected expired pin to be claimable again")
	}
}

func TestGetByPIN(t *testing.T) {
	clock := newStepClock()
	repo := NewGameRepositoryWithClock(clock.Now)
	ctx := context.Background()

	if err := repo.Save(ctx, storedGame("game-1", "123456")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := repo.ClaimPIN(ctx, "123456", "game-1", time.Hour); err != nil {
		t.Fatalf("claim: %v", err)
	}

	game, err := repo.GetByPIN(ctx, "123456")
	if err != nil {
		t.Fatalf("get by pin: %v", err)
	}
	if game.ID != "game-1" {
		t.Fatalf("expected game-1, got %s", game.ID)
	}

	clock.Advance(2 * time.Hour)
	if _, err := repo.GetByPIN(ctx, "123456"); !errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("expected expired pin lookup to fail, got %v", err)
	}
}

func TestExpireBefore(t *testing.T) {
	repo := NewGameRepository()
	ctx := context.Background()

	stale := storedGame("stale", "111111")
	stale.Updated = time.Date(2024, 11, 22, 0, 0, 0, 0, time.UTC)
	fresh := storedGame("fresh", "222222")
	fresh.Updated = time.Date(2024, 11, 22, 23, 0, 0, 0, time.UTC)
	done := storedGame("done", "333333")
	done.Status = domain.GameStatusCompleted
	done.Updated = time.Date(2024, 11, 22, 0, 0, 0, 0, time.UTC)

	for _, g := range []*domain.Game{stale, fresh, done} {
		if err := repo.Save(ctx, g); err != nil {
			t.Fatalf("save %s: %v", g.ID, err)
		}
	}

	expired, err := repo.ExpireBefore(ctx, time.Date(2024, 11, 22, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("expire before: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expected 1 expired game, got %d", expired)
	}
	loaded, _ := repo.Get(ctx, "stale")
	if loaded.Status != domain.GameStatusExpired {
		t.Fatalf("expected stale game expired, got %s", loaded.Status)
	}
	loaded, _ = repo.Get(ctx, "fresh")
	if loaded.Status != domain.GameStatusActive {
		t.Fatalf("fresh game must stay active, got %s", loaded.Status)
	}
	loaded, _ = repo.Get(ctx, "done")
	if loaded.Status != domain.GameStatusCompleted {
		t.Fatalf("completed game must keep its status, got %s", loaded.Status)
	}
}
