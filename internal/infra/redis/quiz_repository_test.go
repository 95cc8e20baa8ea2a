package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/emilhornlund/quiz-game-service/internal/domain"
)

type countingLoader struct {
	mu    sync.Mutex
	calls int
	quiz  domain.Quiz
}

func (l *countingLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if quizID != l.quiz.ID {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return l.quiz, nil
}

func (l *countingLoader) callCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func TestQuizRepositoryCachesInRedis(t *testing.T) {
	mr, client := testClient(t)
	loader := &countingLoader{quiz: domain.Quiz{ID: "quiz-1", Name: "Capitals"}}
	repo := NewQuizRepository(client, loader, time.Minute)
	ctx := context.Background()

	quiz, err := repo.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if quiz.Name != "Capitals" {
		t.Fatalf("unexpected quiz: %+v", quiz)
	}
	if !mr.Exists("quiz:quiz-1:content") {
		t.Fatalf("expected cached content key to be set")
	}

	if _, err := repo.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("cached get: %v", err)
	}
	if got := loader.callCount(); got != 1 {
		t.Fatalf("expected a single loader hit, got %d", got)
	}
}

func TestQuizRepositoryReloadsAfterExpiry(t *testing.T) {
	mr, client := testClient(t)
	loader := &countingLoader{quiz: domain.Quiz{ID: "quiz-1"}}
	repo := NewQuizRepository(client, loader, time.Minute)
	ctx := context.Background()

	if _, err := repo.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := repo.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("get quiz after expiry: %v", err)
	}
	if got := loader.callCount(); got != 2 {
		t.Fatalf("expected reload after expiry, got %d loader hits", got)
	}
}

func TestQuizRepositoryUnknownQuiz(t *testing.T) {
	_, client := testClient(t)
	loader := &countingLoader{quiz: domain.Quiz{ID: "quiz-1"}}
	repo := NewQuizRepository(client, loader, time.Minute)

	if _, err := repo.GetQuiz(context.Background(), "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}
