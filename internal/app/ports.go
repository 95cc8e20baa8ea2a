package app

import (
	"context"
	"time"

	"github.com/emilhornlund/quiz-game-service/internal/domain"
)

// GameRepository abstracts how game aggregates are stored (in-memory, Redis).
type GameRepository interface {
	Save(ctx context.Context, game *domain.Game) error
	Get(ctx context.Context, id string) (*domain.Game, error)
	GetByPIN(ctx context.Context, pin string) (*domain.Game, error)
	// ClaimPIN reserves a PIN for the given game for the ttl window and
	// reports whether the reservation succeeded.
	ClaimPIN(ctx context.Context, pin, gameID string, ttl time.Duration) (bool, error)
	// ExpireBefore marks active games untouched since the cutoff as expired
	// and returns how many were affected.
	ExpireBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// AnswerStore is the append-only submission log keyed by game and question.
type AnswerStore interface {
	Append(ctx context.Context, gameID string, questionIndex int, answer domain.QuestionTaskAnswer) error
	List(ctx context.Context, gameID string, questionIndex int) ([]domain.QuestionTaskAnswer, error)
	Clear(ctx context.Context, gameID string, questionIndex int) error
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// Delivery is one transport-ready message handed to a subscribed stream.
// Payload is the JSON-encoded game event.
type Delivery struct {
	GameID   string
	PlayerID string // empty means broadcast
	Payload  []byte
}

// EventBus fans published events out to every subscribed stream of a game,
// across all service instances. Subscribe returns a channel of deliveries
// and a cancel function that must be called to release the subscription.
type EventBus interface {
	Publish(ctx context.Context, event domain.DistributedEvent) error
	Subscribe(gameID string) (<-chan Delivery, func())
	Close() error
}

// GameLocker serializes mutations per game ID. Lock blocks until the lock
// is held or ctx is done, returning the unlock function.
type GameLocker interface {
	Lock(ctx context.Context, gameID string) (func(), error)
}
