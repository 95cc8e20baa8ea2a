package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/emilhornlund/quiz-game-service/internal/domain"
)

// AnswerStore is an in-memory implementation of app.AnswerStore: an
// append-only list of submissions per game and question.
type AnswerStore struct {
	mu      sync.RWMutex
	answers map[string][]domain.QuestionTaskAnswer
}

func NewAnswerStore() *AnswerStore {
	return &AnswerStore{answers: make(map[string][]domain.QuestionTaskAnswer)}
}

func (s *AnswerStore) Append(_ context.Context, gameID string, questionIndex int, answer domain.QuestionTaskAnswer) error {
	key := answerKey(gameID, questionIndex)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers[key] = append(s.answers[key], answer)
	return nil
}

func (s *AnswerStore) List(_ context.Context, gameID string, questionIndex int) ([]domain.QuestionTaskAnswer, error) {
	key := answerKey(gameID, questionIndex)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.QuestionTaskAnswer(nil), s.answers[key]...), nil
}

func (s *AnswerStore) Clear(_ context.Context, gameID string, questionIndex int) error {
	key := answerKey(gameID, questionIndex)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.answers, key)
	return nil
}

func answerKey(gameID string, questionIndex int) string {
	return fmt.Sprintf("%s:%d", gameID, questionIndex)
}
