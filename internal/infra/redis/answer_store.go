package redis

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/emilhornlund/quiz-game-service/internal/domain"
)

// AnswerStore keeps the per-question submission log as a Redis list of
// JSON-encoded answers: RPUSH game:{gameID}:answers:{questionIndex}.
type AnswerStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAnswerStore(client *redis.Client, ttl time.Duration) *AnswerStore {
	return &AnswerStore{client: client, ttl: ttl}
}

func (s *AnswerStore) Append(ctx context.Context, gameID string, questionIndex int, answer domain.QuestionTaskAnswer) error {
	data, err := json.Marshal(answer)
	if err != nil {
		return err
	}
	key := s.key(gameID, questionIndex)
	if err := s.client.RPush(ctx, key, data).Err(); err != nil {
		return err
	}
	if s.ttl > 0 {
		// best-effort expiry alongside the game aggregate
		_ = s.client.Expire(ctx, key, s.ttl).Err()
	}
	return nil
}

func (s *AnswerStore) List(ctx context.Context, gameID string, questionIndex int) ([]domain.QuestionTaskAnswer, error) {
	values, err := s.client.LRange(ctx, s.key(gameID, questionIndex), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	answers := make([]domain.QuestionTaskAnswer, 0, len(values))
	for _, value := range values {
		var answer domain.QuestionTaskAnswer
		if err := json.Unmarshal([]byte(value), &answer); err != nil {
			return nil, err
		}
		answers = append(answers, answer)
	}
	return answers, nil
}

func (s *AnswerStore) Clear(ctx context.Context, gameID string, questionIndex int) error {
	return s.client.Del(ctx, s.key(gameID, questionIndex)).Err()
}

func (s *AnswerStore) key(gameID string, questionIndex int) string {
	return "game:" + gameID + ":answers:" + strconv.Itoa(questionIndex)
}
