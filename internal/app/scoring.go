package app

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/emilhornlund/quiz-game-service/internal/domain"
)

// IsCorrect applies the question type's equality rule to a submitted value.
func IsCorrect(q domain.Question, v domain.AnswerValue) (bool, error) {
	switch q.Type {
	case domain.QuestionTypeMultiChoice:
		return v.OptionIndex != nil && *v.OptionIndex == q.CorrectOption, nil
	case domain.QuestionTypeTrueFalse:
		return v.Flag != nil && *v.Flag == q.CorrectFlag, nil
	case domain.QuestionTypeTypeAnswer:
		if v.Text == nil {
			return false, nil
		}
		return textMatches(q, *v.Text), nil
	case domain.QuestionTypeRange:
		return v.Number != nil && math.Abs(*v.Number-q.CorrectNumber) <= q.Margin, nil
	case domain.QuestionTypePin:
		if v.Position == nil {
			return false, nil
		}
		dx := v.Position.X - q.CorrectPosition.X
		dy := v.Position.Y - q.CorrectPosition.Y
		return math.Hypot(dx, dy) <= q.Tolerance, nil
	case domain.QuestionTypePuzzle:
		if len(v.Sequence) != len(q.CorrectSequence) {
			return false, nil
		}
		for i := range v.Sequence {
			if v.Sequence[i] != q.CorrectSequence[i] {
				return false, nil
			}
		}
		return true, nil
	default:
		return false, fmt.Errorf("unsupported question type %q", q.Type)
	}
}

// textMatches compares trimmed, case-insensitive text against the correct
// value and any accepted alternatives. An empty correct value never matches.
func textMatches(q domain.Question, answer string) bool {
	got := strings.ToLower(strings.TrimSpace(answer))
	if got == "" {
		return false
	}
	want := strings.ToLower(strings.TrimSpace(q.CorrectText))
	if want != "" && got == want {
		return true
	}
	for _, alt := range q.AcceptedTexts {
		alt = strings.ToLower(strings.TrimSpace(alt))
		if alt != "" && got == alt {
			return true
		}
	}
	return false
}

// Score computes the time-decayed award for one submission: full points at
// elapsed zero, linearly decaying to half the points at the deadline. It is
// zero for a missing or incorrect answer, an answer from before the
// question was presented, a late answer, or non-positive duration/points.
func Score(presentedAt, answeredAt time.Time, durationSeconds, points int, correct bool, answer *domain.AnswerValue) int {
	if answer == nil || !correct || durationSeconds <= 0 || points <= 0 {
		return 0
	}
	elapsed := answeredAt.Sub(presentedAt).Seconds()
	if elapsed < 0 || elapsed > float64(durationSeconds) {
		return 0
	}
	return int(math.Round(float64(points) * (1 - 0.5*elapsed/float64(durationSeconds))))
}

// Precision reports how close a continuous answer landed, normalized to
// [0,1], and whether the question type has a precision notion at all.
func Precision(q domain.Question, v domain.AnswerValue) (float64, bool) {
	switch q.Type {
	case domain.QuestionTypeRange:
		if v.Number == nil {
			return 0, true
		}
		span := q.Max - q.Min
		if span <= 0 {
			return 0, true
		}
		return clamp01(1 - math.Abs(*v.Number-q.CorrectNumber)/span), true
	case domain.QuestionTypePin:
		if v.Position == nil || q.Tolerance <= 0 {
			return 0, q.Type == domain.QuestionTypePin
		}
		dx := v.Position.X - q.CorrectPosition.X
		dy := v.Position.Y - q.CorrectPosition.Y
		return clamp01(1 - math.Hypot(dx, dy)/q.Tolerance), true
	default:
		return 0, false
	}
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
