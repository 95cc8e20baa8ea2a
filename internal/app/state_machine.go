package app

import (
	"fmt"
	"time"

	"github.com/emilhornlund/quiz-game-service/internal/domain"
)

// resultDuration is the active window of a question-result task in seconds.
const resultDuration = 15

// AdvanceTask moves the game's current task one step: pending to active,
// active to completed, or, when already completed, promotes to the next task
// kind and appends the superseded task to PreviousTasks. A question task
// gets its Presented timestamp when it turns active. Calling it on the
// terminal quit task returns domain.ErrInvalidTransition.
func AdvanceTask(game *domain.Game, now time.Time) (domain.Task, error) {
	cur := game.CurrentTask
	if cur.Terminal() {
		return domain.Task{}, domain.ErrInvalidTransition
	}

	switch cur.Status {
	case domain.TaskStatusPending:
		cur.Status = domain.TaskStatusActive
		if cur.Kind == domain.TaskKindQuestion || cur.Kind == domain.TaskKindQuestionResult {
			cur.Presented = now
		}
		game.CurrentTask = cur
	case domain.TaskStatusActive:
		cur.Status = domain.TaskStatusCompleted
		game.CurrentTask = cur
	case domain.TaskStatusCompleted:
		next, err := nextTask(game, cur, now)
		if err != nil {
			return domain.Task{}, err
		}
		game.PreviousTasks = append(game.PreviousTasks, cur)
		game.CurrentTask = next
	default:
		return domain.Task{}, fmt.Errorf("%w: status %q", domain.ErrUnknownTaskState, cur.Status)
	}

	game.Updated = now
	return game.CurrentTask, nil
}

// nextTask decides which kind follows a completed task.
func nextTask(game *domain.Game, cur domain.Task, now time.Time) (domain.Task, error) {
	switch cur.Kind {
	case domain.TaskKindLobby:
		return newQuestionTask(game, 0, now), nil
	case domain.TaskKindQuestion:
		return domain.Task{
			Kind:          domain.TaskKindQuestionResult,
			Status:        domain.TaskStatusPending,
			Created:       now,
			QuestionIndex: cur.QuestionIndex,
			Duration:      resultDuration,
		}, nil
	case domain.TaskKindQuestionResult:
		return domain.Task{
			Kind:          domain.TaskKindLeaderboard,
			Status:        domain.TaskStatusPending,
			Created:       now,
			QuestionIndex: cur.QuestionIndex,
			Leaderboard:   Rank(game.Players()),
		}, nil
	case domain.TaskKindLeaderboard:
		if cur.QuestionIndex+1 < len(game.Questions) {
			return newQuestionTask(game, cur.QuestionIndex+1, now), nil
		}
		return domain.Task{
			Kind:        domain.TaskKindPodium,
			Status:      domain.TaskStatusPending,
			Created:     now,
			Leaderboard: Rank(game.Players()),
		}, nil
	case domain.TaskKindPodium:
		game.Status = domain.GameStatusCompleted
		return domain.Task{
			Kind:       domain.TaskKindQuit,
			Status:     domain.TaskStatusCompleted,
			Created:    now,
			QuitReason: domain.QuitReasonCompleted,
		}, nil
	default:
		return domain.Task{}, fmt.Errorf("%w: kind %q", domain.ErrUnknownTaskState, cur.Kind)
	}
}

func newQuestionTask(game *domain.Game, index int, now time.Time) domain.Task {
	return domain.Task{
		Kind:          domain.TaskKindQuestion,
		Status:        domain.TaskStatusPending,
		Created:       now,
		QuestionIndex: index,
		Duration:      game.Questions[index].Duration,
	}
}

// ForceQuitTask transitions the game unconditionally to the terminal quit
// task. Idempotent: quitting an already quit game appends nothing.
func ForceQuitTask(game *domain.Game, reason domain.QuitReason, now time.Time) domain.Task {
	if game.CurrentTask.Terminal() {
		return game.CurrentTask
	}
	game.PreviousTasks = append(game.PreviousTasks, game.CurrentTask)
	if reason == domain.QuitReasonCompleted {
		game.Status = domain.GameStatusCompleted
	} else {
		game.Status = domain.GameStatusExpired
	}
	game.CurrentTask = domain.Task{
		Kind:       domain.TaskKindQuit,
		Status:     domain.TaskStatusCompleted,
		Created:    now,
		QuitReason: reason,
	}
	game.Updated = now
	return game.CurrentTask
}
