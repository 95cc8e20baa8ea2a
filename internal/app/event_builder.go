package app

import (
	"fmt"

	"github.com/emilhornlund/quiz-game-service/internal/domain"
)

// leaderboardSize bounds ranked event payloads.
const leaderboardSize = 5

// BuildEvent maps the game's current task, its status and the viewer's role
// to the exact payload that viewer should see right now. Combinations
// outside the matrix return domain.ErrUnknownTaskState.
func BuildEvent(game *domain.Game, viewer domain.Participant, meta domain.GameEventMetaData) (domain.GameEvent, error) {
	task := game.CurrentTask
	host := viewer.Role == domain.RoleHost

	if task.Kind == domain.TaskKindQuit {
		return domain.GameQuit{Type: domain.EventTypeQuit, Status: game.Status}, nil
	}

	switch task.Kind {
	case domain.TaskKindLobby:
		return buildLobbyEvent(game, viewer, task, host)
	case domain.TaskKindQuestion:
		return buildQuestionEvent(game, viewer, task, meta, host)
	case domain.TaskKindQuestionResult:
		switch task.Status {
		case domain.TaskStatusPending, domain.TaskStatusCompleted:
			return loading(), nil
		case domain.TaskStatusActive:
			if host {
				return buildResultHostEvent(game, task, meta), nil
			}
			return buildResultPlayerEvent(game, viewer), nil
		}
	case domain.TaskKindLeaderboard:
		switch task.Status {
		case domain.TaskStatusPending, domain.TaskStatusCompleted:
			return loading(), nil
		case domain.TaskStatusActive:
			if host {
				return domain.GameLeaderboardHost{
					Type:        domain.EventTypeLeaderboardHost,
					Leaderboard: TopNWithSelf(task.Leaderboard, leaderboardSize, ""),
				}, nil
			}
			// Players share the result builder across result, leaderboard
			// and podium-adjacent views: their own standing.
			return buildResultPlayerEvent(game, viewer), nil
		}
	case domain.TaskKindPodium:
		switch task.Status {
		case domain.TaskStatusPending, domain.TaskStatusCompleted:
			return loading(), nil
		case domain.TaskStatusActive:
			if host {
				return domain.GamePodiumHost{
					Type:        domain.EventTypePodiumHost,
					Leaderboard: TopNWithSelf(task.Leaderboard, leaderboardSize, ""),
				}, nil
			}
			return buildPodiumPlayerEvent(viewer, task), nil
		}
	}

	return nil, fmt.Errorf("%w: %s/%s", domain.ErrUnknownTaskState, task.Kind, task.Status)
}

func loading() domain.GameEvent {
	return domain.GameLoading{Type: domain.EventTypeLoading}
}

func buildLobbyEvent(game *domain.Game, viewer domain.Participant, task domain.Task, host bool) (domain.GameEvent, error) {
	switch task.Status {
	case domain.TaskStatusPending:
		return loading(), nil
	case domain.TaskStatusActive:
		if host {
			players := game.Players()
			joined := make([]domain.LobbyPlayerSummary, len(players))
			for i, p := range players {
				joined[i] = domain.LobbyPlayerSummary{ID: p.ID, Nickname: p.Nickname}
			}
			return domain.GameLobbyHost{
				Type:    domain.EventTypeLobbyHost,
				GameID:  game.ID,
				PIN:     game.PIN,
				Players: joined,
			}, nil
		}
		return domain.GameLobbyPlayer{Type: domain.EventTypeLobbyPlayer, Nickname: viewer.Nickname}, nil
	case domain.TaskStatusCompleted:
		if host {
			return domain.GameBeginHost{
				Type:        domain.EventTypeBeginHost,
				GameID:      game.ID,
				PlayerCount: len(game.Players()),
			}, nil
		}
		return domain.GameBeginPlayer{Type: domain.EventTypeBeginPlayer, Nickname: viewer.Nickname}, nil
	}
	return nil, fmt.Errorf("%w: %s/%s", domain.ErrUnknownTaskState, task.Kind, task.Status)
}

func buildQuestionEvent(game *domain.Game, viewer domain.Participant, task domain.Task, meta domain.GameEventMetaData, host bool) (domain.GameEvent, error) {
	question := game.Questions[task.QuestionIndex]
	counter := task.QuestionIndex + 1
	total := len(game.Questions)

	switch task.Status {
	case domain.TaskStatusPending:
		if host {
			return domain.GameQuestionPreviewHost{
				Type:           domain.EventTypeQuestionPreviewHost,
				Question:       counter,
				TotalQuestions: total,
				QuestionType:   question.Type,
				Text:           question.Text,
				Media:          question.Media,
				Points:         question.Points,
			}, nil
		}
		return domain.GameQuestionPreviewPlayer{
			Type:           domain.EventTypeQuestionPreviewPlayer,
			Question:       counter,
			TotalQuestions: total,
			QuestionType:   question.Type,
		}, nil
	case domain.TaskStatusActive, domain.TaskStatusCompleted:
		if host {
			if task.Status == domain.TaskStatusCompleted {
				return loading(), nil
			}
			return domain.GameQuestionHost{
				Type:           domain.EventTypeQuestionHost,
				Question:       counter,
				TotalQuestions: total,
				QuestionType:   question.Type,
				Text:           question.Text,
				Media:          question.Media,
				Options:        question.Options,
				Duration:       task.Duration,
				Presented:      task.Presented,
				Submissions: domain.SubmissionCount{
					Current: meta.CurrentAnswers,
					Total:   meta.TotalPlayers,
				},
			}, nil
		}
		// A player with a submission in flight waits for results; everyone
		// else still sees the answer surface. Same builder for active and
		// completed, so a late subscriber lands on the right view.
		if meta.OwnAnswer != nil {
			return domain.GameAwaitingResultPlayer{
				Type:           domain.EventTypeAwaitingResultPlayer,
				Question:       counter,
				TotalQuestions: total,
				Submitted:      meta.OwnAnswer.Answer,
				SubmittedAt:    meta.OwnAnswer.Created,
			}, nil
		}
		return domain.GameQuestionPlayer{
			Type:           domain.EventTypeQuestionPlayer,
			Question:       counter,
			TotalQuestions: total,
			QuestionType:   question.Type,
			Options:        question.Options,
			Min:            question.Min,
			Max:            question.Max,
			Duration:       task.Duration,
			Presented:      task.Presented,
		}, nil
	}
	return nil, fmt.Errorf("%w: %s/%s", domain.ErrUnknownTaskState, task.Kind, task.Status)
}

func buildResultHostEvent(game *domain.Game, task domain.Task, meta domain.GameEventMetaData) domain.GameEvent {
	question := game.Questions[task.QuestionIndex]
	correct := 0
	for _, p := range game.Players() {
		if p.LastCorrect {
			correct++
		}
	}
	incorrect := meta.CurrentAnswers - correct
	if incorrect < 0 {
		incorrect = 0
	}
	unanswered := len(game.Players()) - meta.CurrentAnswers
	if unanswered < 0 {
		unanswered = 0
	}
	return domain.GameResultHost{
		Type:           domain.EventTypeResultHost,
		Question:       task.QuestionIndex + 1,
		TotalQuestions: len(game.Questions),
		QuestionType:   question.Type,
		Text:           question.Text,
		CorrectAnswer:  correctAnswerValue(question),
		CorrectCount:   correct,
		IncorrectCount: incorrect,
		Unanswered:     unanswered,
	}
}

func buildResultPlayerEvent(game *domain.Game, viewer domain.Participant) domain.GameEvent {
	return domain.GameResultPlayer{
		Type:         domain.EventTypeResultPlayer,
		Nickname:     viewer.Nickname,
		Correct:      viewer.LastCorrect,
		LastScore:    viewer.LastScore,
		TotalScore:   viewer.TotalScore,
		Streak:       viewer.Streak,
		Position:     viewer.Rank,
		TotalPlayers: len(game.Players()),
	}
}

func buildPodiumPlayerEvent(viewer domain.Participant, task domain.Task) domain.GameEvent {
	position := viewer.Rank
	score := viewer.TotalScore
	for _, entry := range task.Leaderboard {
		if entry.PlayerID == viewer.ID {
			position = entry.Position
			score = entry.Score
			break
		}
	}
	return domain.GamePodiumPlayer{
		Type:     domain.EventTypePodiumPlayer,
		Nickname: viewer.Nickname,
		Position: position,
		Score:    score,
	}
}

// correctAnswerValue shapes the question's correct payload for reveal.
func correctAnswerValue(q domain.Question) domain.AnswerValue {
	switch q.Type {
	case domain.QuestionTypeMultiChoice:
		option := q.CorrectOption
		return domain.AnswerValue{OptionIndex: &option}
	case domain.QuestionTypeTrueFalse:
		flag := q.CorrectFlag
		return domain.AnswerValue{Flag: &flag}
	case domain.QuestionTypeTypeAnswer:
		text := q.CorrectText
		return domain.AnswerValue{Text: &text}
	case domain.QuestionTypeRange:
		number := q.CorrectNumber
		return domain.AnswerValue{Number: &number}
	case domain.QuestionTypePin:
		position := q.CorrectPosition
		return domain.AnswerValue{Position: &position}
	case domain.QuestionTypePuzzle:
		return domain.AnswerValue{Sequence: q.CorrectSequence}
	}
	return domain.AnswerValue{}
}
