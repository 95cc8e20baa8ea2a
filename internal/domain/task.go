package domain

import "time"

// TaskKind enumerates the stages of a game session.
type TaskKind string

const (
	TaskKindLobby          TaskKind = "lobby"
	TaskKindQuestion       TaskKind = "question"
	TaskKindQuestionResult TaskKind = "question-result"
	TaskKindLeaderboard    TaskKind = "leaderboard"
	TaskKindPodium         TaskKind = "podium"
	TaskKindQuit           TaskKind = "quit"
)

// TaskStatus is the sub-status every non-terminal task walks through.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusActive    TaskStatus = "active"
	TaskStatusCompleted TaskStatus = "completed"
)

// QuitReason records why a game reached the terminal quit task.
type QuitReason string

const (
	QuitReasonCompleted     QuitReason = "completed"
	QuitReasonHostAbandoned QuitReason = "host-abandoned"
	QuitReasonPlayersLeft   QuitReason = "players-left"
)

// RankedPlayer is one row of a precomputed leaderboard or podium.
type RankedPlayer struct {
	Position int    `json:"position"`
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
	Streak   int    `json:"streak"`
}

// Task is one stage of the game lifecycle, tagged by Kind. Only the fields
// matching the kind are meaningful: the question family carries
// QuestionIndex/Presented/Duration, leaderboard and podium carry the ranked
// list, quit carries the reason. The flat tagged shape round-trips through
// the JSON repositories; every switch over Kind has a loud default.
type Task struct {
	Kind    TaskKind   `json:"kind"`
	Status  TaskStatus `json:"status"`
	Created time.Time  `json:"created"`

	QuestionIndex int       `json:"questionIndex,omitempty"`
	Presented     time.Time `json:"presented,omitempty"`
	Duration      int       `json:"duration,omitempty"` // seconds

	Leaderboard []RankedPlayer `json:"leaderboard,omitempty"`

	QuitReason QuitReason `json:"quitReason,omitempty"`
}

// Terminal reports whether no task may follow this one.
func (t Task) Terminal() bool {
	return t.Kind == TaskKindQuit
}
