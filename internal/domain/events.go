package domain

import "time"

// GameEventType is the wire discriminator of an event payload.
type GameEventType string

const (
	EventTypeLoading               GameEventType = "GAME_LOADING"
	EventTypeLobbyHost             GameEventType = "GAME_LOBBY_HOST"
	EventTypeLobbyPlayer           GameEventType = "GAME_LOBBY_PLAYER"
	EventTypeBeginHost             GameEventType = "GAME_BEGIN_HOST"
	EventTypeBeginPlayer           GameEventType = "GAME_BEGIN_PLAYER"
	EventTypeQuestionPreviewHost   GameEventType = "GAME_QUESTION_PREVIEW_HOST"
	EventTypeQuestionPreviewPlayer GameEventType = "GAME_QUESTION_PREVIEW_PLAYER"
	EventTypeQuestionHost          GameEventType = "GAME_QUESTION_HOST"
	EventTypeQuestionPlayer        GameEventType = "GAME_QUESTION_PLAYER"
	EventTypeAwaitingResultPlayer  GameEventType = "GAME_AWAITING_RESULT_PLAYER"
	EventTypeResultHost            GameEventType = "GAME_RESULT_HOST"
	EventTypeResultPlayer          GameEventType = "GAME_RESULT_PLAYER"
	EventTypeLeaderboardHost       GameEventType = "GAME_LEADERBOARD_HOST"
	EventTypePodiumHost            GameEventType = "GAME_PODIUM_HOST"
	EventTypePodiumPlayer          GameEventType = "GAME_PODIUM_PLAYER"
	EventTypeQuit                  GameEventType = "GAME_QUIT"
	EventTypeHeartbeat             GameEventType = "GAME_HEARTBEAT"
)

// GameEvent is one payload of the event catalog. Every concrete event
// carries its Type tag so it serializes self-describing.
type GameEvent interface {
	EventType() GameEventType
}

// LobbyPlayerSummary is one joined player as shown in the host lobby.
type LobbyPlayerSummary struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
}

// SubmissionCount is the live answer progress of the current question.
type SubmissionCount struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// GameLoading is the generic waiting payload shown to either role for
// statuses that have no dedicated view.
type GameLoading struct {
	Type GameEventType `json:"type"`
}

func (GameLoading) EventType() GameEventType { return EventTypeLoading }

type GameLobbyHost struct {
	Type    GameEventType        `json:"type"`
	GameID  string               `json:"gameId"`
	PIN     string               `json:"pin"`
	Players []LobbyPlayerSummary `json:"players"`
}

func (GameLobbyHost) EventType() GameEventType { return EventTypeLobbyHost }

type GameLobbyPlayer struct {
	Type     GameEventType `json:"type"`
	Nickname string        `json:"nickname"`
}

func (GameLobbyPlayer) EventType() GameEventType { return EventTypeLobbyPlayer }

type GameBeginHost struct {
	Type        GameEventType `json:"type"`
	GameID      string        `json:"gameId"`
	PlayerCount int           `json:"playerCount"`
}

func (GameBeginHost) EventType() GameEventType { return EventTypeBeginHost }

type GameBeginPlayer struct {
	Type     GameEventType `json:"type"`
	Nickname string        `json:"nickname"`
}

func (GameBeginPlayer) EventType() GameEventType { return EventTypeBeginPlayer }

type GameQuestionPreviewHost struct {
	Type           GameEventType `json:"type"`
	Question       int           `json:"question"` // 1-based counter
	TotalQuestions int           `json:"totalQuestions"`
	QuestionType   QuestionType  `json:"questionType"`
	Text           string        `json:"text"`
	Media          string        `json:"media,omitempty"`
	Points         int           `json:"points"`
}

func (GameQuestionPreviewHost) EventType() GameEventType { return EventTypeQuestionPreviewHost }

type GameQuestionPreviewPlayer struct {
	Type           GameEventType `json:"type"`
	Question       int           `json:"question"`
	TotalQuestions int           `json:"totalQuestions"`
	QuestionType   QuestionType  `json:"questionType"`
}

func (GameQuestionPreviewPlayer) EventType() GameEventType { return EventTypeQuestionPreviewPlayer }

type GameQuestionHost struct {
	Type           GameEventType   `json:"type"`
	Question       int             `json:"question"`
	TotalQuestions int             `json:"totalQuestions"`
	QuestionType   QuestionType    `json:"questionType"`
	Text           string          `json:"text"`
	Media          string          `json:"media,omitempty"`
	Options        []string        `json:"options,omitempty"`
	Duration       int             `json:"duration"`
	Presented      time.Time       `json:"presented"`
	Submissions    SubmissionCount `json:"submissions"`
}

func (GameQuestionHost) EventType() GameEventType { return EventTypeQuestionHost }

type GameQuestionPlayer struct {
	Type           GameEventType `json:"type"`
	Question       int           `json:"question"`
	TotalQuestions int           `json:"totalQuestions"`
	QuestionType   QuestionType  `json:"questionType"`
	Options        []string      `json:"options,omitempty"`
	Min            float64       `json:"min,omitempty"`
	Max            float64       `json:"max,omitempty"`
	Duration       int           `json:"duration"`
	Presented      time.Time     `json:"presented"`
}

func (GameQuestionPlayer) EventType() GameEventType { return EventTypeQuestionPlayer }

// GameAwaitingResultPlayer replaces the question view for a player whose
// submission is already in, echoing what they answered.
type GameAwaitingResultPlayer struct {
	Type           GameEventType `json:"type"`
	Question       int           `json:"question"`
	TotalQuestions int           `json:"totalQuestions"`
	Submitted      AnswerValue   `json:"submitted"`
	SubmittedAt    time.Time     `json:"submittedAt"`
}

func (GameAwaitingResultPlayer) EventType() GameEventType { return EventTypeAwaitingResultPlayer }

type GameResultHost struct {
	Type           GameEventType `json:"type"`
	Question       int           `json:"question"`
	TotalQuestions int           `json:"totalQuestions"`
	QuestionType   QuestionType  `json:"questionType"`
	Text           string        `json:"text"`
	CorrectAnswer  AnswerValue   `json:"correctAnswer"`
	CorrectCount   int           `json:"correctCount"`
	IncorrectCount int           `json:"incorrectCount"`
	Unanswered     int           `json:"unanswered"`
}

func (GameResultHost) EventType() GameEventType { return EventTypeResultHost }

// GameResultPlayer is the player's own standing. It is the shared player
// view for the question-result and leaderboard tasks.
type GameResultPlayer struct {
	Type         GameEventType `json:"type"`
	Nickname     string        `json:"nickname"`
	Correct      bool          `json:"correct"`
	LastScore    int           `json:"lastScore"`
	TotalScore   int           `json:"totalScore"`
	Streak       int           `json:"streak"`
	Position     int           `json:"position"`
	TotalPlayers int           `json:"totalPlayers"`
}

func (GameResultPlayer) EventType() GameEventType { return EventTypeResultPlayer }

type GameLeaderboardHost struct {
	Type        GameEventType  `json:"type"`
	Leaderboard []RankedPlayer `json:"leaderboard"`
}

func (GameLeaderboardHost) EventType() GameEventType { return EventTypeLeaderboardHost }

type GamePodiumHost struct {
	Type        GameEventType  `json:"type"`
	Leaderboard []RankedPlayer `json:"leaderboard"`
}

func (GamePodiumHost) EventType() GameEventType { return EventTypePodiumHost }

type GamePodiumPlayer struct {
	Type     GameEventType `json:"type"`
	Nickname string        `json:"nickname"`
	Position int           `json:"position"`
	Score    int           `json:"score"`
}

func (GamePodiumPlayer) EventType() GameEventType { return EventTypePodiumPlayer }

type GameQuit struct {
	Type   GameEventType `json:"type"`
	Status GameStatus    `json:"status"`
}

func (GameQuit) EventType() GameEventType { return EventTypeQuit }

type GameHeartbeat struct {
	Type GameEventType `json:"type"`
}

func (GameHeartbeat) EventType() GameEventType { return EventTypeHeartbeat }

// DistributedEvent is what travels on the bus: an event payload optionally
// addressed to a single participant. It is never persisted.
type DistributedEvent struct {
	GameID   string    `json:"gameId"`
	PlayerID string    `json:"playerId,omitempty"` // empty means broadcast
	Event    GameEvent `json:"event"`
}

// Broadcast reports whether the event targets every subscriber of the game.
func (e DistributedEvent) Broadcast() bool {
	return e.PlayerID == ""
}

// GameEventMetaData is the ephemeral aggregation handed to the event
// builder: live submission counts plus the requesting player's own
// submission, if any. Computed fresh per build, never stored.
type GameEventMetaData struct {
	CurrentAnswers int
	TotalPlayers   int
	OwnAnswer      *QuestionTaskAnswer
}
