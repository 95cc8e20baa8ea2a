package domain

import "time"

// GameMode selects the question style of a game.
type GameMode string

const (
	GameModeClassic          GameMode = "classic"
	GameModeZeroToOneHundred GameMode = "zero-to-one-hundred"
)

// GameStatus is the coarse lifecycle state of a game.
type GameStatus string

const (
	GameStatusActive    GameStatus = "active"
	GameStatusCompleted GameStatus = "completed"
	GameStatusExpired   GameStatus = "expired"
)

// ParticipantRole distinguishes the pacing host from answering players.
type ParticipantRole string

const (
	RoleHost   ParticipantRole = "host"
	RolePlayer ParticipantRole = "player"
)

// Participant is either the host or a player of one game. The role never
// changes for the lifetime of the game; the accumulator fields are only
// meaningful for players.
type Participant struct {
	ID        string          `json:"id"`
	Role      ParticipantRole `json:"role"`
	Nickname  string          `json:"nickname"`
	JoinOrder int             `json:"joinOrder"`

	Rank       int `json:"rank"`
	TotalScore int `json:"totalScore"`
	Streak     int `json:"streak"`

	Correct    int `json:"correct"`
	Incorrect  int `json:"incorrect"`
	Unanswered int `json:"unanswered"`

	// Outcome of the most recently scored question, used for result views.
	LastCorrect bool `json:"lastCorrect"`
	LastScore   int  `json:"lastScore"`

	// Sums for derived averages: response time across all scored answers,
	// precision across range/pin answers.
	ResponseTimeSum float64 `json:"responseTimeSum"`
	PrecisionSum    float64 `json:"precisionSum"`
	AnswerCount     int     `json:"answerCount"`
	PrecisionCount  int     `json:"precisionCount"`
}

// AverageResponseTime returns the mean answer latency in seconds.
func (p Participant) AverageResponseTime() float64 {
	if p.AnswerCount == 0 {
		return 0
	}
	return p.ResponseTimeSum / float64(p.AnswerCount)
}

// AveragePrecision returns the mean precision for continuous-range answers.
func (p Participant) AveragePrecision() float64 {
	if p.PrecisionCount == 0 {
		return 0
	}
	return p.PrecisionSum / float64(p.PrecisionCount)
}

// QuestionType enumerates the supported answer mechanics.
type QuestionType string

const (
	QuestionTypeMultiChoice QuestionType = "multi-choice"
	QuestionTypeTrueFalse   QuestionType = "true-false"
	QuestionTypeTypeAnswer  QuestionType = "type-answer"
	QuestionTypeRange       QuestionType = "range"
	QuestionTypePin         QuestionType = "pin"
	QuestionTypePuzzle      QuestionType = "puzzle"
)

// Position is a point on question media, used by pin questions.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Question carries the presentation surface and the type-specific correct
// payload for one question. Only the fields matching Type are meaningful.
type Question struct {
	Type     QuestionType `json:"type"`
	Text     string       `json:"text"`
	Media    string       `json:"media,omitempty"`
	Points   int          `json:"points"`
	Duration int          `json:"duration"` // seconds

	Options       []string `json:"options,omitempty"` // multi-choice options, puzzle items
	CorrectOption int      `json:"correctOption,omitempty"`

	CorrectFlag bool `json:"correctFlag,omitempty"`

	CorrectText   string   `json:"correctText,omitempty"`
	AcceptedTexts []string `json:"acceptedTexts,omitempty"`

	CorrectNumber float64 `json:"correctNumber,omitempty"`
	Margin        float64 `json:"margin,omitempty"`
	Min           float64 `json:"min,omitempty"`
	Max           float64 `json:"max,omitempty"`

	CorrectPosition Position `json:"correctPosition,omitempty"`
	Tolerance       float64  `json:"tolerance,omitempty"`

	CorrectSequence []string `json:"correctSequence,omitempty"`
}

// Quiz is the authored content a game is created from.
type Quiz struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Mode      GameMode   `json:"mode"`
	Questions []Question `json:"questions"`
}

// AnswerValue is the type-shaped payload of one submission. Exactly one
// field matching the question type is expected to be set.
type AnswerValue struct {
	OptionIndex *int      `json:"optionIndex,omitempty"`
	Flag        *bool     `json:"flag,omitempty"`
	Text        *string   `json:"text,omitempty"`
	Number      *float64  `json:"number,omitempty"`
	Position    *Position `json:"position,omitempty"`
	Sequence    []string  `json:"sequence,omitempty"`
}

// QuestionTaskAnswer is one recorded submission, appended to the answer
// store keyed by game ID and question index.
type QuestionTaskAnswer struct {
	Type     QuestionType `json:"type"`
	PlayerID string       `json:"playerId"`
	Answer   AnswerValue  `json:"answer"`
	Created  time.Time    `json:"created"`
}

// Game is the canonical aggregate of one session. It is loaded, mutated and
// saved per operation; the repositories own it between operations.
type Game struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Mode          GameMode      `json:"mode"`
	Status        GameStatus    `json:"status"`
	PIN           string        `json:"pin"`
	Questions     []Question    `json:"questions"`
	Participants  []Participant `json:"participants"`
	CurrentTask   Task          `json:"currentTask"`
	PreviousTasks []Task        `json:"previousTasks"`
	Created       time.Time     `json:"created"`
	Updated       time.Time     `json:"updated"`
}

// Participant returns the participant with the given ID.
func (g *Game) Participant(id string) (*Participant, bool) {
	for i := range g.Participants {
		if g.Participants[i].ID == id {
			return &g.Participants[i], true
		}
	}
	return nil, false
}

// Host returns the host participant.
func (g *Game) Host() (*Participant, bool) {
	for i := range g.Participants {
		if g.Participants[i].Role == RoleHost {
			return &g.Participants[i], true
		}
	}
	return nil, false
}

// Players returns pointers to all player participants in join order.
func (g *Game) Players() []*Participant {
	players := make([]*Participant, 0, len(g.Participants))
	for i := range g.Participants {
		if g.Participants[i].Role == RolePlayer {
			players = append(players, &g.Participants[i])
		}
	}
	return players
}
