package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/emilhornlund/quiz-game-service/internal/domain"
)

const (
	pinAlphabet    = "0123456789"
	pinLength      = 6
	pinAttempts    = 10
	defaultPINTTL  = 6 * time.Hour
	advanceTimeout = 10 * time.Second
)

// GameService contains the core game use cases: creating and joining games,
// driving the task lifecycle, scoring rounds and distributing events.
type GameService struct {
	games     GameRepository
	answers   AnswerStore
	quizzes   QuizRepository
	bus       EventBus
	locker    GameLocker
	scheduler *TaskScheduler
	active    *participantRegistry
	log       zerolog.Logger
	now       func() time.Time
	pinTTL    time.Duration
}

func NewGameService(games GameRepository, answers AnswerStore, quizzes QuizRepository, bus EventBus, locker GameLocker, log zerolog.Logger) *GameService {
	return NewGameServiceWithClock(games, answers, quizzes, bus, locker, log, time.Now)
}

// NewGameServiceWithClock allows deterministic timestamps in tests.
func NewGameServiceWithClock(games GameRepository, answers AnswerStore, quizzes QuizRepository, bus EventBus, locker GameLocker, log zerolog.Logger, now func() time.Time) *GameService {
	return &GameService{
		games:     games,
		answers:   answers,
		quizzes:   quizzes,
		bus:       bus,
		locker:    locker,
		scheduler: NewTaskScheduler(),
		active:    newParticipantRegistry(),
		log:       log,
		now:       now,
		pinTTL:    defaultPINTTL,
	}
}

// CreateGame loads the quiz content and creates a fresh game in the lobby
// with the caller as host. The PIN is unique among games created within the
// PIN TTL window.
func (s *GameService) CreateGame(ctx context.Context, quizID, hostNickname string) (*domain.Game, string, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, "", err
	}
	if len(quiz.Questions) == 0 {
		return nil, "", domain.ErrQuizEmpty
	}

	now := s.now()
	mode := quiz.Mode
	if mode == "" {
		mode = domain.GameModeClassic
	}
	hostID := uuid.NewString()
	game := &domain.Game{
		ID:        uuid.NewString(),
		Name:      quiz.Name,
		Mode:      mode,
		Status:    domain.GameStatusActive,
		Questions: quiz.Questions,
		Participants: []domain.Participant{
			{ID: hostID, Role: domain.RoleHost, Nickname: hostNickname},
		},
		CurrentTask: domain.Task{
			Kind:    domain.TaskKindLobby,
			Status:  domain.TaskStatusPending,
			Created: now,
		},
		Created: now,
		Updated: now,
	}

	pin, err := s.allocatePIN(ctx, game.ID)
	if err != nil {
		return nil, "", err
	}
	game.PIN = pin

	if err := s.games.Save(ctx, game); err != nil {
		return nil, "", err
	}
	s.log.Info().Str("game", game.ID).Str("pin", pin).Msg("game created")
	return game, hostID, nil
}

func (s *GameService) allocatePIN(ctx context.Context, gameID string) (string, error) {
	for i := 0; i < pinAttempts; i++ {
		pin, err := gonanoid.Generate(pinAlphabet, pinLength)
		if err != nil {
			return "", fmt.Errorf("generate pin: %w", err)
		}
		claimed, err := s.games.ClaimPIN(ctx, pin, gameID, s.pinTTL)
		if err != nil {
			return "", err
		}
		if claimed {
			return pin, nil
		}
	}
	return "", domain.ErrPINExhausted
}

// JoinGame adds a player to the lobby of the game behind the PIN.
func (s *GameService) JoinGame(ctx context.Context, pin, nickname string) (*domain.Game, string, error) {
	found, err := s.games.GetByPIN(ctx, pin)
	if err != nil {
		return nil, "", err
	}

	unlock, err := s.locker.Lock(ctx, found.ID)
	if err != nil {
		return nil, "", err
	}
	defer unlock()

	game, err := s.games.Get(ctx, found.ID)
	if err != nil {
		return nil, "", err
	}
	if game.Status != domain.GameStatusActive ||
		game.CurrentTask.Kind != domain.TaskKindLobby ||
		game.CurrentTask.Status == domain.TaskStatusCompleted {
		return nil, "", domain.ErrGameNotJoinable
	}

	playerID := uuid.NewString()
	game.Participants = append(game.Participants, domain.Participant{
		ID:        playerID,
		Role:      domain.RolePlayer,
		Nickname:  nickname,
		JoinOrder: len(game.Players()),
	})
	game.Updated = s.now()

	if err := s.games.Save(ctx, game); err != nil {
		return nil, "", err
	}
	if err := s.publishTaskState(ctx, game); err != nil {
		return nil, "", err
	}
	return game, playerID, nil
}

// Leave removes a participant. A departing host force-quits the game, as
// does the last remaining player leaving mid-game.
func (s *GameService) Leave(ctx context.Context, gameID, participantID string) error {
	unlock, err := s.locker.Lock(ctx, gameID)
	if err != nil {
		return err
	}
	defer unlock()

	game, err := s.games.Get(ctx, gameID)
	if err != nil {
		return err
	}
	leaving, ok := game.Participant(participantID)
	if !ok {
		return domain.ErrParticipantNotFound
	}

	if leaving.Role == domain.RoleHost {
		return s.quitLocked(ctx, game, domain.QuitReasonHostAbandoned)
	}

	remaining := game.Participants[:0]
	for _, p := range game.Participants {
		if p.ID != participantID {
			remaining = append(remaining, p)
		}
	}
	game.Participants = remaining
	game.Updated = s.now()

	if len(game.Players()) == 0 && game.CurrentTask.Kind != domain.TaskKindLobby {
		return s.quitLocked(ctx, game, domain.QuitReasonPlayersLeft)
	}
	if err := s.games.Save(ctx, game); err != nil {
		return err
	}
	return s.publishTaskState(ctx, game)
}

// SubmitAnswer records a player's submission for the live question and
// refreshes the host's submission counter plus the player's waiting view.
// The first submission per player wins; later ones are ignored. Late
// submissions are recorded and score zero.
func (s *GameService) SubmitAnswer(ctx context.Context, gameID, playerID string, value domain.AnswerValue) error {
	game, err := s.games.Get(ctx, gameID)
	if err != nil {
		return err
	}
	player, ok := game.Participant(playerID)
	if !ok || player.Role != domain.RolePlayer {
		return domain.ErrParticipantNotFound
	}
	task := game.CurrentTask
	if task.Kind != domain.TaskKindQuestion || task.Status != domain.TaskStatusActive {
		return fmt.Errorf("%w: no active question", domain.ErrInvalidTransition)
	}

	existing, err := s.answers.List(ctx, gameID, task.QuestionIndex)
	if err != nil {
		return err
	}
	if _, answered := firstByPlayer(existing)[playerID]; !answered {
		answer := domain.QuestionTaskAnswer{
			Type:     game.Questions[task.QuestionIndex].Type,
			PlayerID: playerID,
			Answer:   value,
			Created:  s.now(),
		}
		if err := s.answers.Append(ctx, gameID, task.QuestionIndex, answer); err != nil {
			return err
		}
	}

	return s.publishTaskState(ctx, game)
}

// Advance drives the task lifecycle one step. Completing a question's
// active window scores the round before the transition. Activating a timed
// window arms the expiry timer that calls Advance again.
func (s *GameService) Advance(ctx context.Context, gameID string) (domain.Task, error) {
	unlock, err := s.locker.Lock(ctx, gameID)
	if err != nil {
		return domain.Task{}, err
	}
	defer unlock()

	game, err := s.games.Get(ctx, gameID)
	if err != nil {
		return domain.Task{}, err
	}
	return s.advanceLocked(ctx, game)
}

func (s *GameService) advanceLocked(ctx context.Context, game *domain.Game) (domain.Task, error) {
	leavingActiveQuestion := game.CurrentTask.Kind == domain.TaskKindQuestion &&
		game.CurrentTask.Status == domain.TaskStatusActive
	if leavingActiveQuestion {
		if err := s.scoreRound(ctx, game); err != nil {
			return domain.Task{}, err
		}
	}

	task, err := AdvanceTask(game, s.now())
	if err != nil {
		return domain.Task{}, err
	}

	if err := s.games.Save(ctx, game); err != nil {
		return domain.Task{}, err
	}
	if err := s.publishTaskState(ctx, game); err != nil {
		return domain.Task{}, err
	}

	if !task.Terminal() && task.Status == domain.TaskStatusActive && task.Duration > 0 {
		s.scheduleExpiry(game.ID, task)
		return task, nil
	}
	// Any transition that does not arm a fresh timer ends whatever timed
	// window was running, so its timer must not fire later.
	s.scheduler.Cancel(game.ID)
	return task, nil
}

func (s *GameService) scheduleExpiry(gameID string, armed domain.Task) {
	s.scheduler.Schedule(gameID, time.Duration(armed.Duration)*time.Second, func() {
		ctx, cancel := context.WithTimeout(context.Background(), advanceTimeout)
		defer cancel()
		if err := s.expireTask(ctx, gameID, armed); err != nil && !errors.Is(err, domain.ErrInvalidTransition) {
			s.log.Error().Err(err).Str("game", gameID).Msg("timed task advance failed")
		}
	})
}

// expireTask closes a timed window on behalf of the scheduler. The armed
// task is re-checked under the lock: if the host already moved the game on,
// the expiry is stale and must not advance someone else's task.
func (s *GameService) expireTask(ctx context.Context, gameID string, armed domain.Task) error {
	unlock, err := s.locker.Lock(ctx, gameID)
	if err != nil {
		return err
	}
	defer unlock()

	game, err := s.games.Get(ctx, gameID)
	if err != nil {
		return err
	}
	cur := game.CurrentTask
	if cur.Kind != armed.Kind || cur.Status != armed.Status ||
		cur.QuestionIndex != armed.QuestionIndex || !cur.Created.Equal(armed.Created) {
		return nil
	}
	_, err = s.advanceLocked(ctx, game)
	return err
}

// ForceQuit transitions the game unconditionally to quit. Idempotent.
func (s *GameService) ForceQuit(ctx context.Context, gameID string, reason domain.QuitReason) error {
	unlock, err := s.locker.Lock(ctx, gameID)
	if err != nil {
		return err
	}
	defer unlock()

	game, err := s.games.Get(ctx, gameID)
	if err != nil {
		return err
	}
	if game.CurrentTask.Terminal() {
		return nil
	}
	return s.quitLocked(ctx, game, reason)
}

func (s *GameService) quitLocked(ctx context.Context, game *domain.Game, reason domain.QuitReason) error {
	ForceQuitTask(game, reason, s.now())
	s.scheduler.Cancel(game.ID)
	if err := s.games.Save(ctx, game); err != nil {
		return err
	}
	return s.bus.Publish(ctx, domain.DistributedEvent{
		GameID: game.ID,
		Event:  domain.GameQuit{Type: domain.EventTypeQuit, Status: game.Status},
	})
}

// ParticipantRole resolves the role of a game participant, for transports
// that gate pacing operations to the host.
func (s *GameService) ParticipantRole(ctx context.Context, gameID, participantID string) (domain.ParticipantRole, error) {
	game, err := s.games.Get(ctx, gameID)
	if err != nil {
		return "", err
	}
	participant, ok := game.Participant(participantID)
	if !ok {
		return "", domain.ErrParticipantNotFound
	}
	return participant.Role, nil
}

// ParticipantSnapshot returns a copy of one participant's current standing.
func (s *GameService) ParticipantSnapshot(ctx context.Context, gameID, participantID string) (domain.Participant, error) {
	game, err := s.games.Get(ctx, gameID)
	if err != nil {
		return domain.Participant{}, err
	}
	participant, ok := game.Participant(participantID)
	if !ok {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	return *participant, nil
}

// ExpireStale marks active games untouched for longer than maxAge expired.
func (s *GameService) ExpireStale(ctx context.Context, maxAge time.Duration) (int, error) {
	return s.games.ExpireBefore(ctx, s.now().Add(-maxAge))
}

// Shutdown cancels outstanding task timers.
func (s *GameService) Shutdown() {
	s.scheduler.Stop()
}

// scoreRound scores every player's first submission for the question whose
// active window just ended, updating totals, streaks, counters and ranks.
func (s *GameService) scoreRound(ctx context.Context, game *domain.Game) error {
	task := game.CurrentTask
	question := game.Questions[task.QuestionIndex]

	answers, err := s.answers.List(ctx, game.ID, task.QuestionIndex)
	if err != nil {
		return err
	}
	first := firstByPlayer(answers)

	for _, player := range game.Players() {
		answer, answered := first[player.ID]
		var correct bool
		var award int
		if answered {
			correct, err = IsCorrect(question, answer.Answer)
			if err != nil {
				return err
			}
			award = Score(task.Presented, answer.Created, task.Duration, question.Points, correct, &answer.Answer)

			player.AnswerCount++
			if elapsed := answer.Created.Sub(task.Presented).Seconds(); elapsed > 0 {
				player.ResponseTimeSum += elapsed
			}
			if precision, ok := Precision(question, answer.Answer); ok {
				player.PrecisionSum += precision
				player.PrecisionCount++
			}
			if correct {
				player.Correct++
				player.Streak++
			} else {
				player.Incorrect++
				player.Streak = 0
			}
		} else {
			player.Unanswered++
			player.Streak = 0
		}
		player.LastCorrect = answered && correct
		player.LastScore = award
		player.TotalScore += award
	}

	for _, entry := range Rank(game.Players()) {
		if p, ok := game.Participant(entry.PlayerID); ok {
			p.Rank = entry.Position
		}
	}
	return nil
}

// publishTaskState builds and publishes the current task's event for every
// participant, each addressed individually so role and per-player metadata
// stay private to their stream.
func (s *GameService) publishTaskState(ctx context.Context, game *domain.Game) error {
	for i := range game.Participants {
		viewer := game.Participants[i]
		meta, err := s.questionMetadata(ctx, game, viewer.ID)
		if err != nil {
			return err
		}
		event, err := BuildEvent(game, viewer, meta)
		if err != nil {
			return err
		}
		err = s.bus.Publish(ctx, domain.DistributedEvent{
			GameID:   game.ID,
			PlayerID: viewer.ID,
			Event:    event,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// questionMetadata aggregates live submission counts and the viewer's own
// submission for question-family tasks. Counts are an eventually consistent
// snapshot; exactness is only needed once the active window closes.
func (s *GameService) questionMetadata(ctx context.Context, game *domain.Game, viewerID string) (domain.GameEventMetaData, error) {
	meta := domain.GameEventMetaData{TotalPlayers: len(game.Players())}
	task := game.CurrentTask
	if task.Kind != domain.TaskKindQuestion && task.Kind != domain.TaskKindQuestionResult {
		return meta, nil
	}

	answers, err := s.answers.List(ctx, game.ID, task.QuestionIndex)
	if err != nil {
		return meta, err
	}
	first := firstByPlayer(answers)
	meta.CurrentAnswers = len(first)
	if own, ok := first[viewerID]; ok {
		meta.OwnAnswer = &own
	}
	return meta, nil
}

// firstByPlayer reduces the append-only submission log to one answer per
// player: the first submission wins.
func firstByPlayer(answers []domain.QuestionTaskAnswer) map[string]domain.QuestionTaskAnswer {
	first := make(map[string]domain.QuestionTaskAnswer, len(answers))
	for _, answer := range answers {
		if _, ok := first[answer.PlayerID]; !ok {
			first[answer.PlayerID] = answer
		}
	}
	return first
}
