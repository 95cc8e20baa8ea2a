package domain

import "errors"

var (
	// ErrGameNotFound is returned when no game exists for an ID or PIN.
	ErrGameNotFound = errors.New("game not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizEmpty is returned when a quiz has no questions to play.
	ErrQuizEmpty = errors.New("quiz has no questions")
	// ErrParticipantNotFound is returned when a participant does not belong
	// to the game they address.
	ErrParticipantNotFound = errors.New("participant not found in game")
	// ErrInvalidTransition is returned when advance is called on a terminal task.
	ErrInvalidTransition = errors.New("invalid task transition")
	// ErrUnknownTaskState marks a task/status pair outside the event matrix.
	// It is a programming error and must surface, never be defaulted away.
	ErrUnknownTaskState = errors.New("unknown task state")
	// ErrGameNotJoinable is returned when joining past the lobby or a
	// non-active game.
	ErrGameNotJoinable = errors.New("game not joinable")
	// ErrPINExhausted is returned when no unique game PIN could be generated.
	ErrPINExhausted = errors.New("could not allocate a unique game pin")
	// ErrLockNotAcquired is returned when the per-game mutation lock could
	// not be obtained in time.
	ErrLockNotAcquired = errors.New("game lock not acquired")
)
