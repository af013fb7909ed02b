package services

import (
	"errors"
	"fmt"
)

// Ошибки, используемые сервисами и маппингом HTTP.
var (
	// Ресурс не найден
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrEntrantNotFound    = errors.New("player is not registered in this tournament")
	ErrCourtNotFound      = errors.New("court not found")

	// Ошибки валидации входных данных
	ErrUnresolvedScore   = errors.New("no winner could be determined from the submitted sets")
	ErrTooManySets       = errors.New("a match has at most 3 sets")
	ErrSamePlayerTwice   = errors.New("a team needs two different players")
	ErrEntrantConflict   = errors.New("player is already registered in this tournament")
	ErrInvalidMatchCount = errors.New("number of first round matches must be a power of 2 and at least 2")
	ErrDuplicateCourtID  = errors.New("court list contains duplicates")
	ErrInvalidCourtID    = errors.New("court id must be positive")
	ErrInvalidTeamKey    = errors.New("team key must look like \"lesser-greater\"")

	// Ошибки состояния
	ErrTournamentNotPending      = errors.New("tournament is not pending")
	ErrTournamentNotActive       = errors.New("tournament is not active")
	ErrUnsupportedTournamentType = errors.New("only elimination tournaments can be initialized")
	ErrParentMatchMissing        = errors.New("parent match does not exist")
	ErrSlotOccupied              = errors.New("target slot in the parent match is already full")
	ErrFinalNotDecided           = errors.New("the final has no winner yet")
	ErrWinnerWithoutPlayers      = errors.New("winning side of the match has no players")
)

// ValidationError: входные данные не проходят проверку. Хранилище не трогалось.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// StateError: операция противоречит текущему состоянию данных.
type StateError struct {
	Err error
}

func (e *StateError) Error() string { return e.Err.Error() }
func (e *StateError) Unwrap() error { return e.Err }

// PersistenceError: сбой хранилища. Транзакция откатывается.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func validation(err error) error { return &ValidationError{Err: err} }

func stateErr(err error) error { return &StateError{Err: err} }

// persistence оборачивает ошибку хранилища, не трогая уже классифицированные ошибки.
func persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	var se *StateError
	var pe *PersistenceError
	if errors.As(err, &ve) || errors.As(err, &se) || errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
