package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors, matched with errors.Is.
var (
	ErrValidation             = errors.New("validation failed")
	ErrNotFound               = errors.New("not found")
	ErrAlreadyResolved        = errors.New("pending match already resolved")
	ErrInvalidTransition      = errors.New("invalid pending match transition")
	ErrConflictingSeasonState = errors.New("conflicting season state")
	ErrReplayIntegrity        = errors.New("replay integrity violation")
)

// ValidationError describes a rejected submission.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NotFoundError names the missing entity.
type NotFoundError struct {
	Kind string // "player", "match", "pending match", "season"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// AlreadyResolvedError is returned for any action on a terminal pending match.
type AlreadyResolvedError struct {
	PendingID string
	Status    PendingStatus
}

func (e *AlreadyResolvedError) Error() string {
	return fmt.Sprintf("pending match %s already resolved (%s)", e.PendingID, e.Status)
}

func (e *AlreadyResolvedError) Unwrap() error {
	return ErrAlreadyResolved
}

// TransitionError is returned when an action is not allowed from a non-terminal state.
type TransitionError struct {
	PendingID string
	From      PendingStatus
	Action    string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s pending match %s in state %s", e.Action, e.PendingID, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// SeasonStateError is returned by season operations and by ledger mutations on archived matches.
type SeasonStateError struct {
	LeagueID string
	Reason   string
}

func (e *SeasonStateError) Error() string {
	return fmt.Sprintf("league %s: %s", e.LeagueID, e.Reason)
}

func (e *SeasonStateError) Unwrap() error {
	return ErrConflictingSeasonState
}

// ReplayIntegrityError aborts a replay over a malformed ledger.
type ReplayIntegrityError struct {
	MatchID string
	Reason  string
}

func (e *ReplayIntegrityError) Error() string {
	return fmt.Sprintf("replay integrity violation at match %s: %s", e.MatchID, e.Reason)
}

func (e *ReplayIntegrityError) Unwrap() error {
	return ErrReplayIntegrity
}

// IsClientError reports whether err was caused by the caller's input or timing.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrAlreadyResolved) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrConflictingSeasonState)
}

// IsNotFound reports whether err names a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
