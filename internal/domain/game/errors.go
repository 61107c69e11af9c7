package game

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInsufficientParticipants   = errors.New("insufficient participants")
	ErrMissingBirthDate           = errors.New("missing birth date")
	ErrInvalidStateTransition     = errors.New("invalid state transition")
	ErrAssignmentsNotYetAvailable = errors.New("assignments not yet available")
	ErrUnknownParticipant         = errors.New("unknown participant")

	ErrGameNotFound       = errors.New("game not found")
	ErrAssignmentConflict = errors.New("assignment set violates uniqueness")
)

// MissingBirthDateError names every participant that blocks a birthday draw.
type MissingBirthDateError struct {
	ParticipantIDs []string
}

func (e *MissingBirthDateError) Error() string {
	return fmt.Sprintf("%s: participants=%s", ErrMissingBirthDate, strings.Join(e.ParticipantIDs, ","))
}

func (e *MissingBirthDateError) Is(target error) bool {
	return target == ErrMissingBirthDate
}

// TransitionError describes a rejected status change.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidStateTransition, e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidStateTransition
}
