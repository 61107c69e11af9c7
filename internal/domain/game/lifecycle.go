package game

import "fmt"

var transitions = map[Status]Status{
	StatusPending: StatusActive,
	StatusActive:  StatusCompleted,
}

// CanTransition reports whether status may move from one value to another.
// Status only moves forward one step: pending -> active -> completed.
func CanTransition(from, to Status) bool {
	next, ok := transitions[from]
	return ok && next == to
}

func ValidateTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}

// ValidateAssignmentSet checks that assignments form a derangement over the
// game participants: every participant gives once, receives once, and never
// to themselves.
func ValidateAssignmentSet(g Game, assignments []Assignment) error {
	if len(assignments) != len(g.ParticipantIDs) {
		return fmt.Errorf("%w: expected %d assignments, got %d", ErrAssignmentConflict, len(g.ParticipantIDs), len(assignments))
	}

	members := make(map[string]struct{}, len(g.ParticipantIDs))
	for _, id := range g.ParticipantIDs {
		members[id] = struct{}{}
	}

	givers := make(map[string]struct{}, len(assignments))
	receivers := make(map[string]struct{}, len(assignments))
	for _, a := range assignments {
		if a.GameID != g.ID {
			return fmt.Errorf("%w: assignment %s belongs to game %s", ErrAssignmentConflict, a.ID, a.GameID)
		}
		if a.GiverID == a.ReceiverID {
			return fmt.Errorf("%w: self assignment for %s", ErrAssignmentConflict, a.GiverID)
		}
		if _, ok := members[a.GiverID]; !ok {
			return fmt.Errorf("%w: giver %s is not in game", ErrAssignmentConflict, a.GiverID)
		}
		if _, ok := members[a.ReceiverID]; !ok {
			return fmt.Errorf("%w: receiver %s is not in game", ErrAssignmentConflict, a.ReceiverID)
		}
		if _, ok := givers[a.GiverID]; ok {
			return fmt.Errorf("%w: duplicate giver %s", ErrAssignmentConflict, a.GiverID)
		}
		if _, ok := receivers[a.ReceiverID]; ok {
			return fmt.Errorf("%w: duplicate receiver %s", ErrAssignmentConflict, a.ReceiverID)
		}
		givers[a.GiverID] = struct{}{}
		receivers[a.ReceiverID] = struct{}{}
	}

	return nil
}
