package exercise

import "fmt"

// ErrInvalidItemReference indicates a submission for an item id the
// exercise does not contain. It is a content or wiring bug, not a
// learner mistake.
type ErrInvalidItemReference struct {
	ItemID string
}

func (e *ErrInvalidItemReference) Error() string {
	return fmt.Sprintf("invalid item reference: %q", e.ItemID)
}

// ErrInvalidExercise indicates items or options that cannot form an exercise.
type ErrInvalidExercise struct {
	Reason string
}

func (e *ErrInvalidExercise) Error() string {
	return "invalid exercise: " + e.Reason
}

func invalidf(format string, args ...any) error {
	return &ErrInvalidExercise{Reason: fmt.Sprintf(format, args...)}
}
