package page

import (
	"errors"
	"fmt"

	"github.com/abhisek/lingoz/internal/exercise"
	"github.com/abhisek/lingoz/internal/lessons"
)

// ErrUnknownBlock is returned for a block id the lesson does not have.
type ErrUnknownBlock struct {
	LessonID string
	BlockID  string
}

func (e *ErrUnknownBlock) Error() string {
	return fmt.Sprintf("lesson %q has no block %q", e.LessonID, e.BlockID)
}

// ErrWrongKind is returned when an operation is routed to a block of a
// kind that does not support it, such as Submit on a sort block.
type ErrWrongKind struct {
	BlockID string
	Kind    lessons.Kind
	Op      string
}

func (e *ErrWrongKind) Error() string {
	return fmt.Sprintf("%s: block %q is a %s block", e.Op, e.BlockID, e.Kind)
}

// ErrInvalidPick is returned when a builder pick is not one of the
// slot's options.
type ErrInvalidPick struct {
	BlockID string
	Slot    string
	Pick    string
}

func (e *ErrInvalidPick) Error() string {
	return fmt.Sprintf("block %q: %q is not an option for slot %q", e.BlockID, e.Pick, e.Slot)
}

// IsProgrammerError reports whether err stems from wiring or content
// bugs rather than learner input or storage trouble.
func IsProgrammerError(err error) bool {
	var (
		item *exercise.ErrInvalidItemReference
		blk  *ErrUnknownBlock
		kind *ErrWrongKind
		pick *ErrInvalidPick
	)
	return errors.As(err, &item) || errors.As(err, &blk) || errors.As(err, &kind) || errors.As(err, &pick)
}
