package domain

import "fmt"

// CommandKind tags a Command. Unrecognized tags are preserved so the
// sequencer can reject them at dispatch.
type CommandKind string

const (
	KindRotate CommandKind = "rotate"
	KindMove   CommandKind = "move"
)

// Known reports whether the sequencer can dispatch k.
func (k CommandKind) Known() bool {
	return k == KindRotate || k == KindMove
}

// Command is one high-level motion instruction. Only the payload matching
// Kind is meaningful.
type Command struct {
	Kind          CommandKind
	DeltaAngleDeg float64
	DistanceM     float64
}

// Rotate returns a rotate command.
func Rotate(deltaDeg float64) Command {
	return Command{Kind: KindRotate, DeltaAngleDeg: deltaDeg}
}

// Move returns a move command.
func Move(distance float64) Command {
	return Command{Kind: KindMove, DistanceM: distance}
}

func (c Command) String() string {
	switch c.Kind {
	case KindRotate:
		return fmt.Sprintf("rotate(%gdeg)", c.DeltaAngleDeg)
	case KindMove:
		return fmt.Sprintf("move(%gm)", c.DistanceM)
	default:
		return fmt.Sprintf("%s(?)", string(c.Kind))
	}
}

// Description is the start-up input of a run: an ordered, immutable command
// queue and an optional contour.
type Description struct {
	Commands []Command
	Contour  *Contour
}
