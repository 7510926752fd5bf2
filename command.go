package biped

import (
	"fmt"
)

// WalkCommand is the requested velocity of the walk frame. Forward and Lateral
// are in m/s, Turn in rad/s.
type WalkCommand struct {
	Forward float64
	Lateral float64
	Turn    float64

	// Sit lowers the hips to the sitting height once the walk has stopped.
	// While set, the velocity is ignored.
	Sit bool
}

func (c WalkCommand) String() string {
	return fmt.Sprintf("Cmd{f=%+.3f l=%+.3f t=%+.3f sit=%v}", c.Forward, c.Lateral, c.Turn, c.Sit)
}

// IsZero returns true if the command requests no movement at all.
func (c WalkCommand) IsZero() bool {
	return c.Forward == 0 && c.Lateral == 0 && c.Turn == 0
}
