package controller

import (
	"github.com/adammck/biped"
)

// Fixed is a command source which always asks for the same velocity, for
// running without a gamepad.
type Fixed biped.WalkCommand

func (f Fixed) Command() biped.WalkCommand {
	return biped.WalkCommand(f)
}
