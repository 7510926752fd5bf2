package biped

type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "invalid"
	}
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == Left {
		return Right
	}

	return Left
}

// Sign returns +1 for the left side and -1 for the right, which is the
// direction of that side along the Y axis.
func (s Side) Sign() float64 {
	if s == Left {
		return 1
	}

	return -1
}

// Valid returns true if s is either Left or Right.
func (s Side) Valid() bool {
	return s == Left || s == Right
}
