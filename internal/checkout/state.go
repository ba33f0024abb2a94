package checkout

type State int

const (
	Idle State = iota
	Loading
	Ready
	Submitting
	Confirmed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Submitting:
		return "submitting"
	case Confirmed:
		return "confirmed"
	}
	return "unknown"
}

// CanSubmit reports whether Submit may start from s.
func (s State) CanSubmit() bool {
	return s == Ready
}
