package channel

// Mode is fixed when a channel is created.
type Mode uint8

const (
	// Bounded channels hold at most their capacity; Send blocks when full.
	Bounded Mode = iota
	// Unbounded channels double their storage instead of blocking.
	Unbounded
)

func (m Mode) String() string {
	switch m {
	case Bounded:
		return "bounded"
	case Unbounded:
		return "unbounded"
	default:
		return "unknown"
	}
}

// State only ever moves from Open to Closed.
type State uint8

const (
	Open State = iota
	Closed
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

func modeOf(capacity int) Mode {
	if capacity == 0 {
		return Unbounded
	}

	return Bounded
}
