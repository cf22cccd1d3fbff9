package parmap

// State is the lifecycle state of an engine.
type State int32

const (
	// Running accepts new input.
	Running State = iota
	// Draining has seen the end of input; in-flight tasks are finishing.
	Draining
	// ShutDown has released everything or was abandoned with Close.
	ShutDown
	// Poisoned hit an infrastructure failure; Next returns it forever.
	Poisoned
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Draining:
		return "draining"
	case ShutDown:
		return "shut_down"
	case Poisoned:
		return "poisoned"
	default:
		return "unknown"
	}
}

// terminal reports whether the engine no longer accepts outcomes.
func (s State) terminal() bool {
	return s == ShutDown || s == Poisoned
}
