package reload

// ChangeEvent is one file-change notification from the host watcher.
type ChangeEvent struct {
	// Path is the changed file, absolute or relative to the project root.
	Path string
}

// Outcome tells the host whether the event was consumed.
type Outcome int

const (
	// NotHandled lets the host run its default update handling.
	NotHandled Outcome = iota
	// Handled means a full reload was sent; the host must not also
	// propagate a finer-grained update for the same event.
	Handled
)

func (o Outcome) String() string {
	if o == Handled {
		return "handled"
	}
	return "not-handled"
}

// State is the coordinator's position in its two-state cycle.
type State int32

const (
	Idle State = iota
	Evaluating
)

func (s State) String() string {
	if s == Evaluating {
		return "evaluating"
	}
	return "idle"
}
