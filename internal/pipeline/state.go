package pipeline

// State is a pipeline stage.
type State int

const (
	Idle State = iota
	LanguageDetected
	Translated
	Assembled
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case LanguageDetected:
		return "language_detected"
	case Translated:
		return "translated"
	case Assembled:
		return "assembled"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Next returns the only state reachable from s on success. Done and Failed
// are terminal and report false.
func (s State) Next() (State, bool) {
	switch s {
	case Idle:
		return LanguageDetected, true
	case LanguageDetected:
		return Translated, true
	case Translated:
		return Assembled, true
	case Assembled:
		return Done, true
	default:
		return s, false
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}
