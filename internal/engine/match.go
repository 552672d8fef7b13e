package engine

import "strings"

// MatchState is the incremental-match state machine's position.
type MatchState int

const (
	// StateIdle means the query is empty and every label is live.
	StateIdle MatchState = iota
	// StateNarrowing means a non-empty query matches at least one label
	// but no label completely.
	StateNarrowing
	// StateSelected means exactly one label is live and the query equals
	// its full length. Terminal.
	StateSelected
	// StateCancelled means the session was aborted. Terminal.
	StateCancelled
	// StateExhausted is reported when a keystroke would empty the live
	// set. The offending keystroke is dropped and the matcher stays at
	// its previous query, so the state is recoverable.
	StateExhausted
)

func (s MatchState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateNarrowing:
		return "narrowing"
	case StateSelected:
		return "selected"
	case StateCancelled:
		return "cancelled"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Matcher narrows a prefix-free label set one keystroke at a time.
// The live subset is always exactly {labels starting with query}; it
// shrinks monotonically as the query grows and only resets through
// Backspace or Cancel.
type Matcher struct {
	labels    []string // lowercase
	query     string
	live      []int
	selected  int
	cancelled bool
}

// NewMatcher builds a matcher over the session's labels. Matching is
// case-insensitive; labels are normalized to lowercase once.
func NewMatcher(labels []string) *Matcher {
	normalized := make([]string, len(labels))
	live := make([]int, len(labels))
	for i, l := range labels {
		normalized[i] = strings.ToLower(l)
		live[i] = i
	}
	return &Matcher{labels: normalized, live: live, selected: -1}
}

// Type consumes one keystroke and returns the resulting state. A
// keystroke that would leave no live label returns StateExhausted and
// leaves the query untouched.
func (m *Matcher) Type(key string) MatchState {
	if m.cancelled || m.selected >= 0 {
		return m.State()
	}
	next := m.query + strings.ToLower(key)
	live := m.filter(next)
	if len(live) == 0 {
		return StateExhausted
	}
	m.query = next
	m.live = live

	// Selection requires exact length, not mere uniqueness: with a
	// variable-length label policy a unique proper prefix must not
	// preempt the user mid-label.
	if len(live) == 1 && len(m.query) == len(m.labels[live[0]]) {
		m.selected = live[0]
		return StateSelected
	}
	return StateNarrowing
}

// Backspace removes the last query character and recomputes the live set.
func (m *Matcher) Backspace() MatchState {
	if m.cancelled || m.selected >= 0 {
		return m.State()
	}
	if len(m.query) > 0 {
		m.query = m.query[:len(m.query)-1]
		m.live = m.filter(m.query)
	}
	return m.State()
}

// Cancel forces the terminal cancelled state.
func (m *Matcher) Cancel() MatchState {
	if m.selected < 0 {
		m.cancelled = true
	}
	return m.State()
}

// State returns the current state without consuming input.
func (m *Matcher) State() MatchState {
	switch {
	case m.cancelled:
		return StateCancelled
	case m.selected >= 0:
		return StateSelected
	case m.query == "":
		return StateIdle
	default:
		return StateNarrowing
	}
}

// Query returns the typed characters so far.
func (m *Matcher) Query() string { return m.query }

// Live returns the indices of labels still consistent with the query.
func (m *Matcher) Live() []int { return m.live }

// Selected returns the selected label index, or -1.
func (m *Matcher) Selected() int { return m.selected }

func (m *Matcher) filter(query string) []int {
	var live []int
	for i, l := range m.labels {
		if strings.HasPrefix(l, query) {
			live = append(live, i)
		}
	}
	return live
}
