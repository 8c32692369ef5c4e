package frontend

import "sync"

const (
	labelIdle    = "Generate AI-Signed Image"
	labelPending = "Generating..."
)

// FlowState is the state of one embed flow
type FlowState int

const (
	Idle FlowState = iota
	Submitting
	Succeeded
	Failed
)

func (s FlowState) String() string {
	switch s {
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// flowTracker follows embed flows per session and profile. Succeeded and Failed
// settle back to Idle once the response is rendered.
type flowTracker struct {
	mu     sync.Mutex
	states map[string]FlowState
}

func newFlowTracker() *flowTracker {
	return &flowTracker{states: make(map[string]FlowState)}
}

// Begin moves key to Submitting. A guarded flow that is already submitting is
// refused.
func (t *flowTracker) Begin(key string, guard bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if guard && t.states[key] == Submitting {
		return false
	}
	t.states[key] = Submitting
	return true
}

// Finish records the outcome and returns the settled state.
func (t *flowTracker) Finish(key string, succeeded bool) FlowState {
	outcome := Failed
	if succeeded {
		outcome = Succeeded
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.states, key)
	return outcome
}

func (t *flowTracker) State(key string) FlowState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.states[key]
}

type buttonView struct {
	Label    string
	Disabled bool
	OOB      bool
}

func buttonFor(state FlowState, oob bool) buttonView {
	if state == Submitting {
		return buttonView{Label: labelPending, Disabled: true, OOB: oob}
	}
	return buttonView{Label: labelIdle, OOB: oob}
}
