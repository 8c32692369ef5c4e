package frontend

import "testing"

func TestFlowTracker(t *testing.T) {
	tracker := newFlowTracker()

	if state := tracker.State("s:hosted"); state != Idle {
		t.Fatalf("expected Idle, got %s", state)
	}
	if !tracker.Begin("s:hosted", true) {
		t.Fatal("expected first guarded Begin to succeed")
	}
	if state := tracker.State("s:hosted"); state != Submitting {
		t.Fatalf("expected Submitting, got %s", state)
	}
	if tracker.Begin("s:hosted", true) {
		t.Fatal("expected concurrent guarded Begin to be refused")
	}
	if !tracker.Begin("s:local", true) {
		t.Fatal("expected other keys to be independent")
	}
	if !tracker.Begin("s:hosted", false) {
		t.Fatal("expected unguarded Begin to always succeed")
	}

	if outcome := tracker.Finish("s:hosted", false); outcome != Failed {
		t.Errorf("expected Failed, got %s", outcome)
	}
	if state := tracker.State("s:hosted"); state != Idle {
		t.Errorf("expected Idle after Finish, got %s", state)
	}
	if outcome := tracker.Finish("s:local", true); outcome != Succeeded {
		t.Errorf("expected Succeeded, got %s", outcome)
	}
}

func TestButtonFor(t *testing.T) {
	tests := []struct {
		state    FlowState
		label    string
		disabled bool
	}{
		{state: Idle, label: labelIdle},
		{state: Submitting, label: labelPending, disabled: true},
		{state: Succeeded, label: labelIdle},
		{state: Failed, label: labelIdle},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			button := buttonFor(tt.state, true)
			if button.Label != tt.label || button.Disabled != tt.disabled || !button.OOB {
				t.Errorf("unexpected button %+v", button)
			}
		})
	}
}
