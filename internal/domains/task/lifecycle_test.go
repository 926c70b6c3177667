package task

import "testing"

func TestTransition(t *testing.T) {
	cases := []struct {
		from  TaskStatus
		event string
		want  TaskStatus
		ok    bool
	}{
		{StatusActive, EventClaim, StatusProcessing, true},
		{StatusProcessing, EventComplete, StatusCompleted, true},
		{StatusProcessing, EventReschedule, StatusActive, true},
		{StatusProcessing, EventRecover, StatusActive, true},
		{StatusProcessing, EventFail, StatusFailed, true},
		{StatusActive, EventPause, StatusPaused, true},
		{StatusPaused, EventResume, StatusActive, true},
		{StatusActive, EventCancel, StatusCancelled, true},
		{StatusPaused, EventCancel, StatusCancelled, true},
		{StatusProcessing, EventCancel, StatusCancelled, true},
		// invalid moves
		{StatusCompleted, EventClaim, StatusCompleted, false},
		{StatusFailed, EventResume, StatusFailed, false},
		{StatusCancelled, EventPause, StatusCancelled, false},
		{StatusPaused, EventClaim, StatusPaused, false},
		{StatusActive, EventComplete, StatusActive, false},
	}

	for _, tc := range cases {
		got, err := Transition(tc.from, tc.event)
		if tc.ok {
			if err != nil {
				t.Errorf("%s + %s: unexpected error %v", tc.from, tc.event, err)
				continue
			}
			if got != tc.want {
				t.Errorf("%s + %s: expected %s, got %s", tc.from, tc.event, tc.want, got)
			}
			continue
		}
		if err == nil {
			t.Errorf("%s + %s: expected error, got %s", tc.from, tc.event, got)
		}
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	for _, terminal := range []TaskStatus{StatusCompleted, StatusFailed, StatusCancelled} {
		for _, target := range []TaskStatus{StatusActive, StatusProcessing, StatusPaused, StatusCancelled} {
			if terminal == target {
				continue
			}
			if CanTransition(terminal, target) {
				t.Errorf("terminal %s must not transition to %s", terminal, target)
			}
		}
	}
}

func TestCanTransition(t *testing.T) {
	if !CanTransition(StatusActive, StatusProcessing) {
		t.Error("active -> processing should be allowed")
	}
	if !CanTransition(StatusProcessing, StatusActive) {
		t.Error("processing -> active should be allowed")
	}
	if CanTransition(StatusActive, StatusCompleted) {
		t.Error("active -> completed must pass through processing")
	}
}
