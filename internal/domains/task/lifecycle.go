package task

import (
	"context"

	"github.com/looplab/fsm"
)

// Lifecycle event names.
const (
	EventClaim      = "claim"      // active -> processing
	EventComplete   = "complete"   // processing -> completed
	EventReschedule = "reschedule" // processing -> active (recurring, next run set)
	EventFail       = "fail"       // active/processing -> failed
	EventRecover    = "recover"    // processing -> active (stuck recovery)
	EventPause      = "pause"      // active -> paused
	EventResume     = "resume"     // paused -> active
	EventCancel     = "cancel"     // active/paused/processing -> cancelled
)

func lifecycleEvents() fsm.Events {
	return fsm.Events{
		{Name: EventClaim, Src: []string{string(StatusActive)}, Dst: string(StatusProcessing)},
		{Name: EventComplete, Src: []string{string(StatusProcessing)}, Dst: string(StatusCompleted)},
		{Name: EventReschedule, Src: []string{string(StatusProcessing)}, Dst: string(StatusActive)},
		{Name: EventFail, Src: []string{string(StatusActive), string(StatusProcessing)}, Dst: string(StatusFailed)},
		{Name: EventRecover, Src: []string{string(StatusProcessing)}, Dst: string(StatusActive)},
		{Name: EventPause, Src: []string{string(StatusActive)}, Dst: string(StatusPaused)},
		{Name: EventResume, Src: []string{string(StatusPaused)}, Dst: string(StatusActive)},
		{Name: EventCancel, Src: []string{string(StatusActive), string(StatusPaused), string(StatusProcessing)}, Dst: string(StatusCancelled)},
	}
}

// NewLifecycle builds the task state machine anchored at the given status.
func NewLifecycle(status TaskStatus) *fsm.FSM {
	return fsm.NewFSM(string(status), lifecycleEvents(), fsm.Callbacks{})
}

// CanTransition reports whether any lifecycle event moves a task from one
// status to another. Completed, failed and cancelled are terminal.
func CanTransition(from, to TaskStatus) bool {
	if from == to {
		return false
	}
	machine := NewLifecycle(from)
	for _, ev := range machine.AvailableTransitions() {
		probe := NewLifecycle(from)
		if err := probe.Event(context.Background(), ev); err != nil {
			continue
		}
		if probe.Current() == string(to) {
			return true
		}
	}
	return false
}

// Transition applies the named event to the task's status, returning the
// resulting status or ErrInvalidTransition.
func Transition(from TaskStatus, event string) (TaskStatus, error) {
	machine := NewLifecycle(from)
	if err := machine.Event(context.Background(), event); err != nil {
		return from, ErrInvalidTransition
	}
	return TaskStatus(machine.Current()), nil
}
