package tasks

import (
	"github.com/desertthunder/sptx/internal/actions"
)

// Phase is a step in an action's lifecycle.
type Phase int

const (
	PhaseReceived Phase = iota
	PhaseInFlight
	PhaseApplied
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseReceived:
		return "received"
	case PhaseInFlight:
		return "in_flight"
	case PhaseApplied:
		return "applied"
	case PhaseFailed:
		return "failed"
	default:
		return ""
	}
}

// Event reports an action's transition.
//
// Used by the CLI to wait on one-shot commands and by tests to observe the worker.
type Event struct {
	Action actions.Action
	Phase  Phase
	Err    error // set for PhaseFailed
}

// Done reports whether the action has resolved.
func (e Event) Done() bool {
	return e.Phase == PhaseApplied || e.Phase == PhaseFailed
}

// Hook observes every resolved action after its state transition is committed.
// err is nil for applied actions.
type Hook interface {
	AfterAction(a actions.Action, err error)
}

// HookFunc adapts a function to [Hook].
type HookFunc func(a actions.Action, err error)

func (f HookFunc) AfterAction(a actions.Action, err error) { f(a, err) }
