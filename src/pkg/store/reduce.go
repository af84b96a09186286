package store

import "entropy/local-app/src/pkg/event"

// Reduce applies cmd to state and returns the resulting state and the events it
// raised. state itself is never modified. On error the input state is returned.
func Reduce(state State, cmd Command) (State, []event.Event, error) {
	next := state
	next.copied = false

	events, err := cmd.apply(&next)
	if err != nil {
		return state, nil, err
	}

	if _, manages := cmd.(historyCommand); !manages && next.Mindmap != state.Mindmap {
		next.record()
	}
	next.copied = false
	next.UI.IsProcessing = next.Pending > 0
	return next, events, nil
}
