// Package view holds the client-visible projections of tasks and comments.
// Each view owns exactly one projection: the task list is fed by a live
// subscription and replaced wholesale on every delivery, while the task
// detail thread is fetched once and mutated optimistically by its own
// writes. No other component touches a view's projection.
package view

// State tracks a view's synchronization lifecycle. Synced is re-entered on
// every subscription delivery; failed writes surface as errors without
// changing the view state.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateSynced        State = "synced"
)
