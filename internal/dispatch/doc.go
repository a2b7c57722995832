// Package dispatch turns a keystroke and a state snapshot into a [Result].
//
// A result pairs at most one action for the worker with at most one [state.Mutation]
// the caller applies immediately, before enqueueing, so the screen reflects a
// keypress on the next frame. Handlers never touch the store or the network.
//
// Global bindings (playback, save, devices, back) are tried first; the rest go to
// the handler for the active [state.ViewKind]. Unbound keys produce an empty result.
package dispatch
