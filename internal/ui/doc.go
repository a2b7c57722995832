// Package ui implements the render loop as a bubbletea program.
//
// The [Model] holds no application data. A tick message arrives every
// [Schedule.Tick]; each tick advances the displayed play position between
// confirmed reports, enqueues due refreshes (playback, devices, credentials)
// and redraws from a fresh [state.Store] snapshot.
//
// Keys go through [dispatch.Dispatcher]: its mutation is applied to the store
// first, then its action is enqueued, so a keypress shows on the very next frame
// regardless of network latency. q and ctrl+c quit; c copies the playing track's
// URL to the clipboard.
//
// [Renderer.Render] is a pure function of a snapshot and the terminal size,
// styled with lipgloss and the bubbles help and progress components.
package ui
