// Package state holds everything the screen renders, shared between the UI loop
// and the background worker.
//
// # Store
//
// [Store] guards a single [State] with a readers-writer lock:
//
//	UI tick / dispatcher:          Worker:
//	┌────────────────────┐        ┌────────────────────┐
//	│ store.Snapshot()   │        │ remote call        │
//	│ render(snapshot)   │        │      ↓             │
//	│ store.Update(mut)  │←──────→│ store.Update(fn)   │
//	└────────────────────┘ (mutex)└────────────────────┘
//
// Every transition is one Update call, so a Snapshot never sees half of it.
// Snapshot deep-copies maps and slices; the lock is never held across a
// remote call or a render.
//
// # Ledger
//
// [Ledger] tracks saved/followed status per [models.EntityRef]. An optimistic
// toggle calls [Ledger.Begin] with its request ID; the worker later calls
// [Ledger.Confirm] or [Ledger.Rollback] with the same ID. Only the latest request
// for an entity resolves the pending display state; older requests still update the
// confirmed value so the last server answer applied wins.
//
// # Playback
//
// [PlaybackState] keeps the last confirmed player report and a monotonic AsOf
// stamp. Confirmed reports issued before AsOf are discarded, so a slow poll cannot
// undo a newer optimistic change. DisplayProgress is advanced by the render loop
// between polls and is never written back into the confirmed fields.
package state
