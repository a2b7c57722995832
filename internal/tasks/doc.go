// Package tasks runs remote actions in the background so the interface never waits on the network.
//
// # Queue
//
// [Queue] is an unbounded FIFO. [Queue.Send] never blocks, so the input and render
// paths can hand off work while holding nothing. One goroutine receives.
//
// # Worker
//
// [Worker] drains the queue one action at a time:
//
//  1. Emit [PhaseReceived] and, if the previous call failed with an expired
//     credential, refresh it first (once).
//  2. Perform exactly one [services.Remote] call under its own timeout.
//  3. Commit the outcome in a single [state.Store] update: the pending count
//     drops, and either the result is applied or the failure is recorded
//     (toggles roll back to their confirmed value).
//  4. Enqueue follow-ups (saved-status checks, device refreshes) and notify hooks.
//
// Cancelling the context passed to [Worker.Run] stops the loop between actions;
// an in-flight call is left to finish. [Worker.Close] drains instead.
//
// # Progress Reporting
//
// Lifecycle [Event] values go to an optional channel with select/default so a
// slow consumer never stalls the worker.
//
// # Hooks
//
// [Hook] implementations run after each resolution. [Retrier] re-enqueues
// rate-limited and transient failures, spaced by a token bucket and the
// server's Retry-After.
package tasks
