// Package operations runs reconciliations in the background for the HTTP
// service.
//
// Manager starts each run on its own goroutine, tracks its progress with a
// ProgressTracker and keeps a snapshot in the RunStore. Every change is
// pushed to a Publisher, normally the websocket hub. Finished runs are
// kept for the configured retention period and then evicted together with
// their uploaded files.
package operations
