// Package tasks runs sync sessions between the PC install and a headset with real-time progress reporting.
//
// # Core Operations
//
// The [SyncEngine] interface defines two operations:
//
//  1. [SyncEngine.Run] : Full two-way session
//     - Reads favorites from both PlayerData.dat documents
//     - Computes what each side holds that the other lacks ([Diff])
//     - Asks once per non-empty divergent set: copy to the other side, or delete from this one
//     - Writes each changed player document once, then repeats for playlists
//
//  2. [SyncEngine.Diff] : Read-only session
//     - Reads both sides and reports divergences without prompting or writing
//
// # Session phases
//
// A session always walks [PhaseInit], [PhaseFavorites], [PhasePlaylists], [PhaseClosed].
// The device is checked for readiness before Init; the transport opened in Init is closed on
// the way to Closed whatever happened in between.
//
// # Errors
//
// A failed category is recorded on its [CategoryReport] and the session moves on. Errors for
// which [shared.IsFatal] reports true, aborted prompts and cancellation end the session.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
