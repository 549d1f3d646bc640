// Package ui implements an interactive divergence browser using bubbletea's Elm architecture.
//
// The TUI walks through three views:
//  1. [LoadingView] : Real-time progress while both sides are read
//  2. [CategoryView] : Favorites and playlists with their divergence counts
//  3. [EntryView] : The ids or titles held by only one side
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the SyncEngine; the browser never writes to either side.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, r, q) with contextual help displayed via charmbracelet/bubbles/help.
//
// The package also exposes the console palette ([Title], [Success], [Failure], [Warning], [Hint]) used by the CLI.
package ui
