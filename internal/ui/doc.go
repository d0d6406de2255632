// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI drives one [tasks.Session]:
//  1. [LinkView] : Enter a playlist link and search
//  2. [TrackListView] : Review matched tracks, remove tracks, download or export
//  3. [CandidateView] : Pick which candidate video is downloaded for a track
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Each search or download runs in its own goroutine and reports through its own progress channel, so a new search
// may start while a download is still in flight. A spinner is shown while the session is busy.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, d, x, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
