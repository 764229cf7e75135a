// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for library curation:
//  1. [CollectionListView] : Browse playlists and the liked-songs library
//  2. [ReviewView] : Step through tracks one at a time, keeping or discarding each
//  3. [SummaryView] : Recap kept and discarded tracks for the session
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// The review view is a thin shell over [review.Engine]: every decision dispatches
// a command and the engine owns ordering, persistence and refill. A one-second
// tick repaints the view so tracks appended by a background refill show up
// without a keypress.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
