// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks through one card export:
//  1. [AuthView] : session banner; log in through the browser when needed
//  2. [PlaylistListView] : browse the user's playlists
//  3. [ThemeView] : pick a preset theme or Auto
//  4. [ExportView] : progress while the card is written
//  5. [ResultView] : path of the written card
//
// The (view) [Model] implements the Init/Update/View pattern, receiving messages via the [Msg] union type.
// Asynchronous results carry the sequence number of the view that requested them; results for a view the
// user has already left are dropped.
//
// Session changes arrive from the auth manager's subscription channel, so a logout or a failed refresh sends
// the user back to the banner from any view.
package ui
