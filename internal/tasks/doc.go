// Package tasks runs card generation jobs with real-time progress reporting.
//
// # Core Operations
//
// [CardEngine] offers two operations:
//
//  1. [CardEngine.Generate] : one playlist
//     - Fetches the playlist from the service
//     - Resolves the Auto theme from the cover, falling back to the default preset
//     - Builds the card and writes the export
//
//  2. [CardEngine.Bulk] : many playlists
//     - Fetches playlists under a rate limiter
//     - Renders them on a bounded pool of workers
//     - Writes export_manifest.json summarising every result
//
// # Progress Reporting
//
// Operations send [ProgressUpdate] values on an optional channel. Sends never block; updates are dropped when
// the channel is full.
package tasks
