// Package card turns a Yoto playlist into a shareable card.
//
// [Build] assembles the view model (title, author, tracks, duration, theme) from a [models.Card].
// An [Exporter] renders it as PNG, HTML, Markdown, plain text or JSON and writes the file as
// yotoshare-<slug>.<ext>, recording each write through an [ExportRecorder].
//
// Themes are fixed presets with a two-stop gradient, plus [AutoThemeName], which derives the
// accent from the cover art through a [PaletteExtractor].
package card
