// Package models defines the domain entities shared across yotoshare.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): structs decoded from the Yoto API
//   - [Card] : a "Make Your Own" playlist with metadata and chapters
//   - [Chapter], [ChapterTrack] : playlist content as returned by the API
//   - [TokenResponse] : the OAuth token endpoint payload
//   - [UserProfile] : the authenticated account
//
// 2. Persistent Entities: database-backed records
//   - [ExportRecord] : one generated card file, kept for history
//
// Persistent entities implement [Model] and are stored through a [Repository].
//
// [TotalDuration] and [ExtractTracks] derive the values shown on a generated card.
package models
