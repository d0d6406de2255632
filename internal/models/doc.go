// Package models defines the in-memory data model for resolving a playlist into downloadable sources.
//
// The package contains two categories of types:
//
// 1. Session values: produced by a search and edited by the user
//   - [SourceTrackRef] : the canonical track from the source playlist
//   - [CandidateMedia] : one proposed video match, every field optional
//   - [TrackMatch] : a source track with its ordered candidates (index 0 is the resolver's best guess)
//   - [PlaylistResult] : the playlist name and its matches, in playlist order
//   - [SelectionMap] : track id to chosen candidate index
//   - [DownloadRequest] : the ephemeral request built from a result and a selection
//   - [Archive] : the binary payload returned by the packaging service
//
// 2. Persistent Entities: database-backed records
//   - [DownloadRecord] : one saved archive in the download history
//
// Persistent entities implement the [Model] interface and are stored through a [Repository].
package models
