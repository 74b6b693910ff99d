// Package models defines domain entities and persistence interfaces for the soundsift catalog tooling.
//
// The package contains two categories of types:
//
// 1. Value types used by the matching core:
//   - [Track] : An immutable catalog record; identity is the (platform, native id) pair
//   - [TrackID] : The identity pair on its own
//   - [Playlist] : An ordered playlist membership snapshot
//   - [Library] : An ordered catalog of tracks from one platform
//   - [Platform] : The closed set of supported source platforms
//
// 2. Persistent entities backed by SQLite:
//   - [PersistedTrack] : Cached tracks keyed by identity pair, with ISRC lookup
//
// Persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
