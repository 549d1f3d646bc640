// Package models defines the domain entities reconciled between a headset and a PC.
//
// The package contains two categories of types:
//
// 1. Sync entities: read fresh from each side at the start of a session
//   - [Side] : which store an entity lives on (local PC or remote headset)
//   - [PlayerProfile] : one local player's favorites, carried with its owning document
//   - [PlaylistRecord] : one playlist document, matched across sides by title
//   - [Decision] : the user's answer to a divergence prompt
//
// 2. Persistent entities: rows in the local sqlite database
//   - [Snapshot] : document bytes saved before a sync overwrote or removed them
//   - [Session] : one sync run with its outcome and decision summary
package models
