// Package stores implements the per-side adapters the sync engine reads and writes through.
//
// A [Volume] is the byte-level view of one side: [LocalVolume] wraps a go-billy filesystem,
// [RemoteVolume] wraps a [device.Transport]. On top of a volume:
//   - [ProfileStore] : read/write the first local player's favorites in PlayerData.dat
//   - [PlaylistStore] : list/add/remove .bplist playlist documents, keyed by title
//
// Both stores behave identically for either side. Writes are atomic per document and every
// document about to be overwritten or removed is handed to a [Snapshotter] first.
package stores
