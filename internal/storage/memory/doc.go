// Package memory provides the in-memory todo store.
//
// Todos live in a pkg/cmap sharded map keyed by ID. Reads return copies,
// and updates run under the owning shard's lock so a toggle never loses a
// concurrent write. Contents do not survive a restart; use the badger
// engine for that.
package memory
