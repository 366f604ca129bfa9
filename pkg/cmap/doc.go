// Package cmap provides a concurrent-safe sharded map.
//
// Keys are spread across a power-of-two number of shards, each guarded by
// its own RWMutex, so readers and writers of different keys rarely contend.
//
//	m := cmap.New[int64, *domain.Todo]()
//	m.Set(1, todo)
//	val, ok := m.Get(1)
//
// UpdateIfPresent runs a read-modify-write under the shard lock, which is
// what the in-memory todo store uses for toggles and patches.
package cmap
