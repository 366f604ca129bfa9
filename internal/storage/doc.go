// Package storage provides the todo storage engines.
//
//   - memory: a pkg/cmap sharded map, the default
//   - badger: an embedded Badger v3 database under DataDir
//
// Open picks the engine from Config. The badger engine stores each todo as
// JSON under todo/<big-endian id>, allocates IDs from a badger.Sequence, runs
// value-log GC on a timer and publishes its on-disk size as gauges.
package storage
