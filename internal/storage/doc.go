// Package storage provides the persistent key/value layer behind the state
// stores: string keys, JSON-encoded values, whole-record writes.
//
// SQLiteKV is the production implementation (single records table, WAL
// mode); MemKV backs unit tests. Concurrent processes sharing one database
// race on writes with last-write-wins semantics and no conflict detection,
// matching the storage model this layer reproduces.
package storage
