// Package docstore defines the DocumentStore abstraction StoreCore builds
// on: primary-key CRUD plus a full scan over KnowledgeEntry records. Two
// implementations are provided — an in-memory map for tests and small
// deployments, and a BadgerDB-backed store for durable, disk-resident
// shards.
package docstore

import "github.com/cssvb94/vectorlitedb/pkg/knowledge"

// DocumentStore is the persistence boundary a StoreCore delegates to.
// Implementations own their own concurrency; callers may call Get/Put from
// multiple goroutines without external locking.
type DocumentStore interface {
	// Get returns the entry for id, or ok=false if it is absent.
	Get(id knowledge.ID) (entry *knowledge.KnowledgeEntry, ok bool, err error)
	// Put upserts an entry.
	Put(entry *knowledge.KnowledgeEntry) error
	// Delete hard-deletes an entry by id. Absent ids are not an error.
	Delete(id knowledge.ID) error
	// All returns every stored entry, including soft-deleted ones; callers
	// filter as needed. Order is not guaranteed beyond being stable for an
	// unchanged store.
	All() ([]*knowledge.KnowledgeEntry, error)
	// Close releases any underlying resources (file handles, etc).
	Close() error
}

// Finder adapts a DocumentStore to traversal.EntryFinder, dropping the error
// return since traversal treats any lookup failure as a dangling reference.
type Finder struct {
	Store DocumentStore
}

// Find implements traversal.EntryFinder.
func (f Finder) Find(id knowledge.ID) (*knowledge.KnowledgeEntry, bool) {
	e, ok, err := f.Store.Get(id)
	if err != nil || !ok {
		return nil, false
	}
	return e, true
}
