package docstore

import (
	"sort"
	"sync"

	"github.com/cssvb94/vectorlitedb/pkg/knowledge"
)

// MemoryStore is an in-process DocumentStore backed by a map. It never
// touches disk; useful for tests and for shards that do not need
// durability.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[knowledge.ID]*knowledge.KnowledgeEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[knowledge.ID]*knowledge.KnowledgeEntry)}
}

func (s *MemoryStore) Get(id knowledge.ID) (*knowledge.KnowledgeEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, false, nil
	}
	return e.Clone(), true, nil
}

func (s *MemoryStore) Put(entry *knowledge.KnowledgeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = entry.Clone()
	return nil
}

func (s *MemoryStore) Delete(id knowledge.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

func (s *MemoryStore) All() ([]*knowledge.KnowledgeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*knowledge.KnowledgeEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
