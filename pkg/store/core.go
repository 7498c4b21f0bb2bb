// Package store provides StoreCore, the facade over a document store, an
// ANN index, and the search engine: add/search/delete/rebuild/import/
// export/stats, with bidirectional relation maintenance on every add.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cssvb94/vectorlitedb/pkg/ann"
	"github.com/cssvb94/vectorlitedb/pkg/docstore"
	"github.com/cssvb94/vectorlitedb/pkg/engine"
	"github.com/cssvb94/vectorlitedb/pkg/knowledge"
	"github.com/cssvb94/vectorlitedb/pkg/result"
	"github.com/cssvb94/vectorlitedb/pkg/stats"
	"github.com/cssvb94/vectorlitedb/pkg/vllog"
	"github.com/cssvb94/vectorlitedb/pkg/vlerr"
)

// rebuildDeletedThreshold and rebuildDeletedFraction implement
// should_rebuild: a rebuild is due once either is exceeded.
const (
	rebuildDeletedThreshold = 1000
	rebuildDeletedFraction  = 0.1
)

// StoreCore is one shard: a document store, an ANN index over its
// embeddings, and the search pipeline that ties them together. Writers
// (Add, MarkForDeletion, RebuildIndex, PurgeDeleted) serialize on a single
// lock; ShardRouter composes several StoreCores behind hash routing.
type StoreCore struct {
	mu sync.Mutex

	docs       docstore.DocumentStore
	index      *ann.HnswIndex
	eng        *engine.SearchEngine
	annConfig  ann.Config
	dimensions int

	startTime        time.Time
	totalEntries     int
	deletedCount     int
	lastIndexRebuild *time.Time
}

// Options configures a new StoreCore.
type Options struct {
	// ConnectionString is a filesystem path for a BadgerDB-backed shard,
	// or empty for an in-memory shard.
	ConnectionString string
	// Password enables at-rest content encryption when non-empty. Only
	// meaningful for a BadgerDB-backed shard.
	Password string
	// Dimensions fixes the embedding width this shard's ANN index accepts.
	Dimensions int
	// ANNConfig overrides the HNSW tuning; the zero value uses
	// ann.DefaultConfig().
	ANNConfig ann.Config
}

// New opens or creates a StoreCore per opts.
func New(opts Options) (*StoreCore, error) {
	var docs docstore.DocumentStore
	if opts.ConnectionString == "" {
		docs = docstore.NewMemoryStore()
	} else {
		bs, err := docstore.OpenBadgerStore(opts.ConnectionString, opts.Password)
		if err != nil {
			return nil, fmt.Errorf("opening document store: %w", vlerr.ErrStoreFailure)
		}
		docs = bs
	}

	cfg := opts.ANNConfig
	if cfg.M == 0 {
		cfg = ann.DefaultConfig()
	}
	index := ann.NewHnswIndex(opts.Dimensions, cfg)

	sc := &StoreCore{
		docs:       docs,
		index:      index,
		annConfig:  cfg,
		dimensions: opts.Dimensions,
		startTime:  time.Now().UTC(),
	}
	sc.eng = engine.New(docs, index)

	existing, err := docs.All()
	if err != nil {
		_ = docs.Close()
		return nil, fmt.Errorf("scanning document store: %w", vlerr.ErrStoreFailure)
	}
	sort.Slice(existing, func(i, j int) bool { return existing[i].CreatedAt.Before(existing[j].CreatedAt) })
	for _, e := range existing {
		sc.totalEntries++
		if e.IsDeleted {
			sc.deletedCount++
		} else if e.HasEmbedding() {
			_ = index.Add(e.ID, e.Embedding)
		}
	}
	return sc, nil
}

// Close releases the underlying document store.
func (sc *StoreCore) Close() error {
	return sc.docs.Close()
}

// Add upserts entry, assigning it a fresh id if absent, and maintains
// reciprocal relation edges on its targets.
func (sc *StoreCore) Add(entry *knowledge.KnowledgeEntry) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.addLocked(entry)
}

// AddBatch upserts every entry under a single writer lock.
func (sc *StoreCore) AddBatch(entries []*knowledge.KnowledgeEntry) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	for _, e := range entries {
		if err := sc.addLocked(e); err != nil {
			return err
		}
	}
	return nil
}

func (sc *StoreCore) addLocked(entry *knowledge.KnowledgeEntry) error {
	if entry.ID.Empty() {
		entry.ID = knowledge.NewID()
	}

	if entry.Metadata != nil {
		if err := entry.Metadata.Validate(); err != nil {
			return fmt.Errorf("validating metadata for %s: %w", entry.ID, vlerr.ErrInvalidArgument)
		}
	}
	for i := range entry.Relations {
		entry.Relations[i].Weight = knowledge.ClampWeight(entry.Relations[i].Weight)
	}

	now := time.Now().UTC()
	existing, ok, err := sc.docs.Get(entry.ID)
	if err != nil {
		return fmt.Errorf("looking up %s: %w", entry.ID, vlerr.ErrStoreFailure)
	}
	if ok {
		entry.CreatedAt = existing.CreatedAt
	} else {
		entry.CreatedAt = now
		sc.totalEntries++
	}
	entry.UpdatedAt = now

	if err := sc.docs.Put(entry); err != nil {
		return fmt.Errorf("storing %s: %w", entry.ID, vlerr.ErrStoreFailure)
	}

	if entry.HasEmbedding() {
		// Re-adding an id whose embedding changed updates the HNSW node's
		// vector in place without relinking its neighbors (IndexStale: no
		// error, degraded recall until the next RebuildIndex). This is
		// intentional, not a bug.
		if err := sc.index.Add(entry.ID, entry.Embedding); err != nil {
			return err
		}
	}

	sc.maintainReciprocalEdges(entry, now)
	return nil
}

func (sc *StoreCore) maintainReciprocalEdges(entry *knowledge.KnowledgeEntry, now time.Time) {
	for _, rel := range entry.Relations {
		target, ok, err := sc.docs.Get(rel.TargetID)
		if err != nil || !ok {
			vllog.Debugf("dangling relation target %s referenced by %s", rel.TargetID, entry.ID)
			continue
		}

		hasReciprocal := false
		for _, back := range target.Relations {
			if back.TargetID == entry.ID {
				hasReciprocal = true
				break
			}
		}
		if hasReciprocal {
			continue
		}

		target.Relations = append(target.Relations, knowledge.Relation{
			TargetID:  entry.ID,
			Weight:    rel.Weight,
			Type:      knowledge.InverseType(rel.Type),
			CreatedAt: now,
		})
		target.UpdatedAt = now
		if err := sc.docs.Put(target); err != nil {
			vllog.Debugf("failed persisting reciprocal edge on %s: %v", target.ID, err)
		}
	}
}

// Search runs the search pipeline. A shard with no embedded entries yet
// returns an empty result set rather than erroring.
func (sc *StoreCore) Search(ctx context.Context, req engine.Request) ([]result.SearchResult, error) {
	sc.mu.Lock()
	eng := sc.eng
	sc.mu.Unlock()
	return eng.Search(ctx, req)
}

// MarkForDeletion soft-deletes id and tombstones it in the ANN index.
// Idempotent: deleting an absent or already-deleted id is a no-op.
func (sc *StoreCore) MarkForDeletion(id knowledge.ID) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	entry, ok, err := sc.docs.Get(id)
	if err != nil {
		return fmt.Errorf("looking up %s: %w", id, vlerr.ErrStoreFailure)
	}
	if !ok {
		return nil
	}
	if !entry.IsDeleted {
		now := time.Now().UTC()
		entry.IsDeleted = true
		entry.DeletedAt = now
		if err := sc.docs.Put(entry); err != nil {
			return fmt.Errorf("marking %s deleted: %w", id, vlerr.ErrStoreFailure)
		}
		sc.deletedCount++
	}
	sc.index.Remove(id)
	return nil
}

// ClearDeletedFlags restores every soft-deleted entry. RebuildIndex does
// not call this implicitly; see the design notes on tombstone handling.
func (sc *StoreCore) ClearDeletedFlags() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	all, err := sc.docs.All()
	if err != nil {
		return fmt.Errorf("scanning store: %w", vlerr.ErrStoreFailure)
	}
	for _, e := range all {
		if !e.IsDeleted {
			continue
		}
		e.IsDeleted = false
		e.DeletedAt = time.Time{}
		if err := sc.docs.Put(e); err != nil {
			return fmt.Errorf("restoring %s: %w", e.ID, vlerr.ErrStoreFailure)
		}
	}
	sc.deletedCount = 0
	return nil
}

// GetDeletedCount returns the number of soft-deleted entries.
func (sc *StoreCore) GetDeletedCount() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.deletedCount
}

// ShouldRebuild reports whether tombstone accumulation warrants a rebuild.
func (sc *StoreCore) ShouldRebuild() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.deletedCount > rebuildDeletedThreshold {
		return true
	}
	return sc.totalEntries > 0 && float64(sc.deletedCount) > rebuildDeletedFraction*float64(sc.totalEntries)
}

// RebuildIndex replaces the ANN index with a fresh one built from every
// live, embedded entry, in insertion order. Tombstones are preserved
// across rebuild: this does not restore soft-deleted entries (a deliberate
// deviation — see the design notes on the rebuild/soft-delete open
// question).
func (sc *StoreCore) RebuildIndex() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	all, err := sc.docs.All()
	if err != nil {
		return fmt.Errorf("scanning store: %w", vlerr.ErrStoreFailure)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })

	fresh := ann.NewHnswIndex(sc.dimensions, sc.annConfig)
	for _, e := range all {
		if e.IsDeleted || !e.HasEmbedding() {
			continue
		}
		if err := fresh.Add(e.ID, e.Embedding); err != nil {
			vllog.Debugf("skipping %s during rebuild: %v", e.ID, err)
		}
	}

	sc.index = fresh
	sc.eng.SetIndex(fresh)
	now := time.Now().UTC()
	sc.lastIndexRebuild = &now
	return nil
}

// PurgeDeleted hard-deletes every soft-deleted entry from the document
// store.
func (sc *StoreCore) PurgeDeleted() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	all, err := sc.docs.All()
	if err != nil {
		return fmt.Errorf("scanning store: %w", vlerr.ErrStoreFailure)
	}
	purged := 0
	for _, e := range all {
		if !e.IsDeleted {
			continue
		}
		if err := sc.docs.Delete(e.ID); err != nil {
			return fmt.Errorf("purging %s: %w", e.ID, vlerr.ErrStoreFailure)
		}
		purged++
	}
	sc.totalEntries -= purged
	sc.deletedCount = 0
	return nil
}

// GetStats snapshots this shard's counters.
func (sc *StoreCore) GetStats() (stats.VectorDbStats, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	all, err := sc.docs.All()
	if err != nil {
		return stats.VectorDbStats{}, fmt.Errorf("scanning store: %w", vlerr.ErrStoreFailure)
	}

	categoryCounts := map[string]int{}
	tagCounts := map[string]int{}
	samples := make([][]float32, 0, len(all))
	for _, e := range all {
		if e.IsDeleted {
			continue
		}
		if cat, ok := e.Metadata["category"]; ok {
			if s, ok := cat.(string); ok {
				categoryCounts[s]++
			}
		}
		for _, tag := range e.Tags {
			tagCounts[tag]++
		}
		if e.HasEmbedding() {
			samples = append(samples, e.Embedding)
		}
	}

	return stats.VectorDbStats{
		TotalEntries:           sc.totalEntries,
		IndexSize:              stats.PCAComponents(samples),
		HnswIndexSize:          sc.index.Count(),
		LastUpdated:            time.Now().UTC(),
		LastIndexRebuild:       sc.lastIndexRebuild,
		Uptime:                 time.Since(sc.startTime),
		TotalSearches:          sc.eng.TotalSearches(),
		AverageSearchTimeMs:    averageMs(sc.eng.TotalSearchTimeMs(), sc.eng.TotalSearches()),
		ActiveConnections:      1,
		MetadataCategoryCounts: categoryCounts,
		TagDistribution:        tagCounts,
	}, nil
}

func averageMs(totalMs int64, count uint64) float64 {
	if count == 0 {
		return 0
	}
	return float64(totalMs) / float64(count)
}
