// Package router provides ShardRouter: hash-routed writes and
// fan-out-then-merge reads across a fixed set of independent StoreCores.
package router

import (
	"context"
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/cssvb94/vectorlitedb/pkg/ann"
	"github.com/cssvb94/vectorlitedb/pkg/engine"
	"github.com/cssvb94/vectorlitedb/pkg/knowledge"
	"github.com/cssvb94/vectorlitedb/pkg/result"
	"github.com/cssvb94/vectorlitedb/pkg/stats"
	"github.com/cssvb94/vectorlitedb/pkg/store"
)

// ShardRouter owns N independent StoreCores, each with its own document
// store and ANN index, and routes writes by a stable hash of the entry id.
// It holds no mutable state beyond its shard references.
type ShardRouter struct {
	shards []*store.StoreCore
}

// Options configures shard construction.
type Options struct {
	ShardCount int
	BasePath   string // shards live at "{BasePath}_{i}.db"; empty means in-memory
	Password   string
	Dimensions int
	ANNConfig  ann.Config
}

// New opens ShardCount independent shards rooted at BasePath.
func New(opts Options) (*ShardRouter, error) {
	if opts.ShardCount <= 0 {
		return nil, fmt.Errorf("router: shard count must be positive")
	}

	shards := make([]*store.StoreCore, 0, opts.ShardCount)
	for i := 0; i < opts.ShardCount; i++ {
		conn := ""
		if opts.BasePath != "" {
			conn = fmt.Sprintf("%s_%d.db", opts.BasePath, i)
		}
		sc, err := store.New(store.Options{
			ConnectionString: conn,
			Password:         opts.Password,
			Dimensions:       opts.Dimensions,
			ANNConfig:        opts.ANNConfig,
		})
		if err != nil {
			for _, opened := range shards {
				_ = opened.Close()
			}
			return nil, err
		}
		shards = append(shards, sc)
	}

	return &ShardRouter{shards: shards}, nil
}

// Close releases every shard, in order.
func (r *ShardRouter) Close() error {
	var firstErr error
	for _, sc := range r.shards {
		if err := sc.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ShardCount returns N.
func (r *ShardRouter) ShardCount() int {
	return len(r.shards)
}

// shardOf hashes id's UTF-8 bytes with xxhash, keeps the low 32 bits, and
// reduces mod N.
func shardOf(id knowledge.ID, n int) int {
	return int(uint32(xxhash.Sum64String(string(id))) % uint32(n))
}

// Add assigns id (if absent) then routes the entry to its shard.
func (r *ShardRouter) Add(entry *knowledge.KnowledgeEntry) error {
	if entry.ID.Empty() {
		entry.ID = knowledge.NewID()
	}
	shard := r.shards[shardOf(entry.ID, len(r.shards))]
	return shard.Add(entry)
}

// MarkForDeletion routes a soft-delete to the shard that owns id.
func (r *ShardRouter) MarkForDeletion(id knowledge.ID) error {
	return r.shards[shardOf(id, len(r.shards))].MarkForDeletion(id)
}

// Search fans the same request out to every shard in parallel, merges the
// results, reranks by similarity, and truncates to req.K. Traversal is
// local to each shard; there are no cross-shard relation edges.
func (r *ShardRouter) Search(ctx context.Context, req engine.Request) ([]result.SearchResult, error) {
	perShard := make([][]result.SearchResult, len(r.shards))

	g, gctx := errgroup.WithContext(ctx)
	for i, shard := range r.shards {
		i, shard := i, shard
		g.Go(func() error {
			res, err := shard.Search(gctx, req)
			if err != nil {
				return err
			}
			perShard[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]result.SearchResult, 0, req.K*len(r.shards))
	for _, res := range perShard {
		merged = append(merged, res...)
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Similarity > merged[j].Similarity })
	if len(merged) > req.K {
		merged = merged[:req.K]
	}
	return merged, nil
}

// ImportJSON loads entries into shard 0. Only meaningful for a
// single-shard router: a multi-shard export/import round trip would need
// to re-route every entry by id, which a plain file copy does not do.
func (r *ShardRouter) ImportJSON(path string) error {
	return r.shards[0].ImportJSON(path)
}

// ExportJSON dumps shard 0's entries. See ImportJSON for the single-shard
// caveat.
func (r *ShardRouter) ExportJSON(path string) error {
	return r.shards[0].ExportJSON(path)
}

// RebuildIndexes rebuilds every shard whose ShouldRebuild reports true,
// or every shard unconditionally when force is set. It returns the number
// of shards actually rebuilt.
func (r *ShardRouter) RebuildIndexes(force bool) (int, error) {
	rebuilt := 0
	for _, sc := range r.shards {
		if !force && !sc.ShouldRebuild() {
			continue
		}
		if err := sc.RebuildIndex(); err != nil {
			return rebuilt, err
		}
		rebuilt++
	}
	return rebuilt, nil
}

// GetStats aggregates every shard's stats per stats.Merge.
func (r *ShardRouter) GetStats() (stats.VectorDbStats, error) {
	all := make([]stats.VectorDbStats, 0, len(r.shards))
	for _, shard := range r.shards {
		s, err := shard.GetStats()
		if err != nil {
			return stats.VectorDbStats{}, err
		}
		all = append(all, s)
	}
	return stats.Merge(all), nil
}
