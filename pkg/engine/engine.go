// Package engine implements the search pipeline: normalize, filter,
// vector search (brute-force or HNSW), relation traversal, rerank.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cssvb94/vectorlitedb/pkg/ann"
	"github.com/cssvb94/vectorlitedb/pkg/docstore"
	"github.com/cssvb94/vectorlitedb/pkg/filter"
	"github.com/cssvb94/vectorlitedb/pkg/knowledge"
	"github.com/cssvb94/vectorlitedb/pkg/pool"
	"github.com/cssvb94/vectorlitedb/pkg/result"
	"github.com/cssvb94/vectorlitedb/pkg/traversal"
	"github.com/cssvb94/vectorlitedb/pkg/vector"
	"github.com/cssvb94/vectorlitedb/pkg/vlerr"
)

// exactMatchThreshold is the near-duplicate cutoff use_exact applies in
// brute-force mode. Kept as documented, surprising, source behavior: a
// "use exact" knob that filters to near-duplicates rather than simply
// computing exact cosine similarity over all candidates. See the design
// notes for why this is flagged rather than redefined.
const exactMatchThreshold = 0.999

// hnswFallbackThreshold is the candidate/index-size floor below which
// brute-force search is used even when use_exact is false: HNSW's
// approximation only pays off once the graph is large enough to matter.
const hnswFallbackThreshold = 1000

// Request is a single search query against one StoreCore.
type Request struct {
	Query               []float32
	K                    int
	TraversalDepth       int
	Filters              map[string]any
	Tags                 []string
	TagPrefixes          []string
	UseExact             bool
	EfSearch             int
	MaxTraversalResults  int
	MaxDepth             int
	AutoNormalize        bool
}

// DefaultRequest returns a Request with the spec's documented defaults
// applied, for callers that only set Query and K.
func DefaultRequest(query []float32) Request {
	return Request{
		Query:               query,
		K:                   10,
		MaxTraversalResults: 1000,
		MaxDepth:            5,
		EfSearch:            400,
		AutoNormalize:       true,
	}
}

// SearchEngine runs the search pipeline over one shard's document store and
// HNSW index.
type SearchEngine struct {
	store docstore.DocumentStore
	index *ann.HnswIndex

	totalSearches     uint64
	totalSearchTimeMs int64
}

// New creates a SearchEngine over the given document store and ANN index.
func New(store docstore.DocumentStore, index *ann.HnswIndex) *SearchEngine {
	return &SearchEngine{store: store, index: index}
}

// SetIndex swaps the engine's underlying ANN index, used after a rebuild
// replaces the index wholesale. Search counters are unaffected.
func (s *SearchEngine) SetIndex(index *ann.HnswIndex) {
	s.index = index
}

// TotalSearches returns the number of searches that completed without
// cancellation.
func (s *SearchEngine) TotalSearches() uint64 { return s.totalSearches }

// TotalSearchTimeMs returns the cumulative wall time, in milliseconds, of
// every completed search.
func (s *SearchEngine) TotalSearchTimeMs() int64 { return s.totalSearchTimeMs }

// Search runs the full pipeline and returns results sorted by descending
// similarity, truncated to req.K.
func (s *SearchEngine) Search(ctx context.Context, req Request) ([]result.SearchResult, error) {
	if len(req.Query) == 0 {
		return nil, fmt.Errorf("query vector must be non-empty: %w", vlerr.ErrInvalidArgument)
	}
	if req.K < 0 {
		return nil, fmt.Errorf("k must be non-negative: %w", vlerr.ErrInvalidArgument)
	}
	if dims := s.index.Dimensions(); dims > 0 && len(req.Query) != dims {
		return nil, fmt.Errorf("query vector has %d dimensions, want %d: %w", len(req.Query), dims, vlerr.ErrInvalidArgument)
	}

	start := time.Now()

	query := req.Query
	if req.AutoNormalize {
		if norm := vector.Norm(query); norm > 0 {
			scratch := pool.GetVector()
			defer pool.PutVector(scratch)
			query = vector.NormalizeInto(scratch, query)
		}
	}

	all, err := s.store.All()
	if err != nil {
		return nil, fmt.Errorf("full scan failed: %w", vlerr.ErrStoreFailure)
	}
	candidates := filter.Apply(all, filter.Request{Filters: req.Filters, Tags: req.Tags, TagPrefixes: req.TagPrefixes})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kPrime := req.K * (req.TraversalDepth + 1)
	if kPrime <= 0 {
		kPrime = req.K
	}

	var seeds []result.SearchResult
	if req.UseExact || len(candidates) < hnswFallbackThreshold || s.index.Count() < hnswFallbackThreshold {
		seeds = bruteForce(query, candidates, kPrime, req.UseExact)
	} else {
		seeds, err = s.hnswSearch(ctx, query, candidates, kPrime, req.EfSearch)
		if err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	expanded := seeds
	if req.TraversalDepth > 0 {
		maxResults := req.MaxTraversalResults
		if maxResults <= 0 {
			maxResults = 1000
		}
		maxDepth := req.MaxDepth
		if maxDepth <= 0 {
			maxDepth = 5
		}
		expanded = traversal.Expand(docstore.Finder{Store: s.store}, query, seeds, maxDepth, maxResults)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(expanded, func(i, j int) bool { return expanded[i].Similarity > expanded[j].Similarity })
	if len(expanded) > req.K {
		expanded = expanded[:req.K]
	}

	s.totalSearches++
	s.totalSearchTimeMs += time.Since(start).Milliseconds()

	return expanded, nil
}

func bruteForce(query []float32, candidates []*knowledge.KnowledgeEntry, k int, useExact bool) []result.SearchResult {
	scored := pool.GetResultSlice()
	for _, e := range candidates {
		if !e.HasEmbedding() {
			continue
		}
		sim := vector.CosineSimilarity(query, e.Embedding)
		if useExact && sim < exactMatchThreshold {
			continue
		}
		scored = append(scored, result.SearchResult{Entry: e, Similarity: sim, RelationPath: []knowledge.ID{e.ID}})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Similarity > scored[j].Similarity })
	if len(scored) > k {
		scored = scored[:k]
	}
	// Copy out before returning the backing slice to the pool: callers may
	// hold onto this result past the next bruteForce call.
	out := make([]result.SearchResult, len(scored))
	copy(out, scored)
	pool.PutResultSlice(scored)
	return out
}

func (s *SearchEngine) hnswSearch(ctx context.Context, query []float32, candidates []*knowledge.KnowledgeEntry, k, efSearch int) ([]result.SearchResult, error) {
	candidateSet := make(map[knowledge.ID]*knowledge.KnowledgeEntry, len(candidates))
	for _, e := range candidates {
		candidateSet[e.ID] = e
	}

	hits, err := s.index.Query(ctx, query, k, efSearch)
	if err != nil {
		if errors.Is(err, ann.ErrDimensionMismatch) {
			return nil, fmt.Errorf("%w: %w", vlerr.ErrInvalidArgument, err)
		}
		return nil, err
	}

	out := make([]result.SearchResult, 0, len(hits))
	for _, h := range hits {
		e, ok := candidateSet[h.ID]
		if !ok {
			continue
		}
		out = append(out, result.SearchResult{
			Entry:        e,
			Similarity:   1 - h.Distance,
			RelationPath: []knowledge.ID{e.ID},
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	return out, nil
}
