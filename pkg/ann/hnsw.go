// Package ann provides the approximate nearest neighbor index: a
// hierarchical navigable small world (HNSW) graph over cosine-normalized
// embeddings. The layout and search algorithm are adapted from the
// storage engine's own hand-rolled HNSW implementation; this version adds
// the lazy tombstone semantics, deterministic insertion-order tie-break,
// and rebuild-to-reclaim lifecycle that an append-only index needs.
package ann

import (
	"container/heap"
	"context"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/cssvb94/vectorlitedb/pkg/knowledge"
	"github.com/cssvb94/vectorlitedb/pkg/vector"
)

// Config tunes the HNSW graph's construction and search behavior.
type Config struct {
	M                int     // max neighbors per node per layer
	EfConstruction   int     // candidate list size while inserting
	EfSearchDefault  int     // candidate list size used when a query omits one
	LevelFactor      float64 // level assignment factor, normally 1/ln(M)
	ExpectedCapacity int     // initial map sizing hint, not a hard cap
	RandomSeed       int64   // seeds the node-level generator for reproducible tests
}

// DefaultConfig returns the index's default tuning, matching the values the
// store applies when a caller does not override them.
func DefaultConfig() Config {
	const m = 32
	return Config{
		M:                m,
		EfConstruction:   200,
		EfSearchDefault:  400,
		LevelFactor:      1.0 / math.Log(float64(m)),
		ExpectedCapacity: 100000,
		RandomSeed:       42,
	}
}

// Result is a single scored match from a Query call.
type Result struct {
	ID       knowledge.ID
	Distance float64
}

type node struct {
	id        knowledge.ID
	vector    []float32
	level     int
	neighbors [][]knowledge.ID
	seq       int
	deleted   bool
	mu        sync.RWMutex
}

// HnswIndex is a single append-only HNSW graph. Remove tombstones a node in
// place rather than unlinking it from the graph; tombstoned nodes are
// skipped from Query results but keep participating in graph traversal
// until Rebuild reclaims them. All exported methods are safe for concurrent
// use; the whole index is guarded by a single lock, matching the source
// engine's single-writer-at-a-time HNSW discipline.
type HnswIndex struct {
	cfg        Config
	dimensions int

	mu           sync.RWMutex
	nodes        map[knowledge.ID]*node
	entryPoint   knowledge.ID
	maxLevel     int
	rng          *rand.Rand
	seqCounter   int
	deletedCount int
}

// NewHnswIndex creates an empty index for vectors of the given dimension.
func NewHnswIndex(dimensions int, cfg Config) *HnswIndex {
	if cfg.M == 0 {
		cfg = DefaultConfig()
	}
	return &HnswIndex{
		cfg:        cfg,
		dimensions: dimensions,
		nodes:      make(map[knowledge.ID]*node, cfg.ExpectedCapacity),
		rng:        rand.New(rand.NewSource(cfg.RandomSeed)),
	}
}

// Add inserts vec under id. Re-adding an id that is already present updates
// only the (id, embedding) mapping in place: the node keeps its existing
// graph position, level, and neighbor links. Those links were chosen for
// the old embedding and are not recomputed, so recall involving this node
// is degraded until the next Rebuild — this is the index's documented
// append-only update semantics (IndexStale), not an error condition.
// Re-adding a tombstoned id clears its tombstone.
func (h *HnswIndex) Add(id knowledge.ID, vec []float32) error {
	if len(vec) != h.dimensions {
		return ErrDimensionMismatch
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	normalized := vector.Normalize(vec)

	if existing, ok := h.nodes[id]; ok {
		existing.mu.Lock()
		existing.vector = normalized
		wasDeleted := existing.deleted
		existing.deleted = false
		existing.mu.Unlock()
		if wasDeleted {
			h.deletedCount--
		}
		return nil
	}

	level := h.randomLevel()
	h.seqCounter++

	n := &node{
		id:        id,
		vector:    normalized,
		level:     level,
		neighbors: make([][]knowledge.ID, level+1),
		seq:       h.seqCounter,
	}
	for i := range n.neighbors {
		n.neighbors[i] = make([]knowledge.ID, 0, h.cfg.M)
	}

	h.nodes[id] = n

	if h.entryPoint == "" {
		h.entryPoint = id
		h.maxLevel = level
		return nil
	}

	ep := h.entryPoint
	epLevel := h.nodes[ep].level

	for l := epLevel; l > level; l-- {
		ep = h.greedyDescend(normalized, ep, l)
	}

	top := level
	if epLevel < top {
		top = epLevel
	}
	for l := top; l >= 0; l-- {
		candidates := h.searchLayer(normalized, ep, h.cfg.EfConstruction, l)
		neighbors := h.selectNeighbors(normalized, candidates, h.cfg.M)
		n.neighbors[l] = neighbors

		for _, nbID := range neighbors {
			nb := h.nodes[nbID]
			nb.mu.Lock()
			if len(nb.neighbors) > l {
				if len(nb.neighbors[l]) < h.cfg.M {
					nb.neighbors[l] = append(nb.neighbors[l], id)
				} else {
					all := append(append([]knowledge.ID(nil), nb.neighbors[l]...), id)
					nb.neighbors[l] = h.selectNeighbors(nb.vector, all, h.cfg.M)
				}
			}
			nb.mu.Unlock()
		}

		if len(candidates) > 0 {
			ep = candidates[0]
		}
	}

	if level > h.maxLevel {
		h.entryPoint = id
		h.maxLevel = level
	}

	return nil
}

// Remove tombstones id. It does not unlink the node from the graph; call
// Rebuild to physically reclaim tombstoned nodes. Removing an id that is
// absent or already tombstoned is a no-op.
func (h *HnswIndex) Remove(id knowledge.ID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n, ok := h.nodes[id]
	if !ok {
		return
	}
	n.mu.Lock()
	already := n.deleted
	n.deleted = true
	n.mu.Unlock()
	if !already {
		h.deletedCount++
	}
}

// Dimensions returns the vector width this index was constructed for.
func (h *HnswIndex) Dimensions() int {
	return h.dimensions
}

// Count returns the number of live (non-tombstoned) entries.
func (h *HnswIndex) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.nodes) - h.deletedCount
}

// DeletedCount returns the number of tombstoned entries still resident in
// the graph, used by the store to decide whether a rebuild is due.
func (h *HnswIndex) DeletedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.deletedCount
}

// Query returns up to k nearest live neighbors of query, ascending by
// distance. Ties (equal distance) break by ascending insertion order,
// making results deterministic under repeated queries against an unchanged
// index. efSearch of 0 uses the configured default.
func (h *HnswIndex) Query(ctx context.Context, query []float32, k int, efSearch int) ([]Result, error) {
	if len(query) != h.dimensions {
		return nil, ErrDimensionMismatch
	}
	if efSearch <= 0 {
		efSearch = h.cfg.EfSearchDefault
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.nodes) == 0 {
		return []Result{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	normalized := vector.Normalize(query)
	ep := h.entryPoint
	for l := h.maxLevel; l > 0; l-- {
		ep = h.greedyDescend(normalized, ep, l)
	}

	candidateIDs := h.searchLayer(normalized, ep, maxInt(efSearch, k), 0)

	type scored struct {
		id   knowledge.ID
		seq  int
		dist float64
	}
	live := make([]scored, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		n := h.nodes[id]
		n.mu.RLock()
		deleted := n.deleted
		n.mu.RUnlock()
		if deleted {
			continue
		}
		live = append(live, scored{id: id, seq: n.seq, dist: 1.0 - vector.DotProduct(normalized, n.vector)})
	}

	sort.Slice(live, func(i, j int) bool {
		if live[i].dist != live[j].dist {
			return live[i].dist < live[j].dist
		}
		return live[i].seq < live[j].seq
	})

	if len(live) > k {
		live = live[:k]
	}

	results := make([]Result, len(live))
	for i, s := range live {
		results[i] = Result{ID: s.id, Distance: s.dist}
	}
	return results, nil
}

// Rebuild discards tombstoned nodes and re-inserts every live vector into a
// fresh graph, reclaiming the space and restoring search quality that
// tombstone accumulation degrades. Rebuild does not clear entries that
// were never tombstoned; it is the only way to physically remove a
// tombstoned node from the graph.
func (h *HnswIndex) Rebuild() {
	h.mu.Lock()
	type live struct {
		id  knowledge.ID
		vec []float32
		seq int
	}
	survivors := make([]live, 0, len(h.nodes)-h.deletedCount)
	for id, n := range h.nodes {
		n.mu.RLock()
		deleted := n.deleted
		n.mu.RUnlock()
		if deleted {
			continue
		}
		survivors = append(survivors, live{id: id, vec: append([]float32(nil), n.vector...), seq: n.seq})
	}
	sort.Slice(survivors, func(i, j int) bool { return survivors[i].seq < survivors[j].seq })

	h.nodes = make(map[knowledge.ID]*node, h.cfg.ExpectedCapacity)
	h.entryPoint = ""
	h.maxLevel = 0
	h.deletedCount = 0
	h.seqCounter = 0
	h.rng = rand.New(rand.NewSource(h.cfg.RandomSeed))
	h.mu.Unlock()

	for _, s := range survivors {
		_ = h.Add(s.id, s.vec)
	}
}

func (h *HnswIndex) greedyDescend(query []float32, entry knowledge.ID, level int) knowledge.ID {
	current := entry
	currentDist := 1.0 - vector.DotProduct(query, h.nodes[current].vector)

	for {
		changed := false
		n := h.nodes[current]
		n.mu.RLock()
		neighbors := n.neighbors[level]
		n.mu.RUnlock()

		for _, nbID := range neighbors {
			nb := h.nodes[nbID]
			dist := 1.0 - vector.DotProduct(query, nb.vector)
			if dist < currentDist {
				current = nbID
				currentDist = dist
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return current
}

func (h *HnswIndex) searchLayer(query []float32, entry knowledge.ID, ef int, level int) []knowledge.ID {
	visited := map[knowledge.ID]bool{entry: true}

	candidates := &distHeap{}
	results := &distHeap{}
	heap.Init(candidates)
	heap.Init(results)

	entryDist := 1.0 - vector.DotProduct(query, h.nodes[entry].vector)
	heap.Push(candidates, distItem{id: entry, dist: entryDist, isMax: false})
	heap.Push(results, distItem{id: entry, dist: entryDist, isMax: true})

	for candidates.Len() > 0 {
		closest := heap.Pop(candidates).(distItem)

		if results.Len() >= ef {
			furthest := (*results)[0]
			if closest.dist > furthest.dist {
				break
			}
		}

		n := h.nodes[closest.id]
		n.mu.RLock()
		var neighbors []knowledge.ID
		if level < len(n.neighbors) {
			neighbors = n.neighbors[level]
		}
		n.mu.RUnlock()

		for _, nbID := range neighbors {
			if visited[nbID] {
				continue
			}
			visited[nbID] = true

			nb := h.nodes[nbID]
			dist := 1.0 - vector.DotProduct(query, nb.vector)

			if results.Len() < ef || dist < (*results)[0].dist {
				heap.Push(candidates, distItem{id: nbID, dist: dist, isMax: false})
				heap.Push(results, distItem{id: nbID, dist: dist, isMax: true})
				if results.Len() > ef {
					heap.Pop(results)
				}
			}
		}
	}

	out := make([]knowledge.ID, results.Len())
	for i := results.Len() - 1; i >= 0; i-- {
		out[i] = heap.Pop(results).(distItem).id
	}
	return out
}

func (h *HnswIndex) selectNeighbors(query []float32, candidates []knowledge.ID, m int) []knowledge.ID {
	if len(candidates) <= m {
		return candidates
	}
	type cd struct {
		id   knowledge.ID
		dist float64
	}
	dists := make([]cd, len(candidates))
	for i, id := range candidates {
		dists[i] = cd{id: id, dist: 1.0 - vector.DotProduct(query, h.nodes[id].vector)}
	}
	sort.Slice(dists, func(i, j int) bool { return dists[i].dist < dists[j].dist })

	out := make([]knowledge.ID, m)
	for i := 0; i < m; i++ {
		out[i] = dists[i].id
	}
	return out
}

func (h *HnswIndex) randomLevel() int {
	r := h.rng.Float64()
	return int(-math.Log(r) * h.cfg.LevelFactor)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

type distItem struct {
	id    knowledge.ID
	dist  float64
	isMax bool
}

type distHeap []distItem

func (dh distHeap) Len() int { return len(dh) }
func (dh distHeap) Less(i, j int) bool {
	if dh[i].isMax {
		return dh[i].dist > dh[j].dist
	}
	return dh[i].dist < dh[j].dist
}
func (dh distHeap) Swap(i, j int) { dh[i], dh[j] = dh[j], dh[i] }

func (dh *distHeap) Push(x interface{}) { *dh = append(*dh, x.(distItem)) }

func (dh *distHeap) Pop() interface{} {
	old := *dh
	n := len(old)
	x := old[n-1]
	*dh = old[0 : n-1]
	return x
}
