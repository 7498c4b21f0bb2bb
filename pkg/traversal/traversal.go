// Package traversal expands a seed set of search results across the
// relation graph with multiplicative decay, the way the search engine
// pulls in connected-but-not-embedding-similar entries.
package traversal

import (
	"sort"

	"github.com/cssvb94/vectorlitedb/pkg/knowledge"
	"github.com/cssvb94/vectorlitedb/pkg/result"
	"github.com/cssvb94/vectorlitedb/pkg/vector"
)

// Decay is the per-hop multiplicative similarity penalty.
const Decay = 0.95

// EntryFinder resolves an id to its entry, the same lookup the document
// store offers, without this package depending on the store directly.
type EntryFinder interface {
	Find(id knowledge.ID) (*knowledge.KnowledgeEntry, bool)
}

type queueItem struct {
	id     knowledge.ID
	depth  int
	source knowledge.ID
	path   []knowledge.ID
}

// Expand runs the breadth-first relation-graph traversal described for this
// engine: starting from seeds (each already a scored result at depth 0),
// it follows relation edges up to maxDepth hops, decaying similarity by
// Decay per hop and scaling by each edge's weight, until maxResults is
// reached or the queue drains. Dangling target ids are skipped silently.
// Results are returned sorted by descending similarity.
func Expand(store EntryFinder, query []float32, seeds []result.SearchResult, maxDepth, maxResults int) []result.SearchResult {
	visited := make(map[knowledge.ID]bool, len(seeds))
	results := make(map[knowledge.ID]result.SearchResult, len(seeds))
	order := make([]knowledge.ID, 0, len(seeds))

	queue := make([]queueItem, 0, len(seeds))
	for _, s := range seeds {
		id := s.Entry.ID
		visited[id] = true
		results[id] = s
		order = append(order, id)
		queue = append(queue, queueItem{id: id, depth: 0, path: []knowledge.ID{id}})
	}

	for len(queue) > 0 && len(results) < maxResults {
		item := queue[0]
		queue = queue[1:]

		if item.depth >= maxDepth {
			continue
		}

		cur, ok := store.Find(item.id)
		if !ok {
			continue
		}

		for _, rel := range cur.Relations {
			t := rel.TargetID
			if visited[t] {
				continue
			}
			visited[t] = true

			tgt, ok := store.Find(t)
			if !ok {
				continue
			}

			var sim float64
			if tgt.HasEmbedding() {
				sim = vector.CosineSimilarity(query, tgt.Embedding) * pow(Decay, item.depth+1) * rel.Weight
				if sim < 0 {
					sim = 0
				}
			}

			source := item.source
			if source == "" {
				source = item.id
			}

			path := append(append([]knowledge.ID(nil), item.path...), t)

			if _, exists := results[t]; !exists {
				order = append(order, t)
			}
			results[t] = result.SearchResult{
				Entry:          tgt,
				Similarity:     sim,
				TraversalDepth: item.depth + 1,
				SourceEntryID:  source,
				RelationPath:   path,
			}

			queue = append(queue, queueItem{id: t, depth: item.depth + 1, source: item.id, path: path})

			if len(results) >= maxResults {
				break
			}
		}
	}

	out := make([]result.SearchResult, 0, len(order))
	for _, id := range order {
		out = append(out, results[id])
	}
	sortDescBySimilarity(out)
	return out
}

func pow(base float64, exp int) float64 {
	p := 1.0
	for i := 0; i < exp; i++ {
		p *= base
	}
	return p
}

func sortDescBySimilarity(rs []result.SearchResult) {
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].Similarity > rs[j].Similarity })
}
