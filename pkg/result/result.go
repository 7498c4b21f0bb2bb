// Package result defines the SearchResult shape shared by vector search,
// relation traversal, and the shard router's merge step. It exists on its
// own so none of those packages need to import each other just to agree on
// what a scored match looks like.
package result

import "github.com/cssvb94/vectorlitedb/pkg/knowledge"

// SearchResult is one scored match returned from a search pipeline.
type SearchResult struct {
	Entry          *knowledge.KnowledgeEntry
	Similarity     float64
	TraversalDepth int
	SourceEntryID  knowledge.ID
	RelationPath   []knowledge.ID
}
