package traversal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cssvb94/vectorlitedb/pkg/knowledge"
	"github.com/cssvb94/vectorlitedb/pkg/result"
)

type memFinder map[knowledge.ID]*knowledge.KnowledgeEntry

func (m memFinder) Find(id knowledge.ID) (*knowledge.KnowledgeEntry, bool) {
	e, ok := m[id]
	return e, ok
}

func TestExpandDecaysAndTracksPath(t *testing.T) {
	seed := &knowledge.KnowledgeEntry{
		ID:        "seed",
		Embedding: []float32{1, 0},
		Relations: []knowledge.Relation{{TargetID: "child", Weight: 1.0}},
	}
	child := &knowledge.KnowledgeEntry{
		ID:        "child",
		Embedding: []float32{1, 0},
		Relations: []knowledge.Relation{{TargetID: "grandchild", Weight: 0.5}},
	}
	grandchild := &knowledge.KnowledgeEntry{
		ID:        "grandchild",
		Embedding: []float32{1, 0},
	}
	store := memFinder{"seed": seed, "child": child, "grandchild": grandchild}

	seeds := []result.SearchResult{{Entry: seed, Similarity: 1.0, RelationPath: []knowledge.ID{"seed"}}}

	out := Expand(store, []float32{1, 0}, seeds, 5, 10)
	require.Len(t, out, 3)

	byID := map[knowledge.ID]result.SearchResult{}
	for _, r := range out {
		byID[r.Entry.ID] = r
	}

	assert.InDelta(t, Decay*1.0, byID["child"].Similarity, 1e-9)
	assert.InDelta(t, Decay*Decay*0.5, byID["grandchild"].Similarity, 1e-9)
	assert.Equal(t, []knowledge.ID{"seed", "child", "grandchild"}, byID["grandchild"].RelationPath)
	assert.Equal(t, knowledge.ID("seed"), byID["grandchild"].SourceEntryID)
}

func TestExpandSkipsDanglingReferences(t *testing.T) {
	seed := &knowledge.KnowledgeEntry{
		ID:        "seed",
		Embedding: []float32{1, 0},
		Relations: []knowledge.Relation{{TargetID: "ghost", Weight: 1.0}},
	}
	store := memFinder{"seed": seed}
	seeds := []result.SearchResult{{Entry: seed, Similarity: 1.0}}

	out := Expand(store, []float32{1, 0}, seeds, 5, 10)
	require.Len(t, out, 1)
	assert.Equal(t, knowledge.ID("seed"), out[0].Entry.ID)
}

func TestExpandRespectsMaxDepth(t *testing.T) {
	seed := &knowledge.KnowledgeEntry{
		ID:        "seed",
		Embedding: []float32{1, 0},
		Relations: []knowledge.Relation{{TargetID: "child", Weight: 1.0}},
	}
	child := &knowledge.KnowledgeEntry{
		ID:        "child",
		Embedding: []float32{1, 0},
		Relations: []knowledge.Relation{{TargetID: "grandchild", Weight: 1.0}},
	}
	store := memFinder{"seed": seed, "child": child}
	seeds := []result.SearchResult{{Entry: seed, Similarity: 1.0}}

	out := Expand(store, []float32{1, 0}, seeds, 1, 10)
	require.Len(t, out, 2)
}

func TestExpandPreventsCycles(t *testing.T) {
	a := &knowledge.KnowledgeEntry{ID: "a", Embedding: []float32{1, 0}, Relations: []knowledge.Relation{{TargetID: "b", Weight: 1.0}}}
	b := &knowledge.KnowledgeEntry{ID: "b", Embedding: []float32{1, 0}, Relations: []knowledge.Relation{{TargetID: "a", Weight: 1.0}}}
	store := memFinder{"a": a, "b": b}
	seeds := []result.SearchResult{{Entry: a, Similarity: 1.0}}

	out := Expand(store, []float32{1, 0}, seeds, 10, 100)
	require.Len(t, out, 2)
}
