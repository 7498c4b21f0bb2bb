package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cssvb94/vectorlitedb/pkg/ann"
	"github.com/cssvb94/vectorlitedb/pkg/docstore"
	"github.com/cssvb94/vectorlitedb/pkg/knowledge"
	"github.com/cssvb94/vectorlitedb/pkg/vlerr"
)

func seedStore(t *testing.T) (docstore.DocumentStore, *ann.HnswIndex) {
	t.Helper()
	store := docstore.NewMemoryStore()
	index := ann.NewHnswIndex(3, ann.DefaultConfig())

	entries := []*knowledge.KnowledgeEntry{
		{ID: "a", Content: "alpha", Embedding: []float32{1, 0, 0}, Metadata: knowledge.Metadata{"category": "AI"}},
		{ID: "b", Content: "beta", Embedding: []float32{0, 1, 0}, Metadata: knowledge.Metadata{"category": "ML"}},
	}
	for _, e := range entries {
		require.NoError(t, store.Put(e))
		require.NoError(t, index.Add(e.ID, e.Embedding))
	}
	return store, index
}

func TestSearchExactSelfMatch(t *testing.T) {
	store, index := seedStore(t)
	eng := New(store, index)

	req := DefaultRequest([]float32{1, 0, 0})
	req.K = 1
	req.UseExact = true

	results, err := eng.Search(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, knowledge.ID("a"), results[0].Entry.ID)
	assert.GreaterOrEqual(t, results[0].Similarity, 0.999)
}

func TestSearchMetadataFilter(t *testing.T) {
	store, index := seedStore(t)
	eng := New(store, index)

	req := DefaultRequest([]float32{0.5, 0.5, 0})
	req.K = 10
	req.Filters = map[string]any{"category": "AI"}

	results, err := eng.Search(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, knowledge.ID("a"), results[0].Entry.ID)
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	store, index := seedStore(t)
	eng := New(store, index)

	req := DefaultRequest(nil)
	_, err := eng.Search(context.Background(), req)
	assert.ErrorIs(t, err, vlerr.ErrInvalidArgument)
}

func TestSearchRejectsDimensionMismatch(t *testing.T) {
	store, index := seedStore(t)
	eng := New(store, index)

	req := DefaultRequest([]float32{1, 0, 0, 0})
	_, err := eng.Search(context.Background(), req)
	assert.ErrorIs(t, err, vlerr.ErrInvalidArgument)
}

func TestSearchCountersAdvance(t *testing.T) {
	store, index := seedStore(t)
	eng := New(store, index)

	req := DefaultRequest([]float32{1, 0, 0})
	_, err := eng.Search(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), eng.TotalSearches())
}
