package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cssvb94/vectorlitedb/pkg/engine"
	"github.com/cssvb94/vectorlitedb/pkg/knowledge"
	"github.com/cssvb94/vectorlitedb/pkg/vlerr"
)

func newTestStore(t *testing.T) *StoreCore {
	t.Helper()
	sc, err := New(Options{Dimensions: 3})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Close() })
	return sc
}

func TestAddAssignsIDAndTimestamps(t *testing.T) {
	sc := newTestStore(t)
	e := &knowledge.KnowledgeEntry{Content: "hello", Embedding: []float32{1, 0, 0}}
	require.NoError(t, sc.Add(e))
	assert.False(t, e.ID.Empty())
	assert.False(t, e.CreatedAt.IsZero())
	assert.Equal(t, e.CreatedAt, e.UpdatedAt)
}

func TestAddIdempotentPreservesCreatedAt(t *testing.T) {
	sc := newTestStore(t)
	e := &knowledge.KnowledgeEntry{ID: "fixed", Content: "v1", Embedding: []float32{1, 0, 0}}
	require.NoError(t, sc.Add(e))
	createdAt := e.CreatedAt

	e2 := &knowledge.KnowledgeEntry{ID: "fixed", Content: "v2", Embedding: []float32{1, 0, 0}}
	require.NoError(t, sc.Add(e2))
	assert.Equal(t, createdAt, e2.CreatedAt)
	assert.True(t, e2.UpdatedAt.Equal(e2.CreatedAt) || e2.UpdatedAt.After(e2.CreatedAt))

	st, err := sc.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 1, st.TotalEntries)
}

func TestReciprocalRelationMaintenance(t *testing.T) {
	sc := newTestStore(t)
	a := &knowledge.KnowledgeEntry{ID: "a", Embedding: []float32{1, 0, 0}}
	b := &knowledge.KnowledgeEntry{ID: "b", Embedding: []float32{0, 1, 0}}
	require.NoError(t, sc.Add(a))
	require.NoError(t, sc.Add(b))

	a2 := &knowledge.KnowledgeEntry{
		ID:        "a",
		Embedding: []float32{1, 0, 0},
		Relations: []knowledge.Relation{{TargetID: "b", Weight: 1.0, Type: "related_to"}},
	}
	require.NoError(t, sc.Add(a2))

	target, ok, err := sc.docs.Get("b")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, target.Relations, 1)
	assert.Equal(t, knowledge.ID("a"), target.Relations[0].TargetID)
	assert.Equal(t, "related_to", target.Relations[0].Type)
}

func TestMarkForDeletionIsIdempotentAndHidesFromSearch(t *testing.T) {
	sc := newTestStore(t)
	e := &knowledge.KnowledgeEntry{ID: "a", Embedding: []float32{1, 0, 0}}
	require.NoError(t, sc.Add(e))

	require.NoError(t, sc.MarkForDeletion("a"))
	require.NoError(t, sc.MarkForDeletion("a"))
	assert.Equal(t, 1, sc.GetDeletedCount())

	results, err := sc.Search(context.Background(), engine.DefaultRequest([]float32{1, 0, 0}))
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRebuildPreservesTombstones(t *testing.T) {
	sc := newTestStore(t)
	e := &knowledge.KnowledgeEntry{ID: "a", Embedding: []float32{1, 0, 0}}
	require.NoError(t, sc.Add(e))
	require.NoError(t, sc.MarkForDeletion("a"))

	require.NoError(t, sc.RebuildIndex())

	assert.Equal(t, 1, sc.GetDeletedCount())
	st, err := sc.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 0, st.HnswIndexSize)
}

func TestShouldRebuildThreshold(t *testing.T) {
	sc := newTestStore(t)
	for i := 0; i < 20; i++ {
		e := &knowledge.KnowledgeEntry{Embedding: []float32{1, 0, 0}}
		require.NoError(t, sc.Add(e))
	}
	all, err := sc.docs.All()
	require.NoError(t, err)
	for i, e := range all {
		if i >= 3 {
			break
		}
		require.NoError(t, sc.MarkForDeletion(e.ID))
	}
	assert.True(t, sc.ShouldRebuild())

	require.NoError(t, sc.ClearDeletedFlags())
	assert.False(t, sc.ShouldRebuild())
	assert.Equal(t, 0, sc.GetDeletedCount())
}

func TestPurgeDeletedRemovesFromStore(t *testing.T) {
	sc := newTestStore(t)
	e := &knowledge.KnowledgeEntry{ID: "a", Embedding: []float32{1, 0, 0}}
	require.NoError(t, sc.Add(e))
	require.NoError(t, sc.MarkForDeletion("a"))
	require.NoError(t, sc.PurgeDeleted())

	_, ok, err := sc.docs.Get("a")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, sc.GetDeletedCount())
}

func TestImportExportJSONRoundTrip(t *testing.T) {
	sc := newTestStore(t)
	e := &knowledge.KnowledgeEntry{ID: "a", Content: "hello", Embedding: []float32{1, 0, 0}, Tags: []string{"AI/ML"}}
	require.NoError(t, sc.Add(e))

	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, sc.ExportJSON(path))

	sc2 := newTestStore(t)
	require.NoError(t, sc2.ImportJSON(path))

	got, ok, err := sc2.docs.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello", got.Content)
	assert.Equal(t, []string{"AI/ML"}, got.Tags)
}

func TestImportJSONMissingFile(t *testing.T) {
	sc := newTestStore(t)
	err := sc.ImportJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, vlerr.ErrNotFound)
}

func TestAddClampsOutOfRangeRelationWeight(t *testing.T) {
	sc := newTestStore(t)
	a := &knowledge.KnowledgeEntry{ID: "a", Embedding: []float32{1, 0, 0}}
	b := &knowledge.KnowledgeEntry{
		ID:        "b",
		Embedding: []float32{0, 1, 0},
		Relations: []knowledge.Relation{{TargetID: "a", Weight: 999, Type: "related_to"}},
	}
	require.NoError(t, sc.Add(a))
	require.NoError(t, sc.Add(b))

	assert.Equal(t, 2.0, b.Relations[0].Weight)
}

func TestAddRejectsInvalidMetadataValue(t *testing.T) {
	sc := newTestStore(t)
	e := &knowledge.KnowledgeEntry{
		ID:        "a",
		Embedding: []float32{1, 0, 0},
		Metadata:  knowledge.Metadata{"owner": map[string]any{"nested": true}},
	}
	err := sc.Add(e)
	assert.ErrorIs(t, err, vlerr.ErrInvalidArgument)
}
