package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cssvb94/vectorlitedb/pkg/knowledge"
)

func TestMemoryStoreCRUD(t *testing.T) {
	s := NewMemoryStore()
	e := &knowledge.KnowledgeEntry{ID: "a", Content: "hello"}

	require.NoError(t, s.Put(e))

	got, ok, err := s.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello", got.Content)

	all, err := s.All()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, s.Delete("a"))
	_, ok, err = s.Get("a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreGetReturnsIndependentCopy(t *testing.T) {
	s := NewMemoryStore()
	e := &knowledge.KnowledgeEntry{ID: "a", Metadata: knowledge.Metadata{"k": "v"}}
	require.NoError(t, s.Put(e))

	got, _, err := s.Get("a")
	require.NoError(t, err)
	got.Metadata["k"] = "mutated"

	got2, _, err := s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "v", got2.Metadata["k"])
}
