package docstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cssvb94/vectorlitedb/pkg/knowledge"
)

func TestBadgerStoreCRUD(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shard0.db")
	s, err := OpenBadgerStore(dir, "")
	require.NoError(t, err)
	defer s.Close()

	e := &knowledge.KnowledgeEntry{ID: "a", Content: "hello", Embedding: []float32{1, 2, 3}}
	require.NoError(t, s.Put(e))

	got, ok, err := s.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello", got.Content)
	assert.Equal(t, []float32{1, 2, 3}, got.Embedding)

	all, err := s.All()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, s.Delete("a"))
	_, ok, err = s.Get("a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBadgerStoreEncryptsContent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shard0.db")
	s, err := OpenBadgerStore(dir, "super-secret")
	require.NoError(t, err)
	defer s.Close()

	e := &knowledge.KnowledgeEntry{ID: "a", Content: "sensitive"}
	require.NoError(t, s.Put(e))

	got, ok, err := s.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sensitive", got.Content)
}
