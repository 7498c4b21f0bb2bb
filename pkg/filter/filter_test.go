package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cssvb94/vectorlitedb/pkg/knowledge"
)

func entry(id string, meta knowledge.Metadata, tags []string) *knowledge.KnowledgeEntry {
	return &knowledge.KnowledgeEntry{ID: knowledge.ID(id), Metadata: meta, Tags: tags}
}

func TestApplyMetadata(t *testing.T) {
	entries := []*knowledge.KnowledgeEntry{
		entry("a", knowledge.Metadata{"lang": "en"}, nil),
		entry("b", knowledge.Metadata{"lang": "fr"}, nil),
		entry("c", nil, nil),
	}
	got := Apply(entries, Request{Filters: map[string]any{"lang": "en"}})
	assert.Len(t, got, 1)
	assert.Equal(t, knowledge.ID("a"), got[0].ID)
}

func TestApplyTagsExactAndPrefix(t *testing.T) {
	entries := []*knowledge.KnowledgeEntry{
		entry("a", nil, []string{"AI/ML"}),
		entry("b", nil, []string{"AI/ML/NeuralNetworks"}),
		entry("c", nil, []string{"AI/MLops"}),
		entry("d", nil, []string{"Biology"}),
	}
	got := Apply(entries, Request{TagPrefixes: []string{"AI/ML"}})
	ids := make([]string, len(got))
	for i, e := range got {
		ids[i] = string(e.ID)
	}
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}

func TestApplyExcludesDeleted(t *testing.T) {
	e := entry("a", nil, nil)
	e.IsDeleted = true
	got := Apply([]*knowledge.KnowledgeEntry{e}, Request{})
	assert.Empty(t, got)
}

func TestApplyNoFiltersIsNoop(t *testing.T) {
	entries := []*knowledge.KnowledgeEntry{entry("a", nil, nil), entry("b", nil, nil)}
	got := Apply(entries, Request{})
	assert.Len(t, got, 2)
}
