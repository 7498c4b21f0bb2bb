// Package filter applies the metadata-equality and hierarchical-tag
// predicates a SearchRequest carries, independent of vector similarity.
package filter

import (
	"strings"

	"github.com/cssvb94/vectorlitedb/pkg/knowledge"
)

// Request is the subset of a search request this package cares about.
type Request struct {
	Filters     map[string]any
	Tags        []string
	TagPrefixes []string
}

// Apply returns the subset of entries satisfying every metadata filter and
// at least one tag/tag-prefix match, when either is supplied. Deleted
// entries are always excluded. Input order is preserved.
func Apply(entries []*knowledge.KnowledgeEntry, req Request) []*knowledge.KnowledgeEntry {
	out := make([]*knowledge.KnowledgeEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsDeleted {
			continue
		}
		if !matchesMetadata(e, req.Filters) {
			continue
		}
		if !matchesTags(e, req.Tags, req.TagPrefixes) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func matchesMetadata(e *knowledge.KnowledgeEntry, filters map[string]any) bool {
	for k, want := range filters {
		if e.Metadata == nil || !e.Metadata.Equal(k, want) {
			return false
		}
	}
	return true
}

func matchesTags(e *knowledge.KnowledgeEntry, tags, prefixes []string) bool {
	if len(tags) == 0 && len(prefixes) == 0 {
		return true
	}
	for _, t := range e.Tags {
		for _, want := range tags {
			if t == want {
				return true
			}
		}
		for _, p := range prefixes {
			if matchesPrefix(t, p) {
				return true
			}
		}
	}
	return false
}

// matchesPrefix reports whether tag equals prefix or is nested under it
// ("AI/ML" matches "AI/ML" and "AI/ML/NeuralNetworks" but not "AI/MLops").
func matchesPrefix(tag, prefix string) bool {
	if tag == prefix {
		return true
	}
	return strings.HasPrefix(tag, prefix+"/")
}
