// Package knowledge defines the storage unit of VectorLiteDB: the
// KnowledgeEntry, its relation edges, and the closed set of metadata value
// types. Nothing in this package talks to disk, the ANN index, or the
// network — it is pure data plus the small amount of validation that keeps
// every other component honest about what a value can be.
package knowledge

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ID is a 128-bit opaque identifier, unique per shard and stable for the
// life of an entry. It is a UUIDv4 string representation.
type ID string

// NewID generates a fresh 128-bit identifier.
func NewID() ID {
	return ID(uuid.New().String())
}

// Empty reports whether the id has not been assigned yet.
func (id ID) Empty() bool {
	return id == ""
}

// Errors surfaced by the knowledge package's own validation.
var (
	ErrInvalidWeight = errors.New("knowledge: relation weight must be in [0.1, 2.0]")
	ErrInvalidValue  = errors.New("knowledge: metadata value must be string, float64, or bool")
)

// Relation is a directed edge from the entry that holds it to TargetID.
type Relation struct {
	TargetID  ID        `json:"targetId"`
	Weight    float64   `json:"weight"`
	Type      string    `json:"type,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Relation type labels with recognized inverses. Every other label
// (including the empty string) is self-inverse.
const (
	RelParentOf   = "parent_of"
	RelChildOf    = "child_of"
	RelDependsOn  = "depends_on"
	RelDependedBy = "depended_by"
)

var inverseOf = map[string]string{
	RelParentOf:   RelChildOf,
	RelChildOf:    RelParentOf,
	RelDependsOn:  RelDependedBy,
	RelDependedBy: RelDependsOn,
}

// InverseType returns the relation label's inverse. Labels outside the
// recognized set (including "") are self-inverse.
func InverseType(t string) string {
	if inv, ok := inverseOf[t]; ok {
		return inv
	}
	return t
}

// ClampWeight clamps a relation weight into the legal [0.1, 2.0] range,
// matching the spec's invariant without rejecting slightly-out-of-range
// input from callers that compute weights programmatically.
func ClampWeight(w float64) float64 {
	switch {
	case w < 0.1:
		return 0.1
	case w > 2.0:
		return 2.0
	default:
		return w
	}
}

// KnowledgeEntry is the unit of storage: opaque content, an optional fixed-
// dimension embedding, key/value metadata, hierarchical tags, and a
// directed relation list.
type KnowledgeEntry struct {
	ID        ID             `json:"id"`
	Content   string         `json:"content"`
	Embedding []float32      `json:"embedding,omitempty"`
	Metadata  Metadata       `json:"metadata,omitempty"`
	Tags      []string       `json:"tags,omitempty"`
	Relations []Relation     `json:"relations,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	IsDeleted bool           `json:"isDeleted"`
	DeletedAt time.Time      `json:"deletedAt,omitzero"`
}

// HasEmbedding reports whether the entry carries a non-empty embedding.
// Vector search never returns entries for which this is false, though they
// remain reachable through the relation graph.
func (e *KnowledgeEntry) HasEmbedding() bool {
	return len(e.Embedding) > 0
}

// Clone returns a deep copy of the entry so callers holding a reference to
// a stored entry cannot mutate the store's state through it.
func (e *KnowledgeEntry) Clone() *KnowledgeEntry {
	if e == nil {
		return nil
	}
	out := *e
	if e.Embedding != nil {
		out.Embedding = append([]float32(nil), e.Embedding...)
	}
	if e.Metadata != nil {
		out.Metadata = make(Metadata, len(e.Metadata))
		for k, v := range e.Metadata {
			out.Metadata[k] = v
		}
	}
	if e.Tags != nil {
		out.Tags = append([]string(nil), e.Tags...)
	}
	if e.Relations != nil {
		out.Relations = append([]Relation(nil), e.Relations...)
	}
	return &out
}

// HasTag reports whether t is one of the entry's declared tags.
func (e *KnowledgeEntry) HasTag(t string) bool {
	for _, tag := range e.Tags {
		if tag == t {
			return true
		}
	}
	return false
}
