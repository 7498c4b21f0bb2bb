package store

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/cssvb94/vectorlitedb/pkg/knowledge"
	"github.com/cssvb94/vectorlitedb/pkg/vlerr"
)

// importRelation mirrors knowledge.Relation with tags that unmarshal
// case-insensitively against camelCase or PascalCase JSON, per
// encoding/json's default struct-field matching.
type importRelation struct {
	TargetID  knowledge.ID `json:"targetId"`
	Weight    float64      `json:"weight"`
	Type      string       `json:"type"`
	CreatedAt time.Time    `json:"createdAt"`
}

type importEntry struct {
	ID        knowledge.ID       `json:"id"`
	Content   string             `json:"content"`
	Embedding []float32          `json:"embedding"`
	Metadata  knowledge.Metadata `json:"metadata"`
	Tags      []string           `json:"tags"`
	Relations []importRelation   `json:"relations"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
	IsDeleted bool               `json:"isDeleted"`
	DeletedAt time.Time          `json:"deletedAt"`
}

// ImportJSON reads a JSON array of KnowledgeEntry objects from path and
// adds each one. Keys are matched case-insensitively, so camelCase and
// PascalCase input both work.
func (sc *StoreCore) ImportJSON(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", path, vlerr.ErrNotFound)
		}
		return fmt.Errorf("reading %s: %w", path, vlerr.ErrStoreFailure)
	}

	var raw []importEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing %s: %w", path, vlerr.ErrInvalidArgument)
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	for _, r := range raw {
		entry := &knowledge.KnowledgeEntry{
			ID:        r.ID,
			Content:   r.Content,
			Embedding: r.Embedding,
			Metadata:  r.Metadata,
			Tags:      r.Tags,
			CreatedAt: r.CreatedAt,
			IsDeleted: r.IsDeleted,
			DeletedAt: r.DeletedAt,
		}
		for _, rel := range r.Relations {
			entry.Relations = append(entry.Relations, knowledge.Relation{
				TargetID:  rel.TargetID,
				Weight:    rel.Weight,
				Type:      rel.Type,
				CreatedAt: rel.CreatedAt,
			})
		}
		if err := sc.addLocked(entry); err != nil {
			return err
		}
	}
	return nil
}

// exportRelation and exportEntry use PascalCase tags: export is always
// PascalCase and indented, per the JSON import/export format.
type exportRelation struct {
	TargetID  knowledge.ID `json:"TargetID"`
	Weight    float64      `json:"Weight"`
	Type      string       `json:"Type,omitempty"`
	CreatedAt time.Time    `json:"CreatedAt"`
}

type exportEntry struct {
	ID        knowledge.ID       `json:"ID"`
	Content   string             `json:"Content"`
	Embedding []float32          `json:"Embedding,omitempty"`
	Metadata  knowledge.Metadata `json:"Metadata,omitempty"`
	Tags      []string           `json:"Tags,omitempty"`
	Relations []exportRelation   `json:"Relations,omitempty"`
	CreatedAt time.Time          `json:"CreatedAt"`
	UpdatedAt time.Time          `json:"UpdatedAt"`
	IsDeleted bool               `json:"IsDeleted"`
	DeletedAt time.Time          `json:"DeletedAt,omitzero"`
}

// ExportJSON writes every stored entry (including soft-deleted ones) to
// path as an indented JSON array with PascalCase keys.
func (sc *StoreCore) ExportJSON(path string) error {
	sc.mu.Lock()
	all, err := sc.docs.All()
	sc.mu.Unlock()
	if err != nil {
		return fmt.Errorf("scanning store: %w", vlerr.ErrStoreFailure)
	}

	out := make([]exportEntry, 0, len(all))
	for _, e := range all {
		ee := exportEntry{
			ID:        e.ID,
			Content:   e.Content,
			Embedding: e.Embedding,
			Metadata:  e.Metadata,
			Tags:      e.Tags,
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
			IsDeleted: e.IsDeleted,
			DeletedAt: e.DeletedAt,
		}
		for _, rel := range e.Relations {
			ee.Relations = append(ee.Relations, exportRelation{
				TargetID:  rel.TargetID,
				Weight:    rel.Weight,
				Type:      rel.Type,
				CreatedAt: rel.CreatedAt,
			})
		}
		out = append(out, ee)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding export: %w", vlerr.ErrStoreFailure)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, vlerr.ErrStoreFailure)
	}
	return nil
}
