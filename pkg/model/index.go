package model

import (
	"github.com/leapstack-labs/metabrowse/pkg/core"
)

// Index is one index of a relation, listed independently of the relation's
// own row.
type Index struct {
	base
	rel Relation

	unique     bool
	primary    bool
	definition string
	tablespace string
}

func newIndexFromRecord(rel Relation, rec *core.Record) (*Index, error) {
	idx := &Index{
		base: base{id: recordID(rec), kind: core.KindIndex, persisted: true},
		rel:  rel,
	}
	idx.UpdateFrom(rec)
	return idx, nil
}

func (i *Index) UpdateFrom(rec *core.Record) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if name := rec.String("name"); name != "" {
		i.name = name
	}
	i.unique = rec.Bool("is_unique")
	i.primary = rec.Bool("is_primary")
	i.definition = rec.String("definition")
	i.tablespace = rec.String("tablespace")
}

// Relation returns the indexed relation.
func (i *Index) Relation() Relation { return i.rel }

// Unique reports a unique index.
func (i *Index) Unique() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.unique
}

// Primary reports the primary key index.
func (i *Index) Primary() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.primary
}

// Definition returns the raw index definition text.
func (i *Index) Definition() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.definition
}

// Tablespace returns the index tablespace name, or "" for the default.
func (i *Index) Tablespace() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.tablespace
}
