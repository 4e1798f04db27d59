package model

import (
	"github.com/leapstack-labs/metabrowse/pkg/core"
)

// Column is one attribute of a relation. The relation reference is a
// non-owning back-reference; the schema's column cache owns the node.
type Column struct {
	base
	rel Relation

	position    int
	typeName    string
	notNull     bool
	hidden      bool
	defaultExpr string
	description string
}

func newColumnFromRecord(rel Relation, rec *core.Record) (*Column, error) {
	c := &Column{
		base: base{id: recordID(rec), kind: core.KindColumn, persisted: true},
		rel:  rel,
	}
	c.UpdateFrom(rec)
	return c, nil
}

// NewColumnFrom copies a column onto another relation for duplication
// flows. The copy is transient until the new relation is persisted.
func NewColumnFrom(rel Relation, src *Column) *Column {
	src.mu.RLock()
	defer src.mu.RUnlock()
	return &Column{
		base:        base{id: transientID(), name: src.name, kind: core.KindColumn},
		rel:         rel,
		position:    src.position,
		typeName:    src.typeName,
		notNull:     src.notNull,
		hidden:      src.hidden,
		defaultExpr: src.defaultExpr,
		description: src.description,
	}
}

func (c *Column) UpdateFrom(rec *core.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if name := rec.String("name"); name != "" {
		c.name = name
	}
	c.position = rec.Int("position")
	c.typeName = rec.String("type_name")
	c.notNull = rec.Bool("not_null")
	c.hidden = rec.Bool("is_hidden") || c.position < 1
	c.defaultExpr = rec.String("default")
	c.description = rec.String("description")
}

// Relation returns the owning relation.
func (c *Column) Relation() Relation { return c.rel }

// Position returns the 1-based ordinal position. System columns carry
// positions below 1 and are treated as hidden.
func (c *Column) Position() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.position
}

// TypeName returns the declared data type name.
func (c *Column) TypeName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.typeName
}

// NotNull reports a NOT NULL column.
func (c *Column) NotNull() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.notNull
}

// Hidden reports a hidden or system column. Hidden columns are skipped when
// a relation is duplicated.
func (c *Column) Hidden() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hidden
}

// DefaultExpr returns the raw default expression, or "".
func (c *Column) DefaultExpr() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaultExpr
}

// Description returns the column comment from the last load.
func (c *Column) Description() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.description
}
