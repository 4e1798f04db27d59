package model

import (
	"github.com/leapstack-labs/metabrowse/pkg/core"
)

// ConstraintType classifies a relation constraint by its catalog code.
type ConstraintType string

const (
	ConstraintPrimaryKey ConstraintType = "primary key"
	ConstraintForeignKey ConstraintType = "foreign key"
	ConstraintUnique     ConstraintType = "unique"
	ConstraintCheck      ConstraintType = "check"
	ConstraintExclusion  ConstraintType = "exclusion"
	ConstraintOther      ConstraintType = "other"
)

func constraintTypeByCode(code string) ConstraintType {
	switch code {
	case "p":
		return ConstraintPrimaryKey
	case "f":
		return ConstraintForeignKey
	case "u":
		return ConstraintUnique
	case "c":
		return ConstraintCheck
	case "x":
		return ConstraintExclusion
	default:
		return ConstraintOther
	}
}

// Constraint is one constraint of a relation, listed independently of the
// relation's own row.
type Constraint struct {
	base
	rel Relation

	ctype      ConstraintType
	definition string
}

func newConstraintFromRecord(rel Relation, rec *core.Record) (*Constraint, error) {
	c := &Constraint{
		base: base{id: recordID(rec), kind: core.KindConstraint, persisted: true},
		rel:  rel,
	}
	c.UpdateFrom(rec)
	return c, nil
}

func (c *Constraint) UpdateFrom(rec *core.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if name := rec.String("name"); name != "" {
		c.name = name
	}
	c.ctype = constraintTypeByCode(rec.String("type"))
	c.definition = rec.String("definition")
}

// Relation returns the constrained relation.
func (c *Constraint) Relation() Relation { return c.rel }

// Type returns the constraint classification.
func (c *Constraint) Type() ConstraintType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ctype
}

// Definition returns the raw constraint definition text.
func (c *Constraint) Definition() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.definition
}
