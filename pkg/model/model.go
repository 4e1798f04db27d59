// Package model implements the navigable object tree over a remote
// database's structure: databases own schemas, schemas own relations,
// relations own columns, constraints and indexes. Every listing is loaded
// on demand through pkg/metacache and stays stable across refresh for
// anyone holding a node.
package model

import (
	"context"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/leapstack-labs/metabrowse/pkg/core"
)

// base carries the identity fields shared by every node, plus the lock
// guarding the node's mutable attributes. Identity (id, kind, persisted) is
// fixed at construction; name and the subtype attribute fields are rewritten
// in place on refresh, so every access goes through mu. Readers never hold
// mu across I/O.
type base struct {
	mu        sync.RWMutex
	id        core.ID
	name      string
	kind      core.Kind
	persisted bool
}

func (b *base) ObjectID() core.ID     { return b.id }
func (b *base) ObjectKind() core.Kind { return b.kind }
func (b *base) Persisted() bool       { return b.persisted }

func (b *base) Name() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.name
}

func (b *base) SetName(name string) {
	b.mu.Lock()
	b.name = name
	b.mu.Unlock()
}

// HasColumns is implemented by nodes that own a column listing.
type HasColumns interface {
	Columns(ctx context.Context) ([]*Column, error)
}

// HasConstraints is implemented by nodes that own a constraint listing.
type HasConstraints interface {
	Constraints(ctx context.Context) ([]*Constraint, error)
}

// HasIndexes is implemented by nodes that own an index listing.
type HasIndexes interface {
	Indexes(ctx context.Context) ([]*Index, error)
}

// Ownable is implemented by nodes with a resolvable owning role.
type Ownable interface {
	Owner(ctx context.Context) (*Role, error)
}

// recordID extracts the stable identity from a raw row: the server-assigned
// "oid" when present, otherwise the object name.
func recordID(rec *core.Record) core.ID {
	if rec.Has("oid") {
		return core.ID(strconv.FormatInt(rec.Int64("oid"), 10))
	}
	return core.ID(rec.String("name"))
}

// transientID generates a local identity for an object that does not exist
// remotely yet. Replaced by the server-assigned identity once persisted.
func transientID() core.ID {
	return core.ID("local-" + uuid.NewString())
}
