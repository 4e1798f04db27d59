package model

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/metabrowse/pkg/core"
	"github.com/leapstack-labs/metabrowse/pkg/metacache"
)

// Schema is the container owning the relation listing and the per-relation
// caches (columns, constraints, indexes). The caches are independent: a
// relation's constraint listing can be cleared or refreshed without touching
// its columns. The kind→cache registry is built once here and consulted by
// the refresh coordinator.
type Schema struct {
	base
	db          *Database
	ownerID     core.ID
	description string

	relations   *metacache.ChildCache[*Schema, Relation]
	columns     *metacache.ChildCache[Relation, *Column]
	constraints *metacache.ChildCache[Relation, *Constraint]
	indexes     *metacache.ChildCache[Relation, *Index]

	registry    *metacache.Registry
	coordinator *metacache.Coordinator
}

func newSchemaFromRecord(db *Database, rec *core.Record) *Schema {
	s := &Schema{
		base: base{id: recordID(rec), kind: core.KindSchema, persisted: true},
		db:   db,
	}
	s.UpdateFrom(rec)
	s.initCaches()
	return s
}

func (s *Schema) initCaches() {
	db := s.db
	s.relations = metacache.New(metacache.Config[*Schema, Relation]{
		Kind:   core.KindTable,
		Source: db.source,
		Scope: func(sc *Schema) core.Scope {
			return core.Scope{Kind: core.KindTable, Database: db.Name(), Schema: sc.Name()}
		},
		New:      newRelationFromRecord,
		Identity: recordID,
		Logger:   db.logger,
	})
	s.columns = metacache.New(metacache.Config[Relation, *Column]{
		Kind:     core.KindColumn,
		Source:   db.source,
		Scope:    s.relationScope(core.KindColumn),
		New:      newColumnFromRecord,
		Identity: recordID,
		Logger:   db.logger,
	})
	s.constraints = metacache.New(metacache.Config[Relation, *Constraint]{
		Kind:     core.KindConstraint,
		Source:   db.source,
		Scope:    s.relationScope(core.KindConstraint),
		New:      newConstraintFromRecord,
		Identity: recordID,
		Logger:   db.logger,
	})
	s.indexes = metacache.New(metacache.Config[Relation, *Index]{
		Kind:     core.KindIndex,
		Source:   db.source,
		Scope:    s.relationScope(core.KindIndex),
		New:      newIndexFromRecord,
		Identity: recordID,
		Logger:   db.logger,
	})

	s.registry = metacache.NewRegistry()
	s.registry.Bind(metacache.Binding{
		Refresh: func(ctx context.Context, obj core.Object) (core.Object, error) {
			rel, err := asRelation(obj)
			if err != nil {
				return nil, err
			}
			return s.relations.RefreshObject(ctx, s, rel)
		},
		// Constraint and index listings are queried independently of the
		// relation listing; whatever triggered the refresh may have changed
		// them. The column cache is deliberately left alone.
		ClearDependents: func(obj core.Object) {
			if rel, err := asRelation(obj); err == nil {
				s.constraints.ClearObjectCache(rel)
				s.indexes.ClearObjectCache(rel)
			}
		},
		Clear: func(core.Object) {
			s.relations.ClearObjectCache(s)
		},
	}, core.KindTable, core.KindView, core.KindMaterializedView)
	s.registry.Bind(metacache.Binding{
		Refresh: func(ctx context.Context, obj core.Object) (core.Object, error) {
			col, ok := obj.(*Column)
			if !ok {
				return nil, fmt.Errorf("object %q is not a column", obj.Name())
			}
			return s.columns.RefreshObject(ctx, col.Relation(), col)
		},
		Clear: func(obj core.Object) {
			if col, ok := obj.(*Column); ok {
				s.columns.ClearObjectCache(col.Relation())
			}
		},
	}, core.KindColumn)
	s.registry.Bind(metacache.Binding{
		Refresh: func(ctx context.Context, obj core.Object) (core.Object, error) {
			con, ok := obj.(*Constraint)
			if !ok {
				return nil, fmt.Errorf("object %q is not a constraint", obj.Name())
			}
			return s.constraints.RefreshObject(ctx, con.Relation(), con)
		},
		Clear: func(obj core.Object) {
			if con, ok := obj.(*Constraint); ok {
				s.constraints.ClearObjectCache(con.Relation())
			}
		},
	}, core.KindConstraint)
	s.registry.Bind(metacache.Binding{
		Refresh: func(ctx context.Context, obj core.Object) (core.Object, error) {
			idx, ok := obj.(*Index)
			if !ok {
				return nil, fmt.Errorf("object %q is not an index", obj.Name())
			}
			return s.indexes.RefreshObject(ctx, idx.Relation(), idx)
		},
		Clear: func(obj core.Object) {
			if idx, ok := obj.(*Index); ok {
				s.indexes.ClearObjectCache(idx.Relation())
			}
		},
	}, core.KindIndex)

	s.coordinator = metacache.NewCoordinator(s.registry, db.logger)
}

// relationScope builds a Scope factory for listings owned by one relation.
func (s *Schema) relationScope(kind core.Kind) func(Relation) core.Scope {
	return func(rel Relation) core.Scope {
		return core.Scope{
			Kind:       kind,
			Database:   s.db.Name(),
			Schema:     s.Name(),
			Parent:     rel.ObjectID(),
			ParentName: rel.Name(),
		}
	}
}

func asRelation(obj core.Object) (Relation, error) {
	rel, ok := obj.(Relation)
	if !ok {
		return nil, fmt.Errorf("object %q is not a relation", obj.Name())
	}
	return rel, nil
}

func (s *Schema) UpdateFrom(rec *core.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name := rec.String("name"); name != "" {
		s.name = name
	}
	s.ownerID = core.ID(rec.String("owner"))
	s.description = rec.String("description")
}

// Database returns the owning database node.
func (s *Schema) Database() *Database { return s.db }

// Description returns the schema comment from the last load.
func (s *Schema) Description() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.description
}

// OwnerID returns the identity of the owning role.
func (s *Schema) OwnerID() core.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ownerID
}

// Owner resolves the schema's owning role through the database role cache.
func (s *Schema) Owner(ctx context.Context) (*Role, error) {
	return s.db.RoleByID(ctx, s.OwnerID())
}

// Coordinator returns the refresh coordinator for objects under this schema.
func (s *Schema) Coordinator() *metacache.Coordinator { return s.coordinator }

// Registry returns the kind→cache registry for this container.
func (s *Schema) Registry() *metacache.Registry { return s.registry }

// Relations returns every table, view and materialized view in the schema,
// in remote listing order.
func (s *Schema) Relations(ctx context.Context) ([]Relation, error) {
	return s.relations.GetChildren(ctx, s)
}

// Relation returns the named relation, or NotFoundError.
func (s *Schema) Relation(ctx context.Context, name string) (Relation, error) {
	return s.relations.GetChild(ctx, s, name)
}

// CachedRelations returns the relations currently cached, without I/O.
func (s *Schema) CachedRelations() []Relation {
	return s.relations.GetCachedChildren(s)
}

// RefreshRelations re-reads the relation listing, preserving surviving
// instances by identity.
func (s *Schema) RefreshRelations(ctx context.Context) ([]Relation, error) {
	return s.relations.Refresh(ctx, s)
}

// ClearRelationCache drops the cached relation listing and every derived
// per-relation cache under it.
func (s *Schema) ClearRelationCache() {
	s.relations.ClearObjectCache(s)
	s.columns.ClearAll()
	s.constraints.ClearAll()
	s.indexes.ClearAll()
}
