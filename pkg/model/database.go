package model

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/metabrowse/pkg/core"
	"github.com/leapstack-labs/metabrowse/pkg/metacache"
)

// Database is the top-level container node. It owns the schema listing plus
// the database-wide lookups that other nodes resolve lazily: roles (object
// owners) and tablespaces.
type Database struct {
	base
	source core.Source
	logger *slog.Logger

	schemas     *metacache.ChildCache[*Database, *Schema]
	roles       *metacache.ChildCache[*Database, *Role]
	tablespaces *metacache.ChildCache[*Database, *Tablespace]
}

// NewDatabase creates the container for one connected database. A nil
// logger discards.
func NewDatabase(name string, source core.Source, logger *slog.Logger) *Database {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	db := &Database{
		base:   base{id: core.ID(name), name: name, kind: core.KindDatabase, persisted: true},
		source: source,
		logger: logger,
	}
	db.schemas = metacache.New(metacache.Config[*Database, *Schema]{
		Kind:   core.KindSchema,
		Source: source,
		Scope: func(d *Database) core.Scope {
			return core.Scope{Kind: core.KindSchema, Database: d.Name()}
		},
		New: func(d *Database, rec *core.Record) (*Schema, error) {
			return newSchemaFromRecord(d, rec), nil
		},
		Identity: recordID,
		Logger:   logger,
	})
	db.roles = metacache.New(metacache.Config[*Database, *Role]{
		Kind:   core.KindRole,
		Source: source,
		Scope: func(d *Database) core.Scope {
			return core.Scope{Kind: core.KindRole, Database: d.Name()}
		},
		New: func(d *Database, rec *core.Record) (*Role, error) {
			return newRoleFromRecord(rec), nil
		},
		Identity: recordID,
		Logger:   logger,
	})
	db.tablespaces = metacache.New(metacache.Config[*Database, *Tablespace]{
		Kind:   core.KindTablespace,
		Source: source,
		Scope: func(d *Database) core.Scope {
			return core.Scope{Kind: core.KindTablespace, Database: d.Name()}
		},
		New: func(d *Database, rec *core.Record) (*Tablespace, error) {
			return newTablespaceFromRecord(rec), nil
		},
		Identity: recordID,
		Logger:   logger,
	})
	return db
}

// Source returns the metadata source this database reads from.
func (db *Database) Source() core.Source { return db.source }

// Capabilities returns the connected server's capability flags.
func (db *Database) Capabilities() core.ServerCapabilities {
	return db.source.Capabilities()
}

func (db *Database) UpdateFrom(rec *core.Record) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if name := rec.String("name"); name != "" {
		db.name = name
	}
}

// Schemas returns all schemas, loading the listing on first use.
func (db *Database) Schemas(ctx context.Context) ([]*Schema, error) {
	return db.schemas.GetChildren(ctx, db)
}

// Schema returns the named schema, or NotFoundError.
func (db *Database) Schema(ctx context.Context, name string) (*Schema, error) {
	return db.schemas.GetChild(ctx, db, name)
}

// CachedSchemas returns the schemas currently cached, without I/O.
func (db *Database) CachedSchemas() []*Schema {
	return db.schemas.GetCachedChildren(db)
}

// RefreshSchemas re-reads the schema listing, merging by identity so
// existing Schema nodes survive.
func (db *Database) RefreshSchemas(ctx context.Context) ([]*Schema, error) {
	return db.schemas.Refresh(ctx, db)
}

// RoleByID resolves an owning role by identity. The role listing is loaded
// once and reused; unknown ids report NotFoundError.
func (db *Database) RoleByID(ctx context.Context, id core.ID) (*Role, error) {
	if id == "" {
		return nil, &core.NotFoundError{Kind: core.KindRole, Name: string(id)}
	}
	roles, err := db.roles.GetChildren(ctx, db)
	if err != nil {
		return nil, err
	}
	for _, r := range roles {
		if r.ObjectID() == id {
			return r, nil
		}
	}
	return nil, &core.NotFoundError{Kind: core.KindRole, Name: string(id)}
}

// Tablespaces lists the server's tablespaces. Servers without tablespace
// support report an empty listing without touching the remote.
func (db *Database) Tablespaces(ctx context.Context) ([]*Tablespace, error) {
	if !db.source.Capabilities().SupportsTablespaces() {
		return nil, nil
	}
	return db.tablespaces.GetChildren(ctx, db)
}

// Invalidate drops every database-level cache. Schema-level caches are torn
// down with their Schema nodes on the next listing load.
func (db *Database) Invalidate() {
	db.schemas.ClearAll()
	db.roles.ClearAll()
	db.tablespaces.ClearAll()
}
