package model

import (
	"context"
	"fmt"
	"slices"

	"github.com/leapstack-labs/metabrowse/pkg/core"
)

// Persistence classifies how a relation is stored on the server.
type Persistence string

const (
	PersistencePermanent Persistence = "permanent"
	PersistenceUnlogged  Persistence = "unlogged"
	PersistenceTemporary Persistence = "temporary"
)

// persistenceByCode maps the catalog's single-letter persistence code.
func persistenceByCode(code string) Persistence {
	switch code {
	case "u":
		return PersistenceUnlogged
	case "t":
		return PersistenceTemporary
	default:
		return PersistencePermanent
	}
}

// Object definition options accepted by SupportsObjectDefinitionOption.
const (
	OptionIncludeComments    = "ddl.includeComments"
	OptionIncludePermissions = "ddl.includePermissions"
	OptionOnlyForeignKeys    = "ddl.onlyForeignKeys"
	OptionSkipForeignKeys    = "ddl.skipForeignKeys"
)

// Relation is a table-like node: a table, view or materialized view. The
// closed variant set shares one cache inside the owning schema; the relation
// kind recorded on each row decides which variant a row becomes.
type Relation interface {
	core.Object

	// Schema returns the owning schema (non-owning back-reference).
	Schema() *Schema

	// IsView reports whether the variant is a view of any kind.
	IsView() bool

	// TableTypeName returns the display type ("TABLE", "VIEW", ...).
	TableTypeName() string

	// FullyQualifiedName returns schema-qualified name.
	FullyQualifiedName() string

	// Description returns the relation comment from the last load.
	Description() string

	// OwnerID returns the identity of the owning role.
	OwnerID() core.ID

	// ACL returns the raw access-control payload. Interpretation is left to
	// presentation-layer collaborators.
	ACL() string

	// StorageOptions returns the raw storage option strings.
	StorageOptions() []string

	// PersistenceKind returns the relation's persistence classification.
	PersistenceKind() Persistence

	// IsPartition reports whether the relation is a partition of another.
	IsPartition() bool

	// Columns returns the relation's columns, loading them on first use.
	Columns(ctx context.Context) ([]*Column, error)

	// Column returns the named column, or NotFoundError.
	Column(ctx context.Context, name string) (*Column, error)

	// CachedColumns returns columns currently cached, without I/O.
	CachedColumns() []*Column

	// SupportsObjectDefinitionOption reports whether a named definition
	// rendering option applies to this relation. Pure, no I/O.
	SupportsObjectDefinitionOption(option string) bool
}

// relation is the shared variant base. Mutable attributes are the ones
// decoded from the latest raw row; UpdateFrom rewrites them in place so
// holders of the node observe the refresh.
type relation struct {
	base
	schema *Schema

	ownerID     core.ID
	description string
	acl         string
	options     []string
	persistence Persistence
	partition   bool
}

func (r *relation) UpdateFrom(rec *core.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name := rec.String("name"); name != "" {
		r.name = name
	}
	r.ownerID = core.ID(rec.String("owner"))
	r.description = rec.String("description")
	r.acl = rec.String("acl")
	r.options = rec.StringSlice("options")
	r.persistence = persistenceByCode(rec.String("persistence"))
	r.partition = rec.Bool("is_partition")
}

func (r *relation) Schema() *Schema { return r.schema }

func (r *relation) Description() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.description
}

func (r *relation) OwnerID() core.ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ownerID
}

func (r *relation) ACL() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.acl
}

func (r *relation) StorageOptions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.options)
}

func (r *relation) PersistenceKind() Persistence {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.persistence
}

func (r *relation) IsPartition() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.partition
}

func (r *relation) IsView() bool {
	return r.kind == core.KindView || r.kind == core.KindMaterializedView
}

func (r *relation) FullyQualifiedName() string {
	return fmt.Sprintf("%s.%s", r.schema.Name(), r.Name())
}

// Owner resolves the owning role lazily through the database role cache.
func (r *relation) Owner(ctx context.Context) (*Role, error) {
	return r.schema.db.RoleByID(ctx, r.OwnerID())
}

func (r *relation) SupportsObjectDefinitionOption(option string) bool {
	caps := r.schema.db.source.Capabilities()
	switch option {
	case OptionIncludeComments:
		return caps.SupportsExtraComments()
	case OptionIncludePermissions:
		return true
	case OptionOnlyForeignKeys, OptionSkipForeignKeys:
		return !r.IsView()
	default:
		return false
	}
}

// ChangeOwnerSQL returns the statement text reassigning relation ownership.
// Dialect correctness beyond identifier qualification is the caller's
// concern.
func (r *relation) ChangeOwnerSQL(owner string) string {
	return fmt.Sprintf("ALTER TABLE %s OWNER TO %s", r.FullyQualifiedName(), owner)
}

// columnsOf implements the column accessors against the schema's per-
// relation column cache, keyed by the concrete variant. A relation that is
// not persisted has no remote rows to load; it serves exactly what was
// cached by construction.
func columnsOf(ctx context.Context, rel Relation) ([]*Column, error) {
	if !rel.Persisted() {
		return rel.Schema().columns.GetCachedChildren(rel), nil
	}
	return rel.Schema().columns.GetChildren(ctx, rel)
}

func columnOf(ctx context.Context, rel Relation, name string) (*Column, error) {
	if !rel.Persisted() {
		for _, col := range rel.Schema().columns.GetCachedChildren(rel) {
			if col.Name() == name {
				return col, nil
			}
		}
		return nil, &core.NotFoundError{Kind: core.KindColumn, Name: name}
	}
	return rel.Schema().columns.GetChild(ctx, rel, name)
}

func cachedColumnsOf(rel Relation) []*Column {
	return rel.Schema().columns.GetCachedChildren(rel)
}

// ColumnByPosition returns the column at the given ordinal position, or nil.
func ColumnByPosition(ctx context.Context, rel Relation, position int) (*Column, error) {
	cols, err := rel.Columns(ctx)
	if err != nil {
		return nil, err
	}
	for _, col := range cols {
		if col.Position() == position {
			return col, nil
		}
	}
	return nil, nil
}

// References returns associations pointing at the relation. Base relations
// do not track them; the listing is empty.
func (r *relation) References(context.Context) ([]*Constraint, error) {
	return nil, nil
}

// Associations returns outgoing associations. Empty for base relations.
func (r *relation) Associations(context.Context) ([]*Constraint, error) {
	return nil, nil
}

// newRelationFromRecord builds the right variant for a decoded listing row.
func newRelationFromRecord(s *Schema, rec *core.Record) (Relation, error) {
	switch code := rec.String("kind"); code {
	case "r", "p", "":
		t := &Table{}
		t.init(s, core.KindTable, rec)
		return t, nil
	case "v":
		v := &View{}
		v.init(s, core.KindView, rec)
		return v, nil
	case "m":
		mv := &MaterializedView{}
		mv.init(s, core.KindMaterializedView, rec)
		return mv, nil
	default:
		return nil, fmt.Errorf("unknown relation kind code %q for %q", code, rec.String("name"))
	}
}

func (r *relation) init(s *Schema, kind core.Kind, rec *core.Record) {
	r.base = base{id: recordID(rec), kind: kind, persisted: true}
	r.schema = s
	r.UpdateFrom(rec)
}

// Table is a regular or partitioned table.
type Table struct {
	relation
}

// NewTable creates a transient table pending remote creation: not yet
// persisted, permanent by default, no storage options.
func NewTable(s *Schema, name string) *Table {
	return &Table{relation: relation{
		base:        base{id: transientID(), name: name, kind: core.KindTable},
		schema:      s,
		persistence: PersistencePermanent,
	}}
}

// NewTableFrom copy-constructs a table from a template for save-as and
// duplicate flows: scalar attributes are copied verbatim and the template's
// non-hidden columns are duplicated into the new table's own column cache.
// Sibling listings (constraints, indexes) are not copied.
func NewTableFrom(ctx context.Context, s *Schema, src Relation, persisted bool) (*Table, error) {
	t := &Table{relation: relation{
		base:        base{id: transientID(), name: src.Name(), kind: core.KindTable, persisted: persisted},
		schema:      s,
		ownerID:     src.OwnerID(),
		description: src.Description(),
		acl:         src.ACL(),
		options:     append([]string(nil), src.StorageOptions()...),
		persistence: src.PersistenceKind(),
		partition:   src.IsPartition(),
	}}

	srcCols, err := src.Columns(ctx)
	if err != nil {
		return nil, fmt.Errorf("copying columns of %s: %w", src.FullyQualifiedName(), err)
	}
	for _, srcCol := range srcCols {
		if srcCol.Hidden() {
			continue
		}
		s.columns.CacheObject(t, NewColumnFrom(t, srcCol))
	}
	return t, nil
}

func (t *Table) TableTypeName() string { return "TABLE" }

func (t *Table) Columns(ctx context.Context) ([]*Column, error) {
	return columnsOf(ctx, t)
}

func (t *Table) Column(ctx context.Context, name string) (*Column, error) {
	return columnOf(ctx, t, name)
}

func (t *Table) CachedColumns() []*Column { return cachedColumnsOf(t) }

// Constraints returns the table's constraints, loaded independently of the
// relation listing.
func (t *Table) Constraints(ctx context.Context) ([]*Constraint, error) {
	if !t.persisted {
		return t.schema.constraints.GetCachedChildren(t), nil
	}
	return t.schema.constraints.GetChildren(ctx, t)
}

// Constraint returns the named constraint, or NotFoundError.
func (t *Table) Constraint(ctx context.Context, name string) (*Constraint, error) {
	return t.schema.constraints.GetChild(ctx, t, name)
}

// Indexes returns the table's indexes.
func (t *Table) Indexes(ctx context.Context) ([]*Index, error) {
	if !t.persisted {
		return t.schema.indexes.GetCachedChildren(t), nil
	}
	return t.schema.indexes.GetChildren(ctx, t)
}

// RefreshObject re-reads this table's row in place. The constraint and
// index listings are cleared first: they are queried independently and may
// have changed as a side effect of whatever triggered the refresh. The
// column cache is left alone.
func (t *Table) RefreshObject(ctx context.Context) (Relation, error) {
	t.schema.constraints.ClearObjectCache(t)
	t.schema.indexes.ClearObjectCache(t)
	return t.schema.relations.RefreshObject(ctx, t.schema, t)
}

// View is a plain view. It has columns but no constraints or indexes.
type View struct {
	relation
}

func (v *View) TableTypeName() string { return "VIEW" }

func (v *View) Columns(ctx context.Context) ([]*Column, error) {
	return columnsOf(ctx, v)
}

func (v *View) Column(ctx context.Context, name string) (*Column, error) {
	return columnOf(ctx, v, name)
}

func (v *View) CachedColumns() []*Column { return cachedColumnsOf(v) }

// RefreshObject re-reads this view's row in place.
func (v *View) RefreshObject(ctx context.Context) (Relation, error) {
	return v.schema.relations.RefreshObject(ctx, v.schema, v)
}

// MaterializedView is a view with storage: columns and indexes, no
// constraints.
type MaterializedView struct {
	relation
}

func (m *MaterializedView) TableTypeName() string { return "MATERIALIZED VIEW" }

func (m *MaterializedView) Columns(ctx context.Context) ([]*Column, error) {
	return columnsOf(ctx, m)
}

func (m *MaterializedView) Column(ctx context.Context, name string) (*Column, error) {
	return columnOf(ctx, m, name)
}

func (m *MaterializedView) CachedColumns() []*Column { return cachedColumnsOf(m) }

// Indexes returns the materialized view's indexes.
func (m *MaterializedView) Indexes(ctx context.Context) ([]*Index, error) {
	return m.schema.indexes.GetChildren(ctx, m)
}

// RefreshObject re-reads this materialized view's row in place, clearing
// the independently-queried index listing first.
func (m *MaterializedView) RefreshObject(ctx context.Context) (Relation, error) {
	m.schema.indexes.ClearObjectCache(m)
	return m.schema.relations.RefreshObject(ctx, m.schema, m)
}
