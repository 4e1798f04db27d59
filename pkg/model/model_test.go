package model

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/metabrowse/internal/testutil"
	"github.com/leapstack-labs/metabrowse/pkg/core"
)

// fakeCaps is a mutable capability set for exercising gated behavior.
type fakeCaps struct {
	tablespaces   bool
	extraComments bool
	partitions    bool
	matViews      bool
}

func (c *fakeCaps) SupportsTablespaces() bool       { return c.tablespaces }
func (c *fakeCaps) SupportsExtraComments() bool     { return c.extraComments }
func (c *fakeCaps) SupportsPartitions() bool        { return c.partitions }
func (c *fakeCaps) SupportsMaterializedViews() bool { return c.matViews }

// fakeSource serves canned rows per scope and counts listing queries.
type fakeSource struct {
	caps *fakeCaps

	mu      sync.Mutex
	rows    map[string][]*core.Record
	singles map[string]*core.Record
	calls   map[string]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		caps:    &fakeCaps{tablespaces: true, extraComments: true, matViews: true},
		rows:    make(map[string][]*core.Record),
		singles: make(map[string]*core.Record),
		calls:   make(map[string]int),
	}
}

func scopeKey(s core.Scope) string {
	return fmt.Sprintf("%s|%s|%s", s.Kind, s.Schema, s.Parent)
}

func (f *fakeSource) seed(kind core.Kind, schema string, parent core.ID, recs ...*core.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[scopeKey(core.Scope{Kind: kind, Schema: schema, Parent: parent})] = recs
}

func (f *fakeSource) seedSingle(kind core.Kind, schema string, parent, id core.ID, r *core.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := scopeKey(core.Scope{Kind: kind, Schema: schema, Parent: parent}) + "|" + string(id)
	if r == nil {
		delete(f.singles, key)
	} else {
		f.singles[key] = r
	}
}

func (f *fakeSource) listCalls(kind core.Kind, schema string, parent core.ID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[scopeKey(core.Scope{Kind: kind, Schema: schema, Parent: parent})]
}

func (f *fakeSource) Connect(context.Context, core.SourceConfig) error { return nil }
func (f *fakeSource) Close() error                                     { return nil }

func (f *fakeSource) ExecuteMetadataQuery(ctx context.Context, scope core.Scope) ([]*core.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[scopeKey(scope)]++
	return append([]*core.Record(nil), f.rows[scopeKey(scope)]...), nil
}

func (f *fakeSource) ExecuteSingleObjectQuery(ctx context.Context, scope core.Scope, id core.ID) (*core.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.singles[scopeKey(scope)+"|"+string(id)]
	if !ok {
		return nil, core.ErrNoRow
	}
	return r, nil
}

func (f *fakeSource) Capabilities() core.ServerCapabilities { return f.caps }

func rec(pairs ...any) *core.Record {
	r := core.NewRecord(nil)
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Set(pairs[i].(string), pairs[i+1])
	}
	return r
}

// newFixture builds a database over a fake source with one schema holding a
// table, a view and a materialized view.
func newFixture(t *testing.T) (*fakeSource, *Database, *Schema) {
	t.Helper()
	src := newFakeSource()
	src.seed(core.KindSchema, "", "",
		rec("oid", int64(2200), "name", "public", "owner", "10"))
	src.seed(core.KindTable, "public", "",
		rec("oid", int64(101), "name", "orders", "kind", "r", "owner", "10",
			"description", "order book", "acl", "{admin=arwdDxt/admin}",
			"options", "{fillfactor=70}", "persistence", "p"),
		rec("oid", int64(102), "name", "orders_v", "kind", "v", "owner", "10"),
		rec("oid", int64(103), "name", "orders_mv", "kind", "m", "owner", "10"))
	src.seed(core.KindRole, "", "",
		rec("oid", int64(10), "name", "admin", "is_superuser", true, "can_login", true))

	db := NewDatabase("shop", src, testutil.NewTestLogger(t))
	schema, err := db.Schema(context.Background(), "public")
	require.NoError(t, err)
	return src, db, schema
}

func TestDatabaseSchemasLoadOnce(t *testing.T) {
	src, db, schema := newFixture(t)
	ctx := context.Background()

	schemas, err := db.Schemas(ctx)
	require.NoError(t, err)
	require.Len(t, schemas, 1)
	assert.Same(t, schema, schemas[0])
	assert.Equal(t, "public", schema.Name())
	assert.Equal(t, core.ID("2200"), schema.ObjectID())
	assert.Equal(t, 1, src.listCalls(core.KindSchema, "", ""))
}

func TestSchemaRelationVariants(t *testing.T) {
	src, _, schema := newFixture(t)
	ctx := context.Background()

	rels, err := schema.Relations(ctx)
	require.NoError(t, err)
	require.Len(t, rels, 3)

	table, ok := rels[0].(*Table)
	require.True(t, ok)
	assert.Equal(t, "TABLE", table.TableTypeName())
	assert.False(t, table.IsView())
	assert.Equal(t, "public.orders", table.FullyQualifiedName())
	assert.Equal(t, "order book", table.Description())
	assert.Equal(t, []string{"fillfactor=70"}, table.StorageOptions())
	assert.Equal(t, PersistencePermanent, table.PersistenceKind())
	assert.True(t, table.Persisted())

	view, ok := rels[1].(*View)
	require.True(t, ok)
	assert.Equal(t, "VIEW", view.TableTypeName())
	assert.True(t, view.IsView())

	mv, ok := rels[2].(*MaterializedView)
	require.True(t, ok)
	assert.Equal(t, "MATERIALIZED VIEW", mv.TableTypeName())
	assert.True(t, mv.IsView())

	// Second traversal serves from cache.
	again, err := schema.Relation(ctx, "orders")
	require.NoError(t, err)
	assert.Same(t, table, again)
	assert.Equal(t, 1, src.listCalls(core.KindTable, "public", ""))
}

func TestRelationPersistenceCodes(t *testing.T) {
	assert.Equal(t, PersistencePermanent, persistenceByCode("p"))
	assert.Equal(t, PersistenceUnlogged, persistenceByCode("u"))
	assert.Equal(t, PersistenceTemporary, persistenceByCode("t"))
	assert.Equal(t, PersistencePermanent, persistenceByCode(""))
}

func TestCopyConstructSkipsHiddenColumns(t *testing.T) {
	src, _, schema := newFixture(t)
	ctx := context.Background()

	src.seed(core.KindColumn, "public", "101",
		rec("oid", int64(1), "name", "id", "position", int64(1), "type_name", "bigint", "not_null", true),
		rec("oid", int64(2), "name", "ctid", "position", int64(2), "type_name", "tid", "is_hidden", true))

	orders, err := schema.Relation(ctx, "orders")
	require.NoError(t, err)

	dup, err := NewTableFrom(ctx, schema, orders, false)
	require.NoError(t, err)
	assert.False(t, dup.Persisted())
	assert.Equal(t, "orders", dup.Name())
	assert.NotEqual(t, orders.ObjectID(), dup.ObjectID())
	assert.Equal(t, orders.OwnerID(), dup.OwnerID())
	assert.Equal(t, orders.PersistenceKind(), dup.PersistenceKind())

	// Exactly the non-hidden column is duplicated, as a fresh instance.
	copied := dup.CachedColumns()
	require.Len(t, copied, 1)
	assert.Equal(t, "id", copied[0].Name())
	assert.Equal(t, "bigint", copied[0].TypeName())
	assert.True(t, copied[0].NotNull())
	assert.False(t, copied[0].Persisted())

	srcCols, err := orders.Columns(ctx)
	require.NoError(t, err)
	require.Len(t, srcCols, 2)
	assert.NotSame(t, srcCols[0], copied[0])

	// The transient table never queries the remote for its listings.
	queries := src.listCalls(core.KindColumn, "public", "101")
	cols, err := dup.Columns(ctx)
	require.NoError(t, err)
	assert.Len(t, cols, 1)
	cons, err := dup.Constraints(ctx)
	require.NoError(t, err)
	assert.Empty(t, cons)
	idxs, err := dup.Indexes(ctx)
	require.NoError(t, err)
	assert.Empty(t, idxs)
	assert.Equal(t, queries, src.listCalls(core.KindColumn, "public", "101"))

	col, err := dup.Column(ctx, "id")
	require.NoError(t, err)
	assert.Same(t, copied[0], col)
	_, err = dup.Column(ctx, "ctid")
	assert.True(t, core.IsNotFound(err))
}

func TestTableRefreshObjectClearsDependentListings(t *testing.T) {
	src, _, schema := newFixture(t)
	ctx := context.Background()

	src.seed(core.KindColumn, "public", "101",
		rec("oid", int64(1), "name", "id", "position", int64(1), "type_name", "bigint"))
	src.seed(core.KindConstraint, "public", "101",
		rec("oid", int64(501), "name", "orders_pkey", "type", "p", "definition", "PRIMARY KEY (id)"))
	src.seed(core.KindIndex, "public", "101",
		rec("oid", int64(601), "name", "orders_pkey", "is_unique", true, "is_primary", true))

	orders, err := schema.Relation(ctx, "orders")
	require.NoError(t, err)
	table := orders.(*Table)

	_, err = table.Columns(ctx)
	require.NoError(t, err)
	_, err = table.Constraints(ctx)
	require.NoError(t, err)
	_, err = table.Indexes(ctx)
	require.NoError(t, err)

	src.seedSingle(core.KindTable, "public", "", "101",
		rec("oid", int64(101), "name", "orders", "kind", "r", "owner", "10",
			"description", "renamed book", "persistence", "p"))

	refreshed, err := table.RefreshObject(ctx)
	require.NoError(t, err)
	assert.Same(t, orders, refreshed)
	assert.Equal(t, "renamed book", refreshed.Description())

	// Constraint and index listings were dropped and reload on next access;
	// the column listing survives the refresh.
	_, err = table.Constraints(ctx)
	require.NoError(t, err)
	_, err = table.Indexes(ctx)
	require.NoError(t, err)
	_, err = table.Columns(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.listCalls(core.KindConstraint, "public", "101"))
	assert.Equal(t, 2, src.listCalls(core.KindIndex, "public", "101"))
	assert.Equal(t, 1, src.listCalls(core.KindColumn, "public", "101"))
}

func TestCoordinatorRefreshThroughRegistry(t *testing.T) {
	src, _, schema := newFixture(t)
	ctx := context.Background()

	src.seed(core.KindConstraint, "public", "101",
		rec("oid", int64(501), "name", "orders_pkey", "type", "p"))

	orders, err := schema.Relation(ctx, "orders")
	require.NoError(t, err)
	_, err = orders.(*Table).Constraints(ctx)
	require.NoError(t, err)

	src.seedSingle(core.KindTable, "public", "", "101",
		rec("oid", int64(101), "name", "orders", "kind", "r", "owner", "10",
			"description", "coordinated", "persistence", "p"))

	refreshed, err := schema.Coordinator().Refresh(ctx, orders)
	require.NoError(t, err)
	assert.Same(t, orders, refreshed)
	assert.Equal(t, "coordinated", refreshed.(Relation).Description())

	_, err = orders.(*Table).Constraints(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.listCalls(core.KindConstraint, "public", "101"))
}

func TestRefreshObjectGoneEvictsRelation(t *testing.T) {
	_, _, schema := newFixture(t)
	ctx := context.Background()

	orders, err := schema.Relation(ctx, "orders")
	require.NoError(t, err)

	// No single row seeded: the remote reports the table gone.
	_, err = orders.(*Table).RefreshObject(ctx)
	require.Error(t, err)
	assert.True(t, core.IsNotFound(err))

	for _, rel := range schema.CachedRelations() {
		assert.NotEqual(t, "orders", rel.Name())
	}
}

func TestSupportsObjectDefinitionOption(t *testing.T) {
	src, _, schema := newFixture(t)
	ctx := context.Background()

	orders, err := schema.Relation(ctx, "orders")
	require.NoError(t, err)
	view, err := schema.Relation(ctx, "orders_v")
	require.NoError(t, err)

	assert.True(t, orders.SupportsObjectDefinitionOption(OptionIncludeComments))
	assert.True(t, orders.SupportsObjectDefinitionOption(OptionIncludePermissions))
	assert.True(t, orders.SupportsObjectDefinitionOption(OptionOnlyForeignKeys))
	assert.True(t, orders.SupportsObjectDefinitionOption(OptionSkipForeignKeys))
	assert.False(t, orders.SupportsObjectDefinitionOption("ddl.unknown"))

	// Views never take part in foreign key rendering.
	assert.False(t, view.SupportsObjectDefinitionOption(OptionOnlyForeignKeys))
	assert.False(t, view.SupportsObjectDefinitionOption(OptionSkipForeignKeys))
	assert.True(t, view.SupportsObjectDefinitionOption(OptionIncludePermissions))

	src.caps.extraComments = false
	assert.False(t, orders.SupportsObjectDefinitionOption(OptionIncludeComments))
	assert.True(t, orders.SupportsObjectDefinitionOption(OptionIncludePermissions))
}

func TestOwnerResolutionSharesRoleCache(t *testing.T) {
	src, _, schema := newFixture(t)
	ctx := context.Background()

	owner, err := schema.Owner(ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin", owner.Name())
	assert.True(t, owner.Superuser())
	assert.True(t, owner.CanLogin())

	orders, err := schema.Relation(ctx, "orders")
	require.NoError(t, err)
	relOwner, err := orders.(*Table).Owner(ctx)
	require.NoError(t, err)
	assert.Same(t, owner, relOwner)
	assert.Equal(t, 1, src.listCalls(core.KindRole, "", ""))
}

func TestRoleByIDUnknown(t *testing.T) {
	_, db, _ := newFixture(t)
	ctx := context.Background()

	_, err := db.RoleByID(ctx, "999")
	assert.True(t, core.IsNotFound(err))

	_, err = db.RoleByID(ctx, "")
	assert.True(t, core.IsNotFound(err))
}

func TestTablespacesCapabilityGate(t *testing.T) {
	src, db, _ := newFixture(t)
	ctx := context.Background()
	src.seed(core.KindTablespace, "", "",
		rec("oid", int64(1663), "name", "pg_default", "owner", "10", "location", ""))

	src.caps.tablespaces = false
	spaces, err := db.Tablespaces(ctx)
	require.NoError(t, err)
	assert.Empty(t, spaces)
	assert.Equal(t, 0, src.listCalls(core.KindTablespace, "", ""))

	src.caps.tablespaces = true
	spaces, err = db.Tablespaces(ctx)
	require.NoError(t, err)
	require.Len(t, spaces, 1)
	assert.Equal(t, "pg_default", spaces[0].Name())
}

func TestNewTableTransientDefaults(t *testing.T) {
	_, _, schema := newFixture(t)

	a := NewTable(schema, "staging")
	b := NewTable(schema, "staging")
	assert.False(t, a.Persisted())
	assert.Equal(t, core.KindTable, a.ObjectKind())
	assert.Equal(t, PersistencePermanent, a.PersistenceKind())
	assert.Empty(t, a.StorageOptions())
	assert.NotEqual(t, a.ObjectID(), b.ObjectID())
}

func TestColumnHiddenByPosition(t *testing.T) {
	src, _, schema := newFixture(t)
	ctx := context.Background()

	src.seed(core.KindColumn, "public", "101",
		rec("oid", int64(1), "name", "id", "position", int64(1)),
		rec("oid", int64(2), "name", "xmin", "position", int64(0)))

	orders, err := schema.Relation(ctx, "orders")
	require.NoError(t, err)
	cols, err := orders.Columns(ctx)
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.False(t, cols[0].Hidden())
	assert.True(t, cols[1].Hidden())
}

func TestColumnByPosition(t *testing.T) {
	src, _, schema := newFixture(t)
	ctx := context.Background()

	src.seed(core.KindColumn, "public", "101",
		rec("oid", int64(1), "name", "id", "position", int64(1)),
		rec("oid", int64(2), "name", "total", "position", int64(2)))

	orders, err := schema.Relation(ctx, "orders")
	require.NoError(t, err)

	col, err := ColumnByPosition(ctx, orders, 2)
	require.NoError(t, err)
	require.NotNil(t, col)
	assert.Equal(t, "total", col.Name())

	col, err = ColumnByPosition(ctx, orders, 9)
	require.NoError(t, err)
	assert.Nil(t, col)
}

func TestConstraintTypeDecoding(t *testing.T) {
	src, _, schema := newFixture(t)
	ctx := context.Background()

	src.seed(core.KindConstraint, "public", "101",
		rec("oid", int64(501), "name", "orders_pkey", "type", "p"),
		rec("oid", int64(502), "name", "orders_fk", "type", "f"),
		rec("oid", int64(503), "name", "orders_chk", "type", "c"),
		rec("oid", int64(504), "name", "orders_excl", "type", "x"),
		rec("oid", int64(505), "name", "orders_uniq", "type", "u"))

	orders, err := schema.Relation(ctx, "orders")
	require.NoError(t, err)
	cons, err := orders.(*Table).Constraints(ctx)
	require.NoError(t, err)
	require.Len(t, cons, 5)
	assert.Equal(t, ConstraintPrimaryKey, cons[0].Type())
	assert.Equal(t, ConstraintForeignKey, cons[1].Type())
	assert.Equal(t, ConstraintCheck, cons[2].Type())
	assert.Equal(t, ConstraintExclusion, cons[3].Type())
	assert.Equal(t, ConstraintUnique, cons[4].Type())
	assert.Same(t, orders, cons[0].Relation())
}

func TestSchemaClearRelationCacheDropsDerivedListings(t *testing.T) {
	src, _, schema := newFixture(t)
	ctx := context.Background()

	src.seed(core.KindColumn, "public", "101",
		rec("oid", int64(1), "name", "id", "position", int64(1)))

	orders, err := schema.Relation(ctx, "orders")
	require.NoError(t, err)
	_, err = orders.Columns(ctx)
	require.NoError(t, err)

	schema.ClearRelationCache()
	assert.Empty(t, schema.CachedRelations())

	_, err = schema.Relations(ctx)
	require.NoError(t, err)
	reloaded, err := schema.Relation(ctx, "orders")
	require.NoError(t, err)
	_, err = reloaded.Columns(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.listCalls(core.KindTable, "public", ""))
	assert.Equal(t, 2, src.listCalls(core.KindColumn, "public", "101"))
}

func TestChangeOwnerSQL(t *testing.T) {
	_, _, schema := newFixture(t)
	ctx := context.Background()

	orders, err := schema.Relation(ctx, "orders")
	require.NoError(t, err)
	table := orders.(*Table)
	assert.Equal(t, "ALTER TABLE public.orders OWNER TO analyst", table.ChangeOwnerSQL("analyst"))
}

// Refreshes rewrite relation attributes in place while holders keep reading
// through the accessors. Meaningful under the race detector.
func TestRelationReadsDuringRefresh(t *testing.T) {
	src, _, schema := newFixture(t)
	ctx := context.Background()

	orders, err := schema.Relation(ctx, "orders")
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			src.seed(core.KindTable, "public", "",
				rec("oid", int64(101), "name", "orders", "kind", "r", "owner", "10",
					"description", fmt.Sprintf("rev %d", i), "persistence", "p"),
				rec("oid", int64(102), "name", "orders_v", "kind", "v", "owner", "10"),
				rec("oid", int64(103), "name", "orders_mv", "kind", "m", "owner", "10"))
			_, err := schema.RefreshRelations(ctx)
			assert.NoError(t, err)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			assert.Equal(t, "orders", orders.Name())
			assert.NotEmpty(t, orders.Description())
			assert.Equal(t, "public.orders", orders.FullyQualifiedName())
		}
	}()
	wg.Wait()

	reloaded, err := schema.Relation(ctx, "orders")
	require.NoError(t, err)
	assert.Same(t, orders, reloaded)
	assert.Equal(t, "rev 99", orders.Description())
}
