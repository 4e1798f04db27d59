package postgres

import (
	"fmt"

	"github.com/leapstack-labs/metabrowse/pkg/core"
)

// Result columns are aliased to the canonical Record names the model layer
// decodes: oid, name, owner, description, kind, acl, options, persistence,
// is_partition, position, type_name, not_null, default, and so on.

const schemasQuery = `
SELECT n.oid AS oid,
       n.nspname AS name,
       n.nspowner::text AS owner,
       pg_catalog.obj_description(n.oid, 'pg_namespace') AS description
FROM pg_catalog.pg_namespace n
WHERE n.nspname NOT LIKE 'pg\_%' AND n.nspname <> 'information_schema'
ORDER BY n.nspname`

const columnsQuery = `
SELECT a.attnum AS oid,
       a.attname AS name,
       a.attnum AS position,
       pg_catalog.format_type(a.atttypid, a.atttypmod) AS type_name,
       a.attnotnull AS not_null,
       a.attisdropped AS is_hidden,
       pg_catalog.pg_get_expr(ad.adbin, ad.adrelid) AS "default",
       pg_catalog.col_description(a.attrelid, a.attnum) AS description
FROM pg_catalog.pg_attribute a
LEFT JOIN pg_catalog.pg_attrdef ad
       ON ad.adrelid = a.attrelid AND ad.adnum = a.attnum
WHERE a.attrelid = $1::oid AND a.attnum > 0 AND NOT a.attisdropped`

const constraintsQuery = `
SELECT con.oid AS oid,
       con.conname AS name,
       con.contype::text AS type,
       pg_catalog.pg_get_constraintdef(con.oid) AS definition
FROM pg_catalog.pg_constraint con
WHERE con.conrelid = $1::oid`

const indexesQuery = `
SELECT ci.oid AS oid,
       ci.relname AS name,
       i.indisunique AS is_unique,
       i.indisprimary AS is_primary,
       pg_catalog.pg_get_indexdef(i.indexrelid) AS definition,
       ts.spcname AS tablespace
FROM pg_catalog.pg_index i
JOIN pg_catalog.pg_class ci ON ci.oid = i.indexrelid
LEFT JOIN pg_catalog.pg_tablespace ts ON ts.oid = ci.reltablespace
WHERE i.indrelid = $1::oid`

const rolesQuery = `
SELECT r.oid AS oid,
       r.rolname AS name,
       r.rolsuper AS is_superuser,
       r.rolcanlogin AS can_login
FROM pg_catalog.pg_roles r
ORDER BY r.rolname`

const tablespacesQuery = `
SELECT t.oid AS oid,
       t.spcname AS name,
       t.spcowner::text AS owner,
       pg_catalog.pg_tablespace_location(t.oid) AS location
FROM pg_catalog.pg_tablespace t
ORDER BY t.spcname`

// relationsQuery builds the relation listing. relispartition only exists on
// servers with native partitioning.
func (s *Source) relationsQuery() string {
	partition := "false AS is_partition"
	if s.caps.SupportsPartitions() {
		partition = "c.relispartition AS is_partition"
	}
	return fmt.Sprintf(`
SELECT c.oid AS oid,
       c.relname AS name,
       c.relkind::text AS kind,
       c.relowner::text AS owner,
       pg_catalog.obj_description(c.oid, 'pg_class') AS description,
       c.relacl::text AS acl,
       c.reloptions::text AS options,
       c.relpersistence::text AS persistence,
       %s
FROM pg_catalog.pg_class c
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
WHERE n.nspname = $1 AND c.relkind IN ('r','p','v','m')`, partition)
}

func (s *Source) listQuery(scope core.Scope) (string, []any, error) {
	switch scope.Kind {
	case core.KindSchema:
		return schemasQuery, nil, nil
	case core.KindTable, core.KindView, core.KindMaterializedView:
		return s.relationsQuery() + "\nORDER BY c.relname", []any{scope.Schema}, nil
	case core.KindColumn:
		return columnsQuery + "\nORDER BY a.attnum", []any{string(scope.Parent)}, nil
	case core.KindConstraint:
		return constraintsQuery + "\nORDER BY con.conname", []any{string(scope.Parent)}, nil
	case core.KindIndex:
		return indexesQuery + "\nORDER BY ci.relname", []any{string(scope.Parent)}, nil
	case core.KindRole:
		return rolesQuery, nil, nil
	case core.KindTablespace:
		return tablespacesQuery, nil, nil
	default:
		return "", nil, fmt.Errorf("unsupported listing scope %s", scope)
	}
}

func (s *Source) singleQuery(scope core.Scope, id core.ID) (string, []any, error) {
	switch scope.Kind {
	case core.KindTable, core.KindView, core.KindMaterializedView:
		return s.relationsQuery() + "\n  AND c.oid = $2::oid", []any{scope.Schema, string(id)}, nil
	case core.KindColumn:
		return columnsQuery + "\n  AND a.attnum = $2::int2", []any{string(scope.Parent), string(id)}, nil
	case core.KindConstraint:
		return constraintsQuery + "\n  AND con.oid = $2::oid", []any{string(scope.Parent), string(id)}, nil
	case core.KindIndex:
		return indexesQuery + "\n  AND ci.oid = $2::oid", []any{string(scope.Parent), string(id)}, nil
	default:
		return "", nil, fmt.Errorf("unsupported single-object scope %s", scope)
	}
}
