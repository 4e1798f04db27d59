package duckdb

import (
	"fmt"

	"github.com/leapstack-labs/metabrowse/pkg/core"
)

// Result columns are aliased to the canonical Record names the model layer
// decodes. DuckDB has no owners, ACLs or tablespaces; those columns are
// simply absent and decode to zero values.

const schemasQuery = `
SELECT oid AS oid,
       schema_name AS name
FROM duckdb_schemas()
WHERE NOT internal
ORDER BY schema_name`

// relationsQuery lists tables and views in one pass with postgres-style
// kind codes so the model layer decodes both dialects the same way.
const relationsQuery = `
SELECT table_oid AS oid,
       table_name AS name,
       'r' AS kind,
       CASE WHEN temporary THEN 't' ELSE 'p' END AS persistence
FROM duckdb_tables()
WHERE schema_name = ? AND NOT internal
UNION ALL
SELECT view_oid AS oid,
       view_name AS name,
       'v' AS kind,
       'p' AS persistence
FROM duckdb_views()
WHERE schema_name = ? AND NOT internal`

const columnsQuery = `
SELECT column_index AS oid,
       column_name AS name,
       column_index AS position,
       data_type AS type_name,
       NOT is_nullable AS not_null,
       internal AS is_hidden,
       column_default AS "default"
FROM duckdb_columns()
WHERE table_oid = ?`

const constraintsQuery = `
SELECT constraint_index AS oid,
       lower(replace(constraint_type, ' ', '_')) || '_' || constraint_index AS name,
       CASE constraint_type
            WHEN 'PRIMARY KEY' THEN 'p'
            WHEN 'FOREIGN KEY' THEN 'f'
            WHEN 'UNIQUE' THEN 'u'
            WHEN 'CHECK' THEN 'c'
            ELSE ''
       END AS type,
       constraint_text AS definition
FROM duckdb_constraints()
WHERE table_oid = ?`

const indexesQuery = `
SELECT index_oid AS oid,
       index_name AS name,
       is_unique AS is_unique,
       is_primary AS is_primary,
       sql AS definition
FROM duckdb_indexes()
WHERE table_oid = ?`

func listQuery(scope core.Scope) (string, []any, error) {
	switch scope.Kind {
	case core.KindSchema:
		return schemasQuery, nil, nil
	case core.KindTable, core.KindView, core.KindMaterializedView:
		return relationsQuery + "\nORDER BY name", []any{scope.Schema, scope.Schema}, nil
	case core.KindColumn:
		return columnsQuery + "\nORDER BY column_index", []any{string(scope.Parent)}, nil
	case core.KindConstraint:
		return constraintsQuery + "\nORDER BY constraint_index", []any{string(scope.Parent)}, nil
	case core.KindIndex:
		return indexesQuery + "\nORDER BY index_name", []any{string(scope.Parent)}, nil
	case core.KindRole, core.KindTablespace:
		// DuckDB has no catalog for these; the listing is empty.
		return "", nil, nil
	default:
		return "", nil, fmt.Errorf("unsupported listing scope %s", scope)
	}
}

func singleQuery(scope core.Scope, id core.ID) (string, []any, error) {
	switch scope.Kind {
	case core.KindTable, core.KindView, core.KindMaterializedView:
		wrapped := fmt.Sprintf("SELECT * FROM (%s) WHERE oid = ?", relationsQuery)
		return wrapped, []any{scope.Schema, scope.Schema, string(id)}, nil
	case core.KindColumn:
		return columnsQuery + "\n  AND column_index = ?", []any{string(scope.Parent), string(id)}, nil
	case core.KindConstraint:
		return constraintsQuery + "\n  AND constraint_index = ?", []any{string(scope.Parent), string(id)}, nil
	case core.KindIndex:
		return indexesQuery + "\n  AND index_oid = ?", []any{string(scope.Parent), string(id)}, nil
	default:
		return "", nil, fmt.Errorf("unsupported single-object scope %s", scope)
	}
}
