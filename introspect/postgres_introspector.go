package introspect

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tordrt/schemadiff/schema"
)

// PostgresIntrospector reads table shapes from the PostgreSQL catalogs.
// Unlike SQLite, the constraint catalog names constraints directly, so no
// names need to be synthesized.
type PostgresIntrospector struct {
	client     *PostgresClient
	schemaName string
}

// NewPostgresIntrospector creates an introspector for the given schema.
// An empty schemaName defaults to "public".
func NewPostgresIntrospector(client *PostgresClient, schemaName string) *PostgresIntrospector {
	if schemaName == "" {
		schemaName = "public"
	}
	return &PostgresIntrospector{client: client, schemaName: schemaName}
}

// IntrospectTable returns the table's current shape.
func (in *PostgresIntrospector) IntrospectTable(ctx context.Context, tableName string) (*schema.Table, error) {
	exists, err := in.tableExists(ctx, tableName)
	if err != nil {
		return nil, &CatalogQueryError{Table: tableName, Detail: "checking table existence", Err: err}
	}
	if !exists {
		return nil, &TableNotFoundError{Table: tableName}
	}

	table := &schema.Table{Name: tableName}
	if err := in.readColumns(ctx, table); err != nil {
		return nil, &CatalogQueryError{Table: tableName, Detail: "reading columns", Err: err}
	}
	if err := in.readPrimaryKey(ctx, table); err != nil {
		return nil, &CatalogQueryError{Table: tableName, Detail: "reading primary key", Err: err}
	}
	if err := in.readUniqueConstraints(ctx, table); err != nil {
		return nil, &CatalogQueryError{Table: tableName, Detail: "reading unique constraints", Err: err}
	}
	if err := in.readForeignKeys(ctx, table); err != nil {
		return nil, &CatalogQueryError{Table: tableName, Detail: "reading foreign keys", Err: err}
	}
	if err := in.readIndexes(ctx, table); err != nil {
		return nil, &CatalogQueryError{Table: tableName, Detail: "reading indexes", Err: err}
	}
	return table, nil
}

func (in *PostgresIntrospector) tableExists(ctx context.Context, tableName string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = $1 AND table_name = $2 AND table_type = 'BASE TABLE'
		)
	`
	var exists bool
	err := in.client.Conn().QueryRow(ctx, query, in.schemaName, tableName).Scan(&exists)
	return exists, err
}

func (in *PostgresIntrospector) readColumns(ctx context.Context, table *schema.Table) error {
	query := `
		SELECT column_name, data_type, is_nullable, column_default, character_maximum_length
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`
	rows, err := in.client.Conn().Query(ctx, query, in.schemaName, table.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	pos := 0
	for rows.Next() {
		var name, dataType, nullable string
		var defaultVal sql.NullString
		var maxLength sql.NullInt64
		if err := rows.Scan(&name, &dataType, &nullable, &defaultVal, &maxLength); err != nil {
			return err
		}
		raw := dataType
		if maxLength.Valid {
			raw = fmt.Sprintf("%s(%d)", dataType, maxLength.Int64)
		}
		col := schema.Column{
			Name:     name,
			Type:     schema.ParseType(raw),
			Nullable: nullable == "YES",
			Position: pos,
		}
		if defaultVal.Valid {
			d := defaultVal.String
			col.Default = &d
		}
		table.Columns = append(table.Columns, col)
		pos++
	}
	return rows.Err()
}

func (in *PostgresIntrospector) readPrimaryKey(ctx context.Context, table *schema.Table) error {
	query := `
		SELECT c.conname, a.attname
		FROM pg_constraint c
		JOIN pg_class t ON t.oid = c.conrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		CROSS JOIN LATERAL unnest(c.conkey) WITH ORDINALITY AS k(attnum, ord)
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
		WHERE c.contype = 'p' AND n.nspname = $1 AND t.relname = $2
		ORDER BY k.ord
	`
	rows, err := in.client.Conn().Query(ctx, query, in.schemaName, table.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	var pk schema.PrimaryKey
	for rows.Next() {
		var conname, attname string
		if err := rows.Scan(&conname, &attname); err != nil {
			return err
		}
		pk.Name = conname
		pk.Columns = append(pk.Columns, attname)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(pk.Columns) > 0 {
		table.PrimaryKey = &pk
	}
	return nil
}

func (in *PostgresIntrospector) readUniqueConstraints(ctx context.Context, table *schema.Table) error {
	query := `
		SELECT c.conname, ci.relname, a.attname
		FROM pg_constraint c
		JOIN pg_class t ON t.oid = c.conrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_class ci ON ci.oid = c.conindid
		CROSS JOIN LATERAL unnest(c.conkey) WITH ORDINALITY AS k(attnum, ord)
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
		WHERE c.contype = 'u' AND n.nspname = $1 AND t.relname = $2
		ORDER BY c.conname, k.ord
	`
	rows, err := in.client.Conn().Query(ctx, query, in.schemaName, table.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	var current *schema.UniqueConstraint
	for rows.Next() {
		var conname, indexName, attname string
		if err := rows.Scan(&conname, &indexName, &attname); err != nil {
			return err
		}
		if current == nil || current.Name != conname {
			if current != nil {
				table.Uniques = append(table.Uniques, *current)
			}
			current = &schema.UniqueConstraint{Name: conname, BackingIndex: indexName}
		}
		current.Columns = append(current.Columns, attname)
	}
	if current != nil {
		table.Uniques = append(table.Uniques, *current)
	}
	return rows.Err()
}

func (in *PostgresIntrospector) readForeignKeys(ctx context.Context, table *schema.Table) error {
	query := `
		SELECT c.conname, a.attname, ft.relname, fa.attname, c.confdeltype, c.confupdtype
		FROM pg_constraint c
		JOIN pg_class t ON t.oid = c.conrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_class ft ON ft.oid = c.confrelid
		CROSS JOIN LATERAL unnest(c.conkey, c.confkey) WITH ORDINALITY AS k(attnum, fattnum, ord)
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
		JOIN pg_attribute fa ON fa.attrelid = ft.oid AND fa.attnum = k.fattnum
		WHERE c.contype = 'f' AND n.nspname = $1 AND t.relname = $2
		ORDER BY c.conname, k.ord
	`
	rows, err := in.client.Conn().Query(ctx, query, in.schemaName, table.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	var current *schema.ForeignKey
	for rows.Next() {
		var conname, column, refTable, refColumn, delType, updType string
		if err := rows.Scan(&conname, &column, &refTable, &refColumn, &delType, &updType); err != nil {
			return err
		}
		if current == nil || current.Name != conname {
			if current != nil {
				table.ForeignKeys = append(table.ForeignKeys, *current)
			}
			current = &schema.ForeignKey{
				Name:     conname,
				RefTable: refTable,
				OnDelete: parseActionCode(delType),
				OnUpdate: parseActionCode(updType),
			}
		}
		current.Columns = append(current.Columns, column)
		current.RefColumns = append(current.RefColumns, refColumn)
	}
	if current != nil {
		table.ForeignKeys = append(table.ForeignKeys, *current)
	}
	return rows.Err()
}

// readIndexes collects indexes that are not associated with any constraint
// row: those are the only ones the model lists as plain indexes.
func (in *PostgresIntrospector) readIndexes(ctx context.Context, table *schema.Table) error {
	query := `
		SELECT i.relname,
			ix.indisunique,
			array_agg(a.attname ORDER BY array_position(ix.indkey, a.attnum)) AS column_names
		FROM pg_class t
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE t.relkind = 'r'
			AND n.nspname = $1
			AND t.relname = $2
			AND NOT ix.indisprimary
			AND NOT EXISTS (SELECT 1 FROM pg_constraint cc WHERE cc.conindid = ix.indexrelid)
		GROUP BY i.relname, ix.indisunique
		ORDER BY i.relname
	`
	rows, err := in.client.Conn().Query(ctx, query, in.schemaName, table.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var idx schema.Index
		if err := rows.Scan(&idx.Name, &idx.Unique, &idx.Columns); err != nil {
			return err
		}
		idx.Backing = schema.BackingPlain
		table.Indexes = append(table.Indexes, idx)
	}
	return rows.Err()
}

// parseActionCode maps pg_constraint action codes to referential actions.
func parseActionCode(code string) schema.ReferentialAction {
	switch code {
	case "c":
		return schema.ActionCascade
	case "r":
		return schema.ActionRestrict
	case "n":
		return schema.ActionSetNull
	case "d":
		return schema.ActionSetDefault
	default:
		return schema.ActionNoAction
	}
}
