package introspect

import (
	"context"
	"database/sql"

	"github.com/tordrt/schemadiff/schema"
)

// MySQLIntrospector reads table shapes from information_schema. MySQL
// realizes unique constraints as unique indexes, so every unique non-primary
// index is reported as a unique constraint and only non-unique indexes end
// up in the plain index list.
type MySQLIntrospector struct {
	client     *MySQLClient
	schemaName string
}

// NewMySQLIntrospector creates an introspector for the given database.
func NewMySQLIntrospector(client *MySQLClient, schemaName string) *MySQLIntrospector {
	return &MySQLIntrospector{client: client, schemaName: schemaName}
}

type mysqlColumnRow struct {
	Name     string         `db:"column_name"`
	Type     string         `db:"column_type"`
	Nullable string         `db:"is_nullable"`
	Default  sql.NullString `db:"column_default"`
}

type mysqlIndexRow struct {
	IndexName  string `db:"index_name"`
	NonUnique  int    `db:"non_unique"`
	SeqInIndex int    `db:"seq_in_index"`
	ColumnName string `db:"column_name"`
}

type mysqlForeignKeyRow struct {
	ConstraintName string `db:"constraint_name"`
	ColumnName     string `db:"column_name"`
	RefTableName   string `db:"referenced_table_name"`
	RefColumnName  string `db:"referenced_column_name"`
	DeleteRule     string `db:"delete_rule"`
	UpdateRule     string `db:"update_rule"`
}

// IntrospectTable returns the table's current shape.
func (in *MySQLIntrospector) IntrospectTable(ctx context.Context, tableName string) (*schema.Table, error) {
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
	if err := in.readForeignKeys(ctx, table); err != nil {
		return nil, &CatalogQueryError{Table: tableName, Detail: "reading foreign keys", Err: err}
	}
	if err := in.readIndexes(ctx, table); err != nil {
		return nil, &CatalogQueryError{Table: tableName, Detail: "reading indexes", Err: err}
	}
	return table, nil
}

func (in *MySQLIntrospector) tableExists(ctx context.Context, tableName string) (bool, error) {
	var count int
	query := `
		SELECT count(*)
		FROM information_schema.tables
		WHERE table_schema = ? AND table_name = ? AND table_type = 'BASE TABLE'
	`
	if err := in.client.DB().GetContext(ctx, &count, query, in.schemaName, tableName); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (in *MySQLIntrospector) readColumns(ctx context.Context, table *schema.Table) error {
	var rows []mysqlColumnRow
	query := `
		SELECT column_name, column_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position
	`
	if err := in.client.DB().SelectContext(ctx, &rows, query, in.schemaName, table.Name); err != nil {
		return err
	}
	for i, row := range rows {
		col := schema.Column{
			Name:     row.Name,
			Type:     schema.ParseType(row.Type),
			Nullable: row.Nullable == "YES",
			Position: i,
		}
		if row.Default.Valid {
			d := row.Default.String
			col.Default = &d
		}
		table.Columns = append(table.Columns, col)
	}
	return nil
}

func (in *MySQLIntrospector) readIndexes(ctx context.Context, table *schema.Table) error {
	var rows []mysqlIndexRow
	query := `
		SELECT index_name, non_unique, seq_in_index, column_name
		FROM information_schema.statistics
		WHERE table_schema = ? AND table_name = ?
		ORDER BY index_name, seq_in_index
	`
	if err := in.client.DB().SelectContext(ctx, &rows, query, in.schemaName, table.Name); err != nil {
		return err
	}

	byIndex := make(map[string][]mysqlIndexRow)
	var order []string
	for _, row := range rows {
		if _, seen := byIndex[row.IndexName]; !seen {
			order = append(order, row.IndexName)
		}
		byIndex[row.IndexName] = append(byIndex[row.IndexName], row)
	}

	// Indexes MySQL created to back a foreign key share the constraint's
	// name; they belong to the constraint, not the plain index list.
	fkNames := make(map[string]bool, len(table.ForeignKeys))
	for _, fk := range table.ForeignKeys {
		fkNames[fk.Name] = true
	}

	for _, name := range order {
		if fkNames[name] {
			continue
		}
		entries := byIndex[name]
		columns := make([]string, len(entries))
		for i, e := range entries {
			columns[i] = e.ColumnName
		}
		switch {
		case name == "PRIMARY":
			table.PrimaryKey = &schema.PrimaryKey{Columns: columns}
		case entries[0].NonUnique == 0:
			table.Uniques = append(table.Uniques, schema.UniqueConstraint{
				Name:         name,
				Columns:      columns,
				BackingIndex: name,
			})
		default:
			table.Indexes = append(table.Indexes, schema.Index{
				Name:    name,
				Columns: columns,
				Backing: schema.BackingPlain,
			})
		}
	}
	return nil
}

func (in *MySQLIntrospector) readForeignKeys(ctx context.Context, table *schema.Table) error {
	var rows []mysqlForeignKeyRow
	query := `
		SELECT kcu.constraint_name, kcu.column_name, kcu.referenced_table_name,
			kcu.referenced_column_name, rc.delete_rule, rc.update_rule
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.referential_constraints rc
			ON rc.constraint_schema = kcu.constraint_schema
			AND rc.constraint_name = kcu.constraint_name
		WHERE kcu.table_schema = ? AND kcu.table_name = ?
			AND kcu.referenced_table_name IS NOT NULL
		ORDER BY kcu.constraint_name, kcu.ordinal_position
	`
	if err := in.client.DB().SelectContext(ctx, &rows, query, in.schemaName, table.Name); err != nil {
		return err
	}

	var current *schema.ForeignKey
	for _, row := range rows {
		if current == nil || current.Name != row.ConstraintName {
			if current != nil {
				table.ForeignKeys = append(table.ForeignKeys, *current)
			}
			current = &schema.ForeignKey{
				Name:     row.ConstraintName,
				RefTable: row.RefTableName,
				OnDelete: parseAction(row.DeleteRule),
				OnUpdate: parseAction(row.UpdateRule),
			}
		}
		current.Columns = append(current.Columns, row.ColumnName)
		current.RefColumns = append(current.RefColumns, row.RefColumnName)
	}
	if current != nil {
		table.ForeignKeys = append(table.ForeignKeys, *current)
	}
	return nil
}
