package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/tordrt/schemadiff/naming"
	"github.com/tordrt/schemadiff/schema"
)

// SQLiteIntrospector reads table shapes from a SQLite database via the
// table_info, index_list, index_info, and foreign_key_list pragmas.
type SQLiteIntrospector struct {
	client *SQLiteClient
}

// NewSQLiteIntrospector creates a new SQLite introspector.
func NewSQLiteIntrospector(client *SQLiteClient) *SQLiteIntrospector {
	return &SQLiteIntrospector{client: client}
}

type sqliteColumnRow struct {
	CID     int            `db:"cid"`
	Name    string         `db:"name"`
	Type    string         `db:"type"`
	NotNull int            `db:"notnull"`
	Default sql.NullString `db:"dflt_value"`
	PK      int            `db:"pk"`
}

type sqliteIndexRow struct {
	Seq     int    `db:"seq"`
	Name    string `db:"name"`
	Unique  int    `db:"unique"`
	Origin  string `db:"origin"`
	Partial int    `db:"partial"`
}

type sqliteIndexColumnRow struct {
	SeqNo int            `db:"seqno"`
	CID   int            `db:"cid"`
	Name  sql.NullString `db:"name"`
}

type sqliteForeignKeyRow struct {
	ID       int            `db:"id"`
	Seq      int            `db:"seq"`
	Table    string         `db:"table"`
	From     string         `db:"from"`
	To       sql.NullString `db:"to"`
	OnUpdate string         `db:"on_update"`
	OnDelete string         `db:"on_delete"`
	Match    string         `db:"match"`
}

// IntrospectTable returns the table's current shape. Unique constraints
// backed by automatic sqlite_autoindex_* indexes get deterministic
// synthesized names, and the indexes backing them (or the primary key) are
// excluded from the plain index list.
func (in *SQLiteIntrospector) IntrospectTable(ctx context.Context, tableName string) (*schema.Table, error) {
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
	if err := in.readIndexes(ctx, table); err != nil {
		return nil, &CatalogQueryError{Table: tableName, Detail: "reading indexes", Err: err}
	}
	if err := in.readForeignKeys(ctx, table); err != nil {
		return nil, &CatalogQueryError{Table: tableName, Detail: "reading foreign keys", Err: err}
	}
	return table, nil
}

func (in *SQLiteIntrospector) tableExists(ctx context.Context, tableName string) (bool, error) {
	var count int
	query := `SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
	if err := in.client.DB().GetContext(ctx, &count, query, tableName); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (in *SQLiteIntrospector) readColumns(ctx context.Context, table *schema.Table) error {
	var rows []sqliteColumnRow
	query := fmt.Sprintf("PRAGMA table_info(%s)", quotePragmaIdent(table.Name))
	if err := in.client.DB().SelectContext(ctx, &rows, query); err != nil {
		return err
	}

	type pkCol struct {
		name  string
		order int
	}
	var pkCols []pkCol
	for i, row := range rows {
		col := schema.Column{
			Name:     row.Name,
			Type:     schema.ParseType(row.Type),
			Nullable: row.NotNull == 0,
			Position: i,
		}
		if row.Default.Valid {
			d := row.Default.String
			col.Default = &d
		}
		table.Columns = append(table.Columns, col)
		if row.PK > 0 {
			pkCols = append(pkCols, pkCol{name: row.Name, order: row.PK})
		}
	}
	if len(pkCols) > 0 {
		sort.Slice(pkCols, func(i, j int) bool { return pkCols[i].order < pkCols[j].order })
		pk := schema.PrimaryKey{}
		for _, c := range pkCols {
			pk.Columns = append(pk.Columns, c.name)
		}
		table.PrimaryKey = &pk
	}
	return nil
}

// readIndexes walks index_list and splits the entries three ways: indexes
// backing the primary key are dropped (the primary key already describes
// them), unique-constraint indexes become UniqueConstraint entries, and
// everything else is a plain index.
func (in *SQLiteIntrospector) readIndexes(ctx context.Context, table *schema.Table) error {
	var rows []sqliteIndexRow
	query := fmt.Sprintf("PRAGMA index_list(%s)", quotePragmaIdent(table.Name))
	if err := in.client.DB().SelectContext(ctx, &rows, query); err != nil {
		return err
	}

	taken := map[string]bool{}
	for _, row := range rows {
		if row.Origin == "pk" {
			continue
		}
		columns, err := in.indexColumns(ctx, row.Name)
		if err != nil {
			return err
		}
		if len(columns) == 0 {
			// Expression index; nothing in the model can describe it.
			continue
		}

		if row.Unique == 1 && isConstraintIndex(row) {
			name := row.Name
			if strings.HasPrefix(name, "sqlite_autoindex_") {
				name = naming.ConstraintAvoiding(naming.Unique, table.Name, columns, taken)
			}
			taken[name] = true
			table.Uniques = append(table.Uniques, schema.UniqueConstraint{
				Name:         name,
				Columns:      columns,
				BackingIndex: row.Name,
			})
			continue
		}

		taken[row.Name] = true
		table.Indexes = append(table.Indexes, schema.Index{
			Name:    row.Name,
			Columns: columns,
			Unique:  row.Unique == 1,
			Backing: schema.BackingPlain,
		})
	}
	return nil
}

// isConstraintIndex reports whether a unique index represents a unique
// constraint rather than a freestanding index: either SQLite created it for
// a UNIQUE clause, or it carries the canonical uk_ prefix this toolkit
// assigns when realizing constraints as named unique indexes.
func isConstraintIndex(row sqliteIndexRow) bool {
	if row.Origin == "u" {
		return true
	}
	return strings.HasPrefix(row.Name, "sqlite_autoindex_") || strings.HasPrefix(row.Name, "uk_")
}

func (in *SQLiteIntrospector) indexColumns(ctx context.Context, indexName string) ([]string, error) {
	var rows []sqliteIndexColumnRow
	query := fmt.Sprintf("PRAGMA index_info(%s)", quotePragmaIdent(indexName))
	if err := in.client.DB().SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].SeqNo < rows[j].SeqNo })
	var columns []string
	for _, row := range rows {
		if row.Name.Valid {
			columns = append(columns, row.Name.String)
		}
	}
	return columns, nil
}

func (in *SQLiteIntrospector) readForeignKeys(ctx context.Context, table *schema.Table) error {
	var rows []sqliteForeignKeyRow
	query := fmt.Sprintf("PRAGMA foreign_key_list(%s)", quotePragmaIdent(table.Name))
	if err := in.client.DB().SelectContext(ctx, &rows, query); err != nil {
		return err
	}

	// Rows for a multi-column key share an id and are ordered by seq.
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ID != rows[j].ID {
			return rows[i].ID < rows[j].ID
		}
		return rows[i].Seq < rows[j].Seq
	})

	var current *schema.ForeignKey
	currentID := -1
	flush := func() {
		if current != nil {
			current.Name = naming.Constraint(naming.ForeignKey, table.Name, current.Columns)
			table.ForeignKeys = append(table.ForeignKeys, *current)
		}
	}
	for _, row := range rows {
		if row.ID != currentID {
			flush()
			currentID = row.ID
			current = &schema.ForeignKey{
				RefTable: row.Table,
				OnDelete: parseAction(row.OnDelete),
				OnUpdate: parseAction(row.OnUpdate),
			}
		}
		current.Columns = append(current.Columns, row.From)
		current.RefColumns = append(current.RefColumns, row.To.String)
	}
	flush()
	return nil
}

func parseAction(s string) schema.ReferentialAction {
	switch strings.ToUpper(s) {
	case "CASCADE":
		return schema.ActionCascade
	case "RESTRICT":
		return schema.ActionRestrict
	case "SET NULL":
		return schema.ActionSetNull
	case "SET DEFAULT":
		return schema.ActionSetDefault
	default:
		return schema.ActionNoAction
	}
}

// quotePragmaIdent quotes an identifier for interpolation into a PRAGMA,
// which does not accept bound parameters.
func quotePragmaIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
