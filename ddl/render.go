package ddl

import (
	"fmt"
	"strings"

	"github.com/tordrt/schemadiff/naming"
	"github.com/tordrt/schemadiff/schema"
)

// quoteIdent quotes an identifier for the dialect. MySQL uses backticks;
// SQLite and PostgreSQL use double quotes.
func quoteIdent(name string, d Dialect) string {
	if d == MySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteIdents(names []string, d Dialect) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = quoteIdent(n, d)
	}
	return out
}

// typeSQL renders a column type for the dialect. A raw override is emitted
// verbatim; otherwise the logical kind is mapped per dialect.
func typeSQL(t schema.ColumnType, d Dialect) string {
	if t.Raw != "" {
		return t.Raw
	}
	if t.Kind == schema.TypeVarchar {
		length := t.Length
		if length == 0 {
			length = 255
		}
		return fmt.Sprintf("VARCHAR(%d)", length)
	}
	if m, ok := typeNames[d][t.Kind]; ok {
		return m
	}
	return "TEXT"
}

var typeNames = map[Dialect]map[schema.TypeKind]string{
	SQLite: {
		schema.TypeInteger:   "INTEGER",
		schema.TypeBigInt:    "INTEGER",
		schema.TypeSmallInt:  "INTEGER",
		schema.TypeReal:      "REAL",
		schema.TypeDecimal:   "NUMERIC",
		schema.TypeText:      "TEXT",
		schema.TypeBoolean:   "BOOLEAN",
		schema.TypeBlob:      "BLOB",
		schema.TypeTimestamp: "TIMESTAMP",
		schema.TypeDate:      "DATE",
		schema.TypeJSON:      "TEXT",
	},
	Postgres: {
		schema.TypeInteger:   "INTEGER",
		schema.TypeBigInt:    "BIGINT",
		schema.TypeSmallInt:  "SMALLINT",
		schema.TypeReal:      "DOUBLE PRECISION",
		schema.TypeDecimal:   "NUMERIC",
		schema.TypeText:      "TEXT",
		schema.TypeBoolean:   "BOOLEAN",
		schema.TypeBlob:      "BYTEA",
		schema.TypeTimestamp: "TIMESTAMP",
		schema.TypeDate:      "DATE",
		schema.TypeJSON:      "JSONB",
	},
	MySQL: {
		schema.TypeInteger:   "INT",
		schema.TypeBigInt:    "BIGINT",
		schema.TypeSmallInt:  "SMALLINT",
		schema.TypeReal:      "DOUBLE",
		schema.TypeDecimal:   "DECIMAL",
		schema.TypeText:      "TEXT",
		schema.TypeBoolean:   "TINYINT(1)",
		schema.TypeBlob:      "BLOB",
		schema.TypeTimestamp: "DATETIME",
		schema.TypeDate:      "DATE",
		schema.TypeJSON:      "JSON",
	},
}

// columnDef renders "name TYPE [NOT NULL] [DEFAULT expr]".
func columnDef(col schema.Column, d Dialect) string {
	def := quoteIdent(col.Name, d) + " " + typeSQL(col.Type, d)
	if !col.Nullable {
		def += " NOT NULL"
	}
	if col.Default != nil {
		def += " DEFAULT " + *col.Default
	}
	return def
}

// createTableSQL renders the full CREATE TABLE statement with inline primary
// key, unique, and foreign key clauses. Plain indexes are separate
// statements and not included here.
func createTableSQL(t *schema.Table, d Dialect, ifNotExists bool) string {
	parts := make([]string, 0, len(t.Columns)+len(t.Uniques)+len(t.ForeignKeys)+1)
	for _, col := range t.Columns {
		parts = append(parts, columnDef(col, d))
	}
	if t.PrimaryKey != nil {
		clause := "PRIMARY KEY (" + strings.Join(quoteIdents(t.PrimaryKey.Columns, d), ", ") + ")"
		// SQLite primary keys are anonymous.
		if t.PrimaryKey.Name != "" && d != SQLite {
			clause = "CONSTRAINT " + quoteIdent(t.PrimaryKey.Name, d) + " " + clause
		}
		parts = append(parts, clause)
	}
	for _, u := range t.Uniques {
		name := u.Name
		if name == "" {
			name = naming.Constraint(naming.Unique, t.Name, u.Columns)
		}
		parts = append(parts, "CONSTRAINT "+quoteIdent(name, d)+" UNIQUE ("+strings.Join(quoteIdents(u.Columns, d), ", ")+")")
	}
	for _, fk := range t.ForeignKeys {
		parts = append(parts, foreignKeyClause(t.Name, fk, d))
	}

	stmt := "CREATE TABLE "
	if ifNotExists {
		stmt += "IF NOT EXISTS "
	}
	return stmt + quoteIdent(t.Name, d) + " (" + strings.Join(parts, ", ") + ")"
}

func foreignKeyClause(table string, fk schema.ForeignKey, d Dialect) string {
	name := fk.Name
	if name == "" {
		name = naming.Constraint(naming.ForeignKey, table, fk.Columns)
	}
	clause := "CONSTRAINT " + quoteIdent(name, d) +
		" FOREIGN KEY (" + strings.Join(quoteIdents(fk.Columns, d), ", ") + ")" +
		" REFERENCES " + quoteIdent(fk.RefTable, d) +
		" (" + strings.Join(quoteIdents(fk.RefColumns, d), ", ") + ")"
	if fk.OnDelete != "" {
		clause += " ON DELETE " + string(fk.OnDelete)
	}
	if fk.OnUpdate != "" {
		clause += " ON UPDATE " + string(fk.OnUpdate)
	}
	return clause
}

func createIndexSQL(table string, idx schema.Index, d Dialect) string {
	stmt := "CREATE "
	if idx.Unique {
		stmt += "UNIQUE "
	}
	name := idx.Name
	if name == "" {
		name = naming.Constraint(naming.Index, table, idx.Columns)
	}
	return stmt + "INDEX " + quoteIdent(name, d) + " ON " + quoteIdent(table, d) +
		" (" + strings.Join(quoteIdents(idx.Columns, d), ", ") + ")"
}

// plainIndexOnly rejects standalone index operations against an index that
// only exists to back a constraint; such indexes are manipulated through the
// constraint they serve.
func plainIndexOnly(d Dialect, table string, idx schema.Index, op string) error {
	if idx.Backing == schema.BackingPlain {
		return nil
	}
	return &UnsupportedMigrationError{
		Dialect:    d,
		Table:      table,
		Constraint: idx.Name,
		Op:         op,
		Reason:     "index backs a " + idx.Backing.String() + " and cannot be changed on its own",
	}
}

// createTableStatements renders CREATE TABLE plus one CREATE INDEX per plain
// index. New tables are not a special case: their indexes are emitted here.
func createTableStatements(t *schema.Table, d Dialect) []string {
	stmts := []string{createTableSQL(t, d, true)}
	for _, idx := range t.Indexes {
		stmts = append(stmts, createIndexSQL(t.Name, idx, d))
	}
	return stmts
}
