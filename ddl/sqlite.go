package ddl

import (
	"fmt"
	"strings"

	"github.com/tordrt/schemadiff/diff"
	"github.com/tordrt/schemadiff/naming"
	"github.com/tordrt/schemadiff/schema"
)

// sqliteGenerator renders operations for SQLite.
//
// SQLite's ALTER TABLE covers only renames and column adds, so primary key,
// foreign key, and autoindex-backed unique changes are realized by
// rebuilding the table: create a shadow table with the target shape, copy
// the rows, drop the original, and rename the shadow into place. The whole
// sequence runs inside one transaction bracketed by foreign-key pragmas,
// which SQLite forbids toggling mid-transaction; the executor must treat
// the pragma-to-pragma span as indivisible.
type sqliteGenerator struct{}

func (g *sqliteGenerator) Dialect() Dialect { return SQLite }

func (g *sqliteGenerator) Generate(op diff.Operation) ([]string, error) {
	const d = SQLite
	switch op := op.(type) {
	case *diff.CreateTable:
		return createTableStatements(op.Table, d), nil

	case *diff.DropTable:
		return []string{"DROP TABLE IF EXISTS " + quoteIdent(op.Name, d)}, nil

	case *diff.RenameTable:
		return []string{"ALTER TABLE " + quoteIdent(op.From, d) + " RENAME TO " + quoteIdent(op.To, d)}, nil

	case *diff.AddColumn:
		return []string{"ALTER TABLE " + quoteIdent(op.Table, d) + " ADD COLUMN " + columnDef(op.Column, d)}, nil

	case *diff.DropColumn:
		if op.TableInfo != nil {
			return g.recreate(op.TableInfo, op, "drop_column_"+op.Column.Name, nil)
		}
		// Without a snapshot, fall back to the direct form (SQLite >= 3.35).
		return []string{"ALTER TABLE " + quoteIdent(op.Table, d) + " DROP COLUMN " + quoteIdent(op.Column.Name, d)}, nil

	case *diff.RenameColumn:
		return []string{"ALTER TABLE " + quoteIdent(op.Table, d) + " RENAME COLUMN " + quoteIdent(op.From, d) + " TO " + quoteIdent(op.To, d)}, nil

	case *diff.AlterColumn:
		if op.TableInfo == nil {
			return nil, g.needsSnapshot(op.Table, "AlterColumn", op.To.Name, "")
		}
		selects := map[string]string{}
		if !op.From.Type.Equal(op.To.Type) {
			// Copy through a cast so the stored values take on the new type.
			selects[op.To.Name] = "CAST(" + quoteIdent(op.To.Name, d) + " AS " + typeSQL(op.To.Type, d) + ")"
		}
		return g.recreate(op.TableInfo, op, "alter_column_"+op.To.Name, selects)

	case *diff.AddPrimaryKey:
		if op.TableInfo == nil {
			return nil, g.needsSnapshot(op.Table, "AddPrimaryKey", "", op.PrimaryKey.Name)
		}
		return g.recreate(op.TableInfo, op, "add_pk", nil)

	case *diff.DropPrimaryKey:
		if op.TableInfo == nil {
			return nil, g.needsSnapshot(op.Table, "DropPrimaryKey", "", op.PrimaryKey.Name)
		}
		return g.recreate(op.TableInfo, op, "drop_pk", nil)

	case *diff.AddForeignKey:
		if op.TableInfo == nil {
			return nil, g.needsSnapshot(op.Table, "AddForeignKey", "", op.ForeignKey.Name)
		}
		return g.recreate(op.TableInfo, op, "add_fk_"+strings.Join(op.ForeignKey.Columns, "_"), nil)

	case *diff.DropForeignKey:
		if op.TableInfo == nil {
			return nil, g.needsSnapshot(op.Table, "DropForeignKey", "", op.ForeignKey.Name)
		}
		return g.recreate(op.TableInfo, op, "drop_fk_"+strings.Join(op.ForeignKey.Columns, "_"), nil)

	case *diff.AddUnique:
		name := op.Constraint.Name
		if name == "" {
			name = naming.Constraint(naming.Unique, op.Table, op.Constraint.Columns)
		}
		// A named unique index is the droppable representation; rebuild only
		// when the name is already claimed on the table.
		if op.TableInfo != nil && nameTakenOn(op.TableInfo, name) {
			return g.recreate(op.TableInfo, op, "add_uk_"+name, nil)
		}
		idx := schema.Index{Name: name, Columns: op.Constraint.Columns, Unique: true}
		return []string{createIndexSQL(op.Table, idx, d)}, nil

	case *diff.DropUnique:
		if backing := op.Constraint.BackingIndex; backing != "" && !strings.HasPrefix(backing, "sqlite_autoindex_") {
			return []string{"DROP INDEX IF EXISTS " + quoteIdent(backing, d)}, nil
		}
		// Constraint is backed by an automatic index; DROP INDEX would be
		// rejected, so the table is rebuilt without the constraint.
		if op.TableInfo == nil {
			return nil, g.needsSnapshot(op.Table, "DropUnique", "", op.Constraint.Name)
		}
		return g.recreate(op.TableInfo, op, "drop_uk_"+op.Constraint.Name, nil)

	case *diff.CreateIndex:
		if err := plainIndexOnly(d, op.Table, op.Index, "CreateIndex"); err != nil {
			return nil, err
		}
		return []string{createIndexSQL(op.Table, op.Index, d)}, nil

	case *diff.DropIndex:
		if err := plainIndexOnly(d, op.Table, op.Index, "DropIndex"); err != nil {
			return nil, err
		}
		return []string{"DROP INDEX IF EXISTS " + quoteIdent(op.Index.Name, d)}, nil

	default:
		return nil, fmt.Errorf("sqlite: unknown operation %T", op)
	}
}

// recreate renders the full table rebuild for op: compute the target shape
// in memory, create a shadow table with it, copy the rows the two shapes
// have in common, swap the tables, and recreate the plain indexes.
// Constraint-backed indexes come back implicitly with the shadow table's
// inline constraint clauses and are never issued as CREATE INDEX.
//
// selectExprs optionally overrides the copy expression per target column;
// unlisted columns copy verbatim.
func (g *sqliteGenerator) recreate(current *schema.Table, op diff.Operation, tag string, selectExprs map[string]string) ([]string, error) {
	const d = SQLite
	target, err := diff.Apply(op, current)
	if err != nil {
		return nil, fmt.Errorf("sqlite: computing target shape: %w", err)
	}

	var insertCols, selects []string
	for _, c := range target.Columns {
		if !current.HasColumn(c.Name) {
			continue
		}
		insertCols = append(insertCols, quoteIdent(c.Name, d))
		if expr, ok := selectExprs[c.Name]; ok {
			selects = append(selects, expr)
		} else {
			selects = append(selects, quoteIdent(c.Name, d))
		}
	}
	if len(insertCols) == 0 && len(current.Columns) > 0 {
		return nil, &UnsupportedMigrationError{
			Dialect: d,
			Table:   current.Name,
			Op:      opName(op),
			Reason:  "old and new shapes share no columns; existing rows cannot be carried over",
		}
	}

	shadow := target.Clone()
	shadow.Name = naming.ShadowTable(current.Name, tag)

	stmts := []string{
		"PRAGMA foreign_keys = OFF",
		"BEGIN",
		createTableSQL(shadow, d, false),
	}
	if len(insertCols) > 0 {
		stmts = append(stmts, fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
			quoteIdent(shadow.Name, d),
			strings.Join(insertCols, ", "),
			strings.Join(selects, ", "),
			quoteIdent(current.Name, d)))
	}
	stmts = append(stmts,
		"DROP TABLE "+quoteIdent(current.Name, d),
		"ALTER TABLE "+quoteIdent(shadow.Name, d)+" RENAME TO "+quoteIdent(target.Name, d))
	for _, idx := range target.Indexes {
		stmts = append(stmts, createIndexSQL(target.Name, idx, d))
	}
	stmts = append(stmts, "COMMIT", "PRAGMA foreign_keys = ON")
	return stmts, nil
}

func (g *sqliteGenerator) needsSnapshot(table, op, column, constraint string) error {
	return &UnsupportedMigrationError{
		Dialect:    SQLite,
		Table:      table,
		Column:     column,
		Constraint: constraint,
		Op:         op,
		Reason:     "operation requires a table rebuild, which needs the table snapshot captured at diff time",
	}
}

func nameTakenOn(t *schema.Table, name string) bool {
	if name == "" {
		return false
	}
	for _, u := range t.Uniques {
		if u.Name == name || u.BackingIndex == name {
			return true
		}
	}
	for _, idx := range t.Indexes {
		if idx.Name == name {
			return true
		}
	}
	return false
}

func opName(op diff.Operation) string {
	switch op.(type) {
	case *diff.CreateTable:
		return "CreateTable"
	case *diff.DropTable:
		return "DropTable"
	case *diff.RenameTable:
		return "RenameTable"
	case *diff.AddColumn:
		return "AddColumn"
	case *diff.DropColumn:
		return "DropColumn"
	case *diff.AlterColumn:
		return "AlterColumn"
	case *diff.RenameColumn:
		return "RenameColumn"
	case *diff.AddPrimaryKey:
		return "AddPrimaryKey"
	case *diff.DropPrimaryKey:
		return "DropPrimaryKey"
	case *diff.AddUnique:
		return "AddUnique"
	case *diff.DropUnique:
		return "DropUnique"
	case *diff.AddForeignKey:
		return "AddForeignKey"
	case *diff.DropForeignKey:
		return "DropForeignKey"
	case *diff.CreateIndex:
		return "CreateIndex"
	case *diff.DropIndex:
		return "DropIndex"
	default:
		return fmt.Sprintf("%T", op)
	}
}
