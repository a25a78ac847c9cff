package ddl

import (
	"fmt"
	"strings"

	"github.com/tordrt/schemadiff/diff"
	"github.com/tordrt/schemadiff/naming"
)

// mysqlGenerator renders operations for MySQL. Constraint changes have
// direct ALTER TABLE forms; a column alteration requires restating the full
// column definition with MODIFY COLUMN.
type mysqlGenerator struct{}

func (g *mysqlGenerator) Dialect() Dialect { return MySQL }

func (g *mysqlGenerator) Generate(op diff.Operation) ([]string, error) {
	const d = MySQL
	switch op := op.(type) {
	case *diff.CreateTable:
		return createTableStatements(op.Table, d), nil

	case *diff.DropTable:
		return []string{"DROP TABLE IF EXISTS " + quoteIdent(op.Name, d)}, nil

	case *diff.RenameTable:
		return []string{"RENAME TABLE " + quoteIdent(op.From, d) + " TO " + quoteIdent(op.To, d)}, nil

	case *diff.AddColumn:
		return []string{"ALTER TABLE " + quoteIdent(op.Table, d) + " ADD COLUMN " + columnDef(op.Column, d)}, nil

	case *diff.DropColumn:
		return []string{"ALTER TABLE " + quoteIdent(op.Table, d) + " DROP COLUMN " + quoteIdent(op.Column.Name, d)}, nil

	case *diff.RenameColumn:
		return []string{"ALTER TABLE " + quoteIdent(op.Table, d) + " RENAME COLUMN " + quoteIdent(op.From, d) + " TO " + quoteIdent(op.To, d)}, nil

	case *diff.AlterColumn:
		return []string{"ALTER TABLE " + quoteIdent(op.Table, d) + " MODIFY COLUMN " + columnDef(op.To, d)}, nil

	case *diff.AddPrimaryKey:
		return []string{fmt.Sprintf("ALTER TABLE %s ADD PRIMARY KEY (%s)",
			quoteIdent(op.Table, d), strings.Join(quoteIdents(op.PrimaryKey.Columns, d), ", "))}, nil

	case *diff.DropPrimaryKey:
		return []string{"ALTER TABLE " + quoteIdent(op.Table, d) + " DROP PRIMARY KEY"}, nil

	case *diff.AddUnique:
		name := op.Constraint.Name
		if name == "" {
			name = naming.Constraint(naming.Unique, op.Table, op.Constraint.Columns)
		}
		return []string{fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s)",
			quoteIdent(op.Table, d), quoteIdent(name, d), strings.Join(quoteIdents(op.Constraint.Columns, d), ", "))}, nil

	case *diff.DropUnique:
		// MySQL realizes a unique constraint as a unique index of the same
		// name.
		return []string{"ALTER TABLE " + quoteIdent(op.Table, d) + " DROP INDEX " + quoteIdent(op.Constraint.Name, d)}, nil

	case *diff.AddForeignKey:
		return []string{"ALTER TABLE " + quoteIdent(op.Table, d) + " ADD " + foreignKeyClause(op.Table, op.ForeignKey, d)}, nil

	case *diff.DropForeignKey:
		name := op.ForeignKey.Name
		if name == "" {
			name = naming.Constraint(naming.ForeignKey, op.Table, op.ForeignKey.Columns)
		}
		return []string{"ALTER TABLE " + quoteIdent(op.Table, d) + " DROP FOREIGN KEY " + quoteIdent(name, d)}, nil

	case *diff.CreateIndex:
		if err := plainIndexOnly(d, op.Table, op.Index, "CreateIndex"); err != nil {
			return nil, err
		}
		return []string{createIndexSQL(op.Table, op.Index, d)}, nil

	case *diff.DropIndex:
		if err := plainIndexOnly(d, op.Table, op.Index, "DropIndex"); err != nil {
			return nil, err
		}
		return []string{"DROP INDEX " + quoteIdent(op.Index.Name, d) + " ON " + quoteIdent(op.Table, d)}, nil

	default:
		return nil, fmt.Errorf("mysql: unknown operation %T", op)
	}
}
