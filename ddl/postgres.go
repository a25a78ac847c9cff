package ddl

import (
	"fmt"
	"strings"

	"github.com/tordrt/schemadiff/diff"
	"github.com/tordrt/schemadiff/naming"
)

// postgresGenerator renders operations for PostgreSQL. Every operation has a
// direct ALTER TABLE form; column alterations split into one ALTER COLUMN
// clause per changed property.
type postgresGenerator struct{}

func (g *postgresGenerator) Dialect() Dialect { return Postgres }

func (g *postgresGenerator) Generate(op diff.Operation) ([]string, error) {
	const d = Postgres
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
		return []string{"ALTER TABLE " + quoteIdent(op.Table, d) + " DROP COLUMN " + quoteIdent(op.Column.Name, d)}, nil

	case *diff.RenameColumn:
		return []string{"ALTER TABLE " + quoteIdent(op.Table, d) + " RENAME COLUMN " + quoteIdent(op.From, d) + " TO " + quoteIdent(op.To, d)}, nil

	case *diff.AlterColumn:
		return g.alterColumn(op), nil

	case *diff.AddPrimaryKey:
		name := op.PrimaryKey.Name
		if name == "" {
			name = naming.Constraint(naming.PrimaryKey, op.Table, op.PrimaryKey.Columns)
		}
		return []string{fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s PRIMARY KEY (%s)",
			quoteIdent(op.Table, d), quoteIdent(name, d), strings.Join(quoteIdents(op.PrimaryKey.Columns, d), ", "))}, nil

	case *diff.DropPrimaryKey:
		name := op.PrimaryKey.Name
		if name == "" {
			// PostgreSQL's default primary key constraint name.
			name = op.Table + "_pkey"
		}
		return []string{"ALTER TABLE " + quoteIdent(op.Table, d) + " DROP CONSTRAINT " + quoteIdent(name, d)}, nil

	case *diff.AddUnique:
		name := op.Constraint.Name
		if name == "" {
			name = naming.Constraint(naming.Unique, op.Table, op.Constraint.Columns)
		}
		return []string{fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s)",
			quoteIdent(op.Table, d), quoteIdent(name, d), strings.Join(quoteIdents(op.Constraint.Columns, d), ", "))}, nil

	case *diff.DropUnique:
		return []string{"ALTER TABLE " + quoteIdent(op.Table, d) + " DROP CONSTRAINT " + quoteIdent(op.Constraint.Name, d)}, nil

	case *diff.AddForeignKey:
		return []string{"ALTER TABLE " + quoteIdent(op.Table, d) + " ADD " + foreignKeyClause(op.Table, op.ForeignKey, d)}, nil

	case *diff.DropForeignKey:
		name := op.ForeignKey.Name
		if name == "" {
			name = naming.Constraint(naming.ForeignKey, op.Table, op.ForeignKey.Columns)
		}
		return []string{"ALTER TABLE " + quoteIdent(op.Table, d) + " DROP CONSTRAINT " + quoteIdent(name, d)}, nil

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
		return nil, fmt.Errorf("postgres: unknown operation %T", op)
	}
}

// alterColumn emits one statement per changed property: type, nullability,
// and default are independent ALTER COLUMN clauses in PostgreSQL.
func (g *postgresGenerator) alterColumn(op *diff.AlterColumn) []string {
	const d = Postgres
	prefix := "ALTER TABLE " + quoteIdent(op.Table, d) + " ALTER COLUMN " + quoteIdent(op.To.Name, d)
	var stmts []string
	if !op.From.Type.Equal(op.To.Type) {
		newType := typeSQL(op.To.Type, d)
		stmts = append(stmts, fmt.Sprintf("%s TYPE %s USING %s::%s", prefix, newType, quoteIdent(op.To.Name, d), newType))
	}
	if op.From.Nullable != op.To.Nullable {
		if op.To.Nullable {
			stmts = append(stmts, prefix+" DROP NOT NULL")
		} else {
			stmts = append(stmts, prefix+" SET NOT NULL")
		}
	}
	if !equalDefault(op.From.Default, op.To.Default) {
		if op.To.Default == nil {
			stmts = append(stmts, prefix+" DROP DEFAULT")
		} else {
			stmts = append(stmts, prefix+" SET DEFAULT "+*op.To.Default)
		}
	}
	return stmts
}

func equalDefault(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
