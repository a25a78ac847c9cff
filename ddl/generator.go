// Package ddl renders schema operations into executable SQL statements, one
// generator per supported dialect. Generators are stateless; the caller
// executes the returned statements in order.
package ddl

import (
	"fmt"

	"github.com/tordrt/schemadiff/diff"
)

// Dialect identifies a target SQL dialect. The set is closed; generators
// are selected by explicit dialect value rather than runtime registration.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
)

// Generator renders one schema operation into the SQL statements that
// realize it on a specific dialect, in required execution order.
type Generator interface {
	// Dialect reports the dialect the generator targets.
	Dialect() Dialect
	// Generate renders op. A single operation may expand to several
	// statements (table creation with indexes, or a full table rebuild).
	Generate(op diff.Operation) ([]string, error)
}

// New returns the generator for the given dialect.
func New(d Dialect) (Generator, error) {
	switch d {
	case SQLite:
		return &sqliteGenerator{}, nil
	case Postgres:
		return &postgresGenerator{}, nil
	case MySQL:
		return &mysqlGenerator{}, nil
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", d)
	}
}

// Render renders a single operation for the given dialect.
func Render(d Dialect, op diff.Operation) ([]string, error) {
	gen, err := New(d)
	if err != nil {
		return nil, err
	}
	return gen.Generate(op)
}

// RenderAll renders a sequence of operations in order.
func RenderAll(d Dialect, ops []diff.Operation) ([]string, error) {
	gen, err := New(d)
	if err != nil {
		return nil, err
	}
	var stmts []string
	for _, op := range ops {
		s, err := gen.Generate(op)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s...)
	}
	return stmts, nil
}

// RenderRollback renders the statements that undo a sequence of operations:
// each operation's inverse, in reverse order. It fails if any operation is
// not invertible.
func RenderRollback(d Dialect, ops []diff.Operation) ([]string, error) {
	gen, err := New(d)
	if err != nil {
		return nil, err
	}
	var stmts []string
	for i := len(ops) - 1; i >= 0; i-- {
		inv, err := ops[i].Inverse()
		if err != nil {
			return nil, err
		}
		s, err := gen.Generate(inv)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s...)
	}
	return stmts, nil
}

// UnsupportedMigrationError reports a change that has no safe representation
// in the target dialect. It is returned, never downgraded to a comment or a
// no-op statement.
type UnsupportedMigrationError struct {
	Dialect    Dialect
	Table      string
	Column     string
	Constraint string
	Op         string
	Reason     string
}

func (e *UnsupportedMigrationError) Error() string {
	msg := fmt.Sprintf("%s cannot apply %s to table %q: %s", e.Dialect, e.Op, e.Table, e.Reason)
	if e.Column != "" {
		msg += fmt.Sprintf(" (column %q)", e.Column)
	}
	if e.Constraint != "" {
		msg += fmt.Sprintf(" (constraint %q)", e.Constraint)
	}
	return msg
}
