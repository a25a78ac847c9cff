package schema

import "fmt"

// ValidationError reports a malformed table value: a constraint or index
// referencing a column the table does not have, a duplicate column name, or
// a constraint-backed index listed among the plain indexes. It carries the
// offending identifiers so tooling can render diagnostics without parsing
// the message.
type ValidationError struct {
	Table      string
	Column     string
	Constraint string
	Reason     string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid table %q: %s", e.Table, e.Reason)
	if e.Constraint != "" {
		msg += fmt.Sprintf(" (constraint %q)", e.Constraint)
	}
	if e.Column != "" {
		msg += fmt.Sprintf(" (column %q)", e.Column)
	}
	return msg
}

// Validate checks the table's structural invariants. A non-nil error is
// always a *ValidationError and marks a programming error in whatever built
// the value, not a recoverable condition.
func (t *Table) Validate() error {
	if t.Name == "" {
		return &ValidationError{Reason: "table name is empty"}
	}
	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if c.Name == "" {
			return &ValidationError{Table: t.Name, Reason: "column name is empty"}
		}
		if seen[c.Name] {
			return &ValidationError{Table: t.Name, Column: c.Name, Reason: "duplicate column name"}
		}
		seen[c.Name] = true
	}
	if t.PrimaryKey != nil {
		if len(t.PrimaryKey.Columns) == 0 {
			return &ValidationError{Table: t.Name, Constraint: t.PrimaryKey.Name, Reason: "primary key has no columns"}
		}
		for _, col := range t.PrimaryKey.Columns {
			if !seen[col] {
				return &ValidationError{Table: t.Name, Column: col, Constraint: t.PrimaryKey.Name, Reason: "primary key references unknown column"}
			}
		}
	}
	for _, u := range t.Uniques {
		if len(u.Columns) == 0 {
			return &ValidationError{Table: t.Name, Constraint: u.Name, Reason: "unique constraint has no columns"}
		}
		for _, col := range u.Columns {
			if !seen[col] {
				return &ValidationError{Table: t.Name, Column: col, Constraint: u.Name, Reason: "unique constraint references unknown column"}
			}
		}
	}
	for _, fk := range t.ForeignKeys {
		if len(fk.Columns) == 0 {
			return &ValidationError{Table: t.Name, Constraint: fk.Name, Reason: "foreign key has no columns"}
		}
		if len(fk.Columns) != len(fk.RefColumns) {
			return &ValidationError{Table: t.Name, Constraint: fk.Name, Reason: "foreign key local and referenced column counts differ"}
		}
		if fk.RefTable == "" {
			return &ValidationError{Table: t.Name, Constraint: fk.Name, Reason: "foreign key has no referenced table"}
		}
		for _, col := range fk.Columns {
			if !seen[col] {
				return &ValidationError{Table: t.Name, Column: col, Constraint: fk.Name, Reason: "foreign key references unknown local column"}
			}
		}
	}
	for _, idx := range t.Indexes {
		if idx.Backing != BackingPlain {
			return &ValidationError{Table: t.Name, Constraint: idx.Name, Reason: "constraint-backed index listed as a plain index"}
		}
		if len(idx.Columns) == 0 {
			return &ValidationError{Table: t.Name, Constraint: idx.Name, Reason: "index has no columns"}
		}
		for _, col := range idx.Columns {
			if !seen[col] {
				return &ValidationError{Table: t.Name, Column: col, Constraint: idx.Name, Reason: "index references unknown column"}
			}
		}
	}
	return nil
}
