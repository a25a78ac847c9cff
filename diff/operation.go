// Package diff compares two schema models and produces an ordered sequence
// of operations that transform the first into the second. The comparison is
// a pure function: no I/O, deterministic output, safe for concurrent use.
package diff

import (
	"github.com/tordrt/schemadiff/schema"
)

// Operation is one atomic schema change. Each variant carries everything
// needed to render itself into SQL without further catalog lookups, and can
// compute the operation that undoes it.
//
// The variant set is closed: generators select behavior with a type switch
// and treat an unknown variant as a programming error.
type Operation interface {
	// TableName reports the table the operation applies to.
	TableName() string
	// Inverse returns the operation that, applied immediately after this
	// one, restores the prior state. It fails with *NotInvertibleError when
	// the operation did not retain enough of the prior state.
	Inverse() (Operation, error)
}

// CreateTable creates a table, including its inline constraints and its
// plain indexes.
type CreateTable struct {
	Table *schema.Table
}

func (o *CreateTable) TableName() string { return o.Table.Name }

func (o *CreateTable) Inverse() (Operation, error) {
	return &DropTable{Name: o.Table.Name, Table: o.Table.Clone()}, nil
}

// DropTable drops a table. Table holds the full definition when the issuing
// diff had it; without it the operation still renders but cannot be
// inverted.
type DropTable struct {
	Name  string
	Table *schema.Table
}

func (o *DropTable) TableName() string { return o.Name }

func (o *DropTable) Inverse() (Operation, error) {
	if o.Table == nil {
		return nil, &NotInvertibleError{Op: "DropTable", Table: o.Name, Reason: "table definition was not retained"}
	}
	return &CreateTable{Table: o.Table.Clone()}, nil
}

// AddColumn adds a column to an existing table.
type AddColumn struct {
	Table  string
	Column schema.Column
}

func (o *AddColumn) TableName() string { return o.Table }

func (o *AddColumn) Inverse() (Operation, error) {
	return &DropColumn{Table: o.Table, Column: o.Column}, nil
}

// DropColumn removes a column. Column holds the full prior definition when
// known. TableInfo optionally snapshots the whole table at diff time for
// dialects that rebuild the table instead of altering it.
type DropColumn struct {
	Table     string
	Column    schema.Column
	TableInfo *schema.Table
}

func (o *DropColumn) TableName() string { return o.Table }

func (o *DropColumn) Inverse() (Operation, error) {
	if o.Column.Type.IsZero() {
		return nil, &NotInvertibleError{Op: "DropColumn", Table: o.Table, Column: o.Column.Name, Reason: "column definition was not retained"}
	}
	return &AddColumn{Table: o.Table, Column: o.Column}, nil
}

// AlterColumn changes a column's type, nullability, or default. Both the
// old and new definitions are recorded at diff time so the operation can be
// inverted by swapping them.
type AlterColumn struct {
	Table     string
	From      schema.Column
	To        schema.Column
	TableInfo *schema.Table
}

func (o *AlterColumn) TableName() string { return o.Table }

func (o *AlterColumn) Inverse() (Operation, error) {
	if o.From.Type.IsZero() || o.To.Type.IsZero() {
		return nil, &NotInvertibleError{Op: "AlterColumn", Table: o.Table, Column: o.To.Name, Reason: "both column definitions must be retained"}
	}
	inv := &AlterColumn{Table: o.Table, From: o.To, To: o.From}
	inv.TableInfo = applied(o, o.TableInfo)
	return inv, nil
}

// AddPrimaryKey adds a primary key. TableInfo snapshots the table's current
// shape so generators that must rebuild the table have it without
// re-querying.
type AddPrimaryKey struct {
	Table      string
	PrimaryKey schema.PrimaryKey
	TableInfo  *schema.Table
}

func (o *AddPrimaryKey) TableName() string { return o.Table }

func (o *AddPrimaryKey) Inverse() (Operation, error) {
	return &DropPrimaryKey{Table: o.Table, PrimaryKey: o.PrimaryKey, TableInfo: applied(o, o.TableInfo)}, nil
}

// DropPrimaryKey removes the table's primary key.
type DropPrimaryKey struct {
	Table      string
	PrimaryKey schema.PrimaryKey
	TableInfo  *schema.Table
}

func (o *DropPrimaryKey) TableName() string { return o.Table }

func (o *DropPrimaryKey) Inverse() (Operation, error) {
	if len(o.PrimaryKey.Columns) == 0 {
		return nil, &NotInvertibleError{Op: "DropPrimaryKey", Table: o.Table, Reason: "prior key columns were not retained"}
	}
	return &AddPrimaryKey{Table: o.Table, PrimaryKey: o.PrimaryKey, TableInfo: applied(o, o.TableInfo)}, nil
}

// AddUnique adds a unique constraint.
type AddUnique struct {
	Table      string
	Constraint schema.UniqueConstraint
	TableInfo  *schema.Table
}

func (o *AddUnique) TableName() string { return o.Table }

func (o *AddUnique) Inverse() (Operation, error) {
	return &DropUnique{Table: o.Table, Constraint: o.Constraint, TableInfo: applied(o, o.TableInfo)}, nil
}

// DropUnique removes a unique constraint. On dialects where the constraint
// is backed by an automatic index the drop has no direct statement and goes
// through a table rebuild, which is why the snapshot is carried here.
type DropUnique struct {
	Table      string
	Constraint schema.UniqueConstraint
	TableInfo  *schema.Table
}

func (o *DropUnique) TableName() string { return o.Table }

func (o *DropUnique) Inverse() (Operation, error) {
	if len(o.Constraint.Columns) == 0 {
		return nil, &NotInvertibleError{Op: "DropUnique", Table: o.Table, Constraint: o.Constraint.Name, Reason: "constraint columns were not retained"}
	}
	return &AddUnique{Table: o.Table, Constraint: o.Constraint, TableInfo: applied(o, o.TableInfo)}, nil
}

// AddForeignKey adds a foreign key constraint.
type AddForeignKey struct {
	Table      string
	ForeignKey schema.ForeignKey
	TableInfo  *schema.Table
}

func (o *AddForeignKey) TableName() string { return o.Table }

func (o *AddForeignKey) Inverse() (Operation, error) {
	return &DropForeignKey{Table: o.Table, ForeignKey: o.ForeignKey, TableInfo: applied(o, o.TableInfo)}, nil
}

// DropForeignKey removes a foreign key constraint.
type DropForeignKey struct {
	Table      string
	ForeignKey schema.ForeignKey
	TableInfo  *schema.Table
}

func (o *DropForeignKey) TableName() string { return o.Table }

func (o *DropForeignKey) Inverse() (Operation, error) {
	if len(o.ForeignKey.Columns) == 0 || o.ForeignKey.RefTable == "" {
		return nil, &NotInvertibleError{Op: "DropForeignKey", Table: o.Table, Constraint: o.ForeignKey.Name, Reason: "foreign key definition was not retained"}
	}
	return &AddForeignKey{Table: o.Table, ForeignKey: o.ForeignKey, TableInfo: applied(o, o.TableInfo)}, nil
}

// CreateIndex creates a plain index.
type CreateIndex struct {
	Table string
	Index schema.Index
}

func (o *CreateIndex) TableName() string { return o.Table }

func (o *CreateIndex) Inverse() (Operation, error) {
	return &DropIndex{Table: o.Table, Index: o.Index}, nil
}

// DropIndex drops a plain index. It is never emitted for a constraint-backed
// index: those are excluded from the model's index list by construction.
type DropIndex struct {
	Table string
	Index schema.Index
}

func (o *DropIndex) TableName() string { return o.Table }

func (o *DropIndex) Inverse() (Operation, error) {
	if len(o.Index.Columns) == 0 {
		return nil, &NotInvertibleError{Op: "DropIndex", Table: o.Table, Constraint: o.Index.Name, Reason: "index definition was not retained"}
	}
	return &CreateIndex{Table: o.Table, Index: o.Index}, nil
}

// RenameTable renames a table. The diff engine never emits it (a rename is
// indistinguishable from drop+add without stable identity), but migration
// runners can construct it directly.
type RenameTable struct {
	From string
	To   string
}

func (o *RenameTable) TableName() string { return o.From }

func (o *RenameTable) Inverse() (Operation, error) {
	return &RenameTable{From: o.To, To: o.From}, nil
}

// RenameColumn renames a column; like RenameTable, it is only ever
// constructed by callers, not by the diff engine.
type RenameColumn struct {
	Table string
	From  string
	To    string
}

func (o *RenameColumn) TableName() string { return o.Table }

func (o *RenameColumn) Inverse() (Operation, error) {
	return &RenameColumn{Table: o.Table, From: o.To, To: o.From}, nil
}

// applied returns the snapshot advanced past op, giving the inverse
// operation a snapshot of the state it will run against. A nil snapshot
// stays nil.
func applied(op Operation, snapshot *schema.Table) *schema.Table {
	if snapshot == nil {
		return nil
	}
	after, err := Apply(op, snapshot)
	if err != nil {
		return nil
	}
	return after
}
