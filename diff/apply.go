package diff

import (
	"fmt"

	"github.com/tordrt/schemadiff/schema"
)

// Apply computes the table shape that results from applying op to table,
// entirely in memory. Dialect generators that must rebuild a table use it to
// derive the target shape from the operation's snapshot; inversion uses it
// to advance snapshots.
//
// The input is never mutated. The result is nil for DropTable. CreateTable
// ignores the input and returns the operation's own definition.
func Apply(op Operation, table *schema.Table) (*schema.Table, error) {
	switch op := op.(type) {
	case *CreateTable:
		return op.Table.Clone(), nil

	case *DropTable:
		return nil, nil

	case *RenameTable:
		out := table.Clone()
		out.Name = op.To
		return out, nil

	case *AddColumn:
		out := table.Clone()
		col := op.Column
		col.Position = len(out.Columns)
		out.Columns = append(out.Columns, col)
		return out, nil

	case *DropColumn:
		return dropColumn(table, op.Column.Name)

	case *AlterColumn:
		out := table.Clone()
		c := out.Column(op.To.Name)
		if c == nil {
			return nil, fmt.Errorf("alter column: table %q has no column %q", table.Name, op.To.Name)
		}
		pos := c.Position
		*c = op.To
		c.Position = pos
		return out, nil

	case *RenameColumn:
		out := table.Clone()
		c := out.Column(op.From)
		if c == nil {
			return nil, fmt.Errorf("rename column: table %q has no column %q", table.Name, op.From)
		}
		c.Name = op.To
		renameInLists(out, op.From, op.To)
		return out, nil

	case *AddPrimaryKey:
		out := table.Clone()
		pk := schema.PrimaryKey{Name: op.PrimaryKey.Name, Columns: append([]string(nil), op.PrimaryKey.Columns...)}
		out.PrimaryKey = &pk
		return out, nil

	case *DropPrimaryKey:
		out := table.Clone()
		out.PrimaryKey = nil
		return out, nil

	case *AddUnique:
		out := table.Clone()
		out.Uniques = append(out.Uniques, schema.UniqueConstraint{
			Name:    op.Constraint.Name,
			Columns: append([]string(nil), op.Constraint.Columns...),
		})
		return out, nil

	case *DropUnique:
		out := table.Clone()
		kept := out.Uniques[:0]
		for _, u := range out.Uniques {
			if u.Name == op.Constraint.Name || sameColumnSet(u.Columns, op.Constraint.Columns) {
				continue
			}
			kept = append(kept, u)
		}
		out.Uniques = kept
		return out, nil

	case *AddForeignKey:
		out := table.Clone()
		out.ForeignKeys = append(out.ForeignKeys, op.ForeignKey)
		return out, nil

	case *DropForeignKey:
		out := table.Clone()
		kept := out.ForeignKeys[:0]
		for _, fk := range out.ForeignKeys {
			if (op.ForeignKey.Name != "" && fk.Name == op.ForeignKey.Name) || fk.Equal(op.ForeignKey) {
				continue
			}
			kept = append(kept, fk)
		}
		out.ForeignKeys = kept
		return out, nil

	case *CreateIndex:
		out := table.Clone()
		out.Indexes = append(out.Indexes, op.Index)
		return out, nil

	case *DropIndex:
		out := table.Clone()
		kept := out.Indexes[:0]
		for _, idx := range out.Indexes {
			if (op.Index.Name != "" && idx.Name == op.Index.Name) || idx.Equal(op.Index) {
				continue
			}
			kept = append(kept, idx)
		}
		out.Indexes = kept
		return out, nil

	default:
		return nil, fmt.Errorf("unknown operation %T", op)
	}
}

// dropColumn removes the column along with every constraint and index that
// touches it; a constraint over a vanished column cannot survive the drop.
func dropColumn(table *schema.Table, name string) (*schema.Table, error) {
	if !table.HasColumn(name) {
		return nil, fmt.Errorf("drop column: table %q has no column %q", table.Name, name)
	}
	out := table.Clone()

	cols := out.Columns[:0]
	for _, c := range out.Columns {
		if c.Name == name {
			continue
		}
		c.Position = len(cols)
		cols = append(cols, c)
	}
	out.Columns = cols

	if out.PrimaryKey != nil && contains(out.PrimaryKey.Columns, name) {
		out.PrimaryKey = nil
	}
	uniques := out.Uniques[:0]
	for _, u := range out.Uniques {
		if !contains(u.Columns, name) {
			uniques = append(uniques, u)
		}
	}
	out.Uniques = uniques

	fks := out.ForeignKeys[:0]
	for _, fk := range out.ForeignKeys {
		if !contains(fk.Columns, name) {
			fks = append(fks, fk)
		}
	}
	out.ForeignKeys = fks

	indexes := out.Indexes[:0]
	for _, idx := range out.Indexes {
		if !contains(idx.Columns, name) {
			indexes = append(indexes, idx)
		}
	}
	out.Indexes = indexes
	return out, nil
}

func renameInLists(t *schema.Table, from, to string) {
	rename := func(cols []string) {
		for i, c := range cols {
			if c == from {
				cols[i] = to
			}
		}
	}
	if t.PrimaryKey != nil {
		rename(t.PrimaryKey.Columns)
	}
	for i := range t.Uniques {
		rename(t.Uniques[i].Columns)
	}
	for i := range t.ForeignKeys {
		rename(t.ForeignKeys[i].Columns)
	}
	for i := range t.Indexes {
		rename(t.Indexes[i].Columns)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
