package diff

import (
	"sort"
	"strings"

	"github.com/tordrt/schemadiff/naming"
	"github.com/tordrt/schemadiff/schema"
)

// Diff compares the current physical shape of a table against the expected
// one and returns the operations that transform current into expected.
// Either side may be nil: nil current means the table does not exist yet,
// nil expected means it should be dropped.
//
// Emission order is fixed and deterministic: table create/drop first, then
// columns, primary key, unique constraints, foreign keys, and plain indexes,
// with drops before adds inside each category so that a changed constraint
// never collides with its own old name. Operations that a dialect can only
// express by rebuilding the table carry a snapshot of the shape they run
// against, advanced past the operations emitted before them, so generators
// need no further lookups and rebuilds compose within one plan.
//
// A column present on both sides is never treated as renamed: without stable
// column identity a rename cannot be told apart from a drop plus an add, so
// the diff always chooses drop plus add.
func Diff(current, expected *schema.Table) ([]Operation, error) {
	if current == nil && expected == nil {
		return nil, nil
	}
	if current != nil {
		if err := current.Validate(); err != nil {
			return nil, err
		}
	}
	if expected != nil {
		if err := expected.Validate(); err != nil {
			return nil, err
		}
	}

	if current == nil {
		return []Operation{&CreateTable{Table: expected.Clone()}}, nil
	}
	if expected == nil {
		return []Operation{&DropTable{Name: current.Name, Table: current.Clone()}}, nil
	}

	var ops []Operation
	ops = append(ops, diffColumns(current, expected)...)
	ops = append(ops, diffPrimaryKey(current, expected)...)
	ops = append(ops, diffUniques(current, expected)...)
	ops = append(ops, diffForeignKeys(current, expected)...)
	ops = append(ops, diffIndexes(current, expected)...)

	// Attach snapshots by walking a working shape through the plan: each
	// operation records the state left behind by the ones before it, not the
	// shape at diff time. A rebuild computed from a stale snapshot would
	// re-declare constraints an earlier rebuild already removed.
	working := current
	for _, op := range ops {
		setTableInfo(op, working.Clone())
		next, err := Apply(op, working)
		if err != nil {
			return nil, err
		}
		working = next
	}
	return ops, nil
}

// setTableInfo attaches the snapshot to the operation variants that carry
// one; the rest render without it.
func setTableInfo(op Operation, snapshot *schema.Table) {
	switch op := op.(type) {
	case *DropColumn:
		op.TableInfo = snapshot
	case *AlterColumn:
		op.TableInfo = snapshot
	case *AddPrimaryKey:
		op.TableInfo = snapshot
	case *DropPrimaryKey:
		op.TableInfo = snapshot
	case *AddUnique:
		op.TableInfo = snapshot
	case *DropUnique:
		op.TableInfo = snapshot
	case *AddForeignKey:
		op.TableInfo = snapshot
	case *DropForeignKey:
		op.TableInfo = snapshot
	}
}

func diffColumns(current, expected *schema.Table) []Operation {
	var ops []Operation
	for _, c := range current.Columns {
		if !expected.HasColumn(c.Name) {
			ops = append(ops, &DropColumn{Table: current.Name, Column: c})
		}
	}
	for _, c := range expected.Columns {
		cur := current.Column(c.Name)
		switch {
		case cur == nil:
			ops = append(ops, &AddColumn{Table: current.Name, Column: c})
		case !cur.Equal(c):
			ops = append(ops, &AlterColumn{Table: current.Name, From: *cur, To: c})
		}
	}
	return ops
}

func diffPrimaryKey(current, expected *schema.Table) []Operation {
	cur, exp := current.PrimaryKey, expected.PrimaryKey
	if cur == nil && exp == nil {
		return nil
	}
	if cur != nil && exp != nil && cur.Equal(*exp) {
		return nil
	}
	var ops []Operation
	if cur != nil {
		ops = append(ops, &DropPrimaryKey{Table: current.Name, PrimaryKey: *cur})
	}
	if exp != nil {
		pk := *exp
		if pk.Name == "" {
			pk.Name = naming.Constraint(naming.PrimaryKey, current.Name, pk.Columns)
		}
		ops = append(ops, &AddPrimaryKey{Table: current.Name, PrimaryKey: pk})
	}
	return ops
}

// diffUniques keys unique constraints by their sorted column set, not by
// name: names synthesized for automatic indexes are not stable across
// introspections, but the column set is.
func diffUniques(current, expected *schema.Table) []Operation {
	currentByCols := make(map[string]schema.UniqueConstraint, len(current.Uniques))
	for _, u := range current.Uniques {
		currentByCols[columnSetKey(u.Columns)] = u
	}
	expectedByCols := make(map[string]bool, len(expected.Uniques))
	for _, u := range expected.Uniques {
		expectedByCols[columnSetKey(u.Columns)] = true
	}

	var ops []Operation
	for _, u := range current.Uniques {
		if !expectedByCols[columnSetKey(u.Columns)] {
			ops = append(ops, &DropUnique{Table: current.Name, Constraint: u})
		}
	}
	taken := takenNames(current)
	for _, u := range expected.Uniques {
		if _, ok := currentByCols[columnSetKey(u.Columns)]; ok {
			continue
		}
		uc := u
		if uc.Name == "" {
			uc.Name = naming.ConstraintAvoiding(naming.Unique, current.Name, uc.Columns, taken)
		}
		taken[uc.Name] = true
		ops = append(ops, &AddUnique{Table: current.Name, Constraint: uc})
	}
	return ops
}

func diffForeignKeys(current, expected *schema.Table) []Operation {
	var ops []Operation
	for _, fk := range current.ForeignKeys {
		if !hasStructuralFK(expected.ForeignKeys, fk) {
			ops = append(ops, &DropForeignKey{Table: current.Name, ForeignKey: fk})
		}
	}
	taken := takenNames(current)
	for _, fk := range expected.ForeignKeys {
		if hasStructuralFK(current.ForeignKeys, fk) {
			continue
		}
		add := fk
		if add.Name == "" {
			add.Name = naming.ConstraintAvoiding(naming.ForeignKey, current.Name, add.Columns, taken)
		}
		taken[add.Name] = true
		ops = append(ops, &AddForeignKey{Table: current.Name, ForeignKey: add})
	}
	return ops
}

func diffIndexes(current, expected *schema.Table) []Operation {
	var ops []Operation
	for _, idx := range current.Indexes {
		if !hasStructuralIndex(expected.Indexes, idx) {
			ops = append(ops, &DropIndex{Table: current.Name, Index: idx})
		}
	}
	taken := takenNames(current)
	for _, idx := range expected.Indexes {
		if hasStructuralIndex(current.Indexes, idx) {
			continue
		}
		add := idx
		if add.Name == "" {
			add.Name = naming.ConstraintAvoiding(naming.Index, current.Name, add.Columns, taken)
		}
		taken[add.Name] = true
		ops = append(ops, &CreateIndex{Table: current.Name, Index: add})
	}
	return ops
}

func hasStructuralFK(list []schema.ForeignKey, fk schema.ForeignKey) bool {
	for _, other := range list {
		if fk.Equal(other) {
			return true
		}
	}
	return false
}

func hasStructuralIndex(list []schema.Index, idx schema.Index) bool {
	for _, other := range list {
		if idx.Equal(other) {
			return true
		}
	}
	return false
}

// takenNames collects every constraint and index name already present on
// the table, for collision-aware name synthesis.
func takenNames(t *schema.Table) map[string]bool {
	taken := make(map[string]bool)
	if t.PrimaryKey != nil && t.PrimaryKey.Name != "" {
		taken[t.PrimaryKey.Name] = true
	}
	for _, u := range t.Uniques {
		taken[u.Name] = true
	}
	for _, fk := range t.ForeignKeys {
		taken[fk.Name] = true
	}
	for _, idx := range t.Indexes {
		taken[idx.Name] = true
	}
	return taken
}

func columnSetKey(cols []string) string {
	sorted := append([]string(nil), cols...)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x1f")
}

func sameColumnSet(a, b []string) bool {
	return columnSetKey(a) == columnSetKey(b)
}
