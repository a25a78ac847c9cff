//go:build integration
// +build integration

package integration

import (
	"testing"

	"github.com/tordrt/schemadiff/diff"
	"github.com/tordrt/schemadiff/schema"
)

// verifyColumns checks that expected columns exist in a table
func verifyColumns(t *testing.T, table *schema.Table, expectedColumns []string) {
	t.Helper()

	columnMap := make(map[string]bool)
	for _, col := range table.Columns {
		columnMap[col.Name] = true
	}

	for _, colName := range expectedColumns {
		if !columnMap[colName] {
			t.Errorf("Expected column %s not found in %s table", colName, table.Name)
		}
	}
}

// verifyPrimaryKey checks that a table has the expected primary key columns
func verifyPrimaryKey(t *testing.T, table *schema.Table, expectedPK []string) {
	t.Helper()

	if table.PrimaryKey == nil {
		if len(expectedPK) > 0 {
			t.Errorf("Expected primary key %v, got none", expectedPK)
		}
		return
	}

	got := table.PrimaryKey.Columns
	if len(got) != len(expectedPK) {
		t.Errorf("Expected primary key %v, got %v", expectedPK, got)
		return
	}
	for i, pk := range expectedPK {
		if got[i] != pk {
			t.Errorf("Expected primary key %v, got %v", expectedPK, got)
			return
		}
	}
}

// verifyUnique checks that a unique constraint covers the expected columns
func verifyUnique(t *testing.T, table *schema.Table, expectedColumns []string) {
	t.Helper()

	for _, uq := range table.Uniques {
		if sameColumnSet(uq.Columns, expectedColumns) {
			return
		}
	}

	t.Errorf("Expected unique constraint on %v in %s table not found", expectedColumns, table.Name)
}

// verifyForeignKey checks that a foreign key from sourceColumn to targetTable exists
func verifyForeignKey(t *testing.T, table *schema.Table, sourceColumn, targetTable string) {
	t.Helper()

	for _, fk := range table.ForeignKeys {
		if fk.RefTable != targetTable {
			continue
		}
		for _, col := range fk.Columns {
			if col == sourceColumn {
				return
			}
		}
	}

	t.Errorf("Expected foreign key from %s.%s to %s not found", table.Name, sourceColumn, targetTable)
}

// verifyIndex checks that a plain index exists with the expected columns
func verifyIndex(t *testing.T, table *schema.Table, indexName string, expectedColumns []string) {
	t.Helper()

	for _, idx := range table.Indexes {
		if idx.Name != indexName {
			continue
		}
		if len(idx.Columns) != len(expectedColumns) {
			t.Errorf("Expected index %s on %v, got %v", indexName, expectedColumns, idx.Columns)
			return
		}
		for i, col := range expectedColumns {
			if idx.Columns[i] != col {
				t.Errorf("Expected index %s on %v, got %v", indexName, expectedColumns, idx.Columns)
				return
			}
		}
		return
	}

	t.Errorf("Expected index %s on %s table not found", indexName, table.Name)
}

// verifyNoPendingChanges checks that diffing the live table against
// expected produces no operations
func verifyNoPendingChanges(t *testing.T, current, expected *schema.Table) {
	t.Helper()

	ops, err := diff.Diff(current, expected)
	if err != nil {
		t.Fatalf("Failed to diff tables: %v", err)
	}
	if len(ops) != 0 {
		t.Errorf("Expected no pending changes, got %d operations", len(ops))
		for _, op := range ops {
			t.Logf("  pending: %#v", op)
		}
	}
}

func sameColumnSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]int, len(a))
	for _, s := range a {
		set[s]++
	}
	for _, s := range b {
		set[s]--
		if set[s] < 0 {
			return false
		}
	}
	return true
}
