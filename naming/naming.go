// Package naming derives deterministic, collision-resistant names for
// generated constraints, indexes, and the temporary tables used while
// rebuilding a table.
//
// Determinism is load-bearing: the expected-schema builder and the
// introspection/diff cycle must arrive at the same name for the same
// constraint, or every run would propose renaming everything. Nothing in
// this package ever draws randomness.
package naming

import (
	"encoding/hex"
	"strings"

	"github.com/zeebo/blake3"
)

// Kind selects the name prefix for a generated constraint or index.
type Kind string

const (
	PrimaryKey Kind = "pk"
	ForeignKey Kind = "fk"
	Unique     Kind = "uk"
	Index      Kind = "ix"
)

// Constraint returns the canonical name for a constraint of the given kind:
// <prefix>_<table>_<col1>_<col2>_... Column order matters; the same columns
// in a different order name a different constraint.
func Constraint(kind Kind, table string, columns []string) string {
	parts := make([]string, 0, len(columns)+2)
	parts = append(parts, string(kind), table)
	parts = append(parts, columns...)
	return strings.Join(parts, "_")
}

// ConstraintAvoiding returns the canonical name, appending a short
// deterministic token derived from the full column list when the canonical
// name is already taken on the table. Two constraints over overlapping
// column sets therefore get distinct but reproducible names.
func ConstraintAvoiding(kind Kind, table string, columns []string, taken map[string]bool) string {
	name := Constraint(kind, table, columns)
	if !taken[name] {
		return name
	}
	return name + "_" + token(strings.Join(columns, "\x1f"))
}

// ShadowTable returns a collision-safe temporary name for the replacement
// table built during a table rebuild. The token is derived from the table
// name and the operation tag, so repeated runs of the same plan produce the
// same statements.
func ShadowTable(table, tag string) string {
	return "_" + sanitize(table) + "_shadow_" + token(table+"\x1f"+tag)
}

// token returns a short stable hash of s, suitable as an identifier suffix.
func token(s string) string {
	sum := blake3.Sum256([]byte(s))
	return hex.EncodeToString(sum[:4])
}

// sanitize folds s into the identifier charset [A-Za-z0-9_].
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "tbl"
	}
	return b.String()
}
