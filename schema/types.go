// Package schema defines a dialect-neutral model of a table's physical shape:
// columns, primary key, unique constraints, foreign keys, and plain indexes.
//
// Values are pure data. They are produced either by an introspector (current
// physical state) or by an expected-schema builder (declared intent), and are
// never mutated in place; every transformation yields a fresh value.
package schema

import "strings"

// TypeKind is a dialect-neutral logical column type. Each dialect's DDL
// generator maps it to a concrete SQL type name.
type TypeKind string

const (
	TypeInteger   TypeKind = "integer"
	TypeBigInt    TypeKind = "bigint"
	TypeSmallInt  TypeKind = "smallint"
	TypeReal      TypeKind = "real"
	TypeDecimal   TypeKind = "decimal"
	TypeText      TypeKind = "text"
	TypeVarchar   TypeKind = "varchar"
	TypeBoolean   TypeKind = "boolean"
	TypeBlob      TypeKind = "blob"
	TypeTimestamp TypeKind = "timestamp"
	TypeDate      TypeKind = "date"
	TypeJSON      TypeKind = "json"
)

// ColumnType is a logical type plus an optional raw override. When Raw is
// set it is rendered verbatim by every dialect; otherwise Kind (and Length,
// for sized types like varchar) selects a dialect-appropriate type name.
type ColumnType struct {
	Kind   TypeKind
	Length int
	Raw    string
}

// IsZero reports whether the type carries no information at all, which marks
// a column definition that was not retained.
func (t ColumnType) IsZero() bool {
	return t.Kind == "" && t.Raw == ""
}

// Equal reports whether two column types describe the same SQL type. When
// both sides carry a logical kind the comparison is kind and length; raw
// types compare case-insensitively, so introspected spellings like "INTEGER"
// and "integer" match.
func (t ColumnType) Equal(other ColumnType) bool {
	if t.Kind != "" && other.Kind != "" {
		return t.Kind == other.Kind && t.Length == other.Length
	}
	return strings.EqualFold(strings.TrimSpace(t.Raw), strings.TrimSpace(other.Raw))
}

// ParseType maps a raw SQL type name (as reported by a database catalog) to a
// ColumnType. Unrecognized names keep only the raw spelling.
func ParseType(raw string) ColumnType {
	base := strings.ToUpper(strings.TrimSpace(raw))
	length := 0
	if open := strings.Index(base, "("); open >= 0 {
		if close := strings.Index(base, ")"); close > open {
			n := 0
			for _, r := range base[open+1 : close] {
				if r < '0' || r > '9' {
					n = 0
					break
				}
				n = n*10 + int(r-'0')
			}
			length = n
		}
		base = strings.TrimSpace(base[:open])
	}

	switch base {
	case "INT", "INTEGER", "INT4", "MEDIUMINT":
		return ColumnType{Kind: TypeInteger}
	case "BIGINT", "INT8", "BIGSERIAL":
		return ColumnType{Kind: TypeBigInt}
	case "SMALLINT", "INT2", "TINYINT":
		if base == "TINYINT" && length == 1 {
			return ColumnType{Kind: TypeBoolean}
		}
		return ColumnType{Kind: TypeSmallInt}
	case "REAL", "FLOAT", "DOUBLE", "DOUBLE PRECISION", "FLOAT8":
		return ColumnType{Kind: TypeReal}
	case "DECIMAL", "NUMERIC":
		return ColumnType{Kind: TypeDecimal}
	case "TEXT", "CLOB", "LONGTEXT", "MEDIUMTEXT", "CHARACTER VARYING":
		if base == "CHARACTER VARYING" && length > 0 {
			return ColumnType{Kind: TypeVarchar, Length: length}
		}
		return ColumnType{Kind: TypeText}
	case "VARCHAR", "CHARACTER", "CHAR", "NVARCHAR":
		return ColumnType{Kind: TypeVarchar, Length: length}
	case "BOOLEAN", "BOOL":
		return ColumnType{Kind: TypeBoolean}
	case "BLOB", "BYTEA", "VARBINARY", "LONGBLOB":
		return ColumnType{Kind: TypeBlob}
	case "TIMESTAMP", "TIMESTAMPTZ", "DATETIME", "TIMESTAMP WITHOUT TIME ZONE", "TIMESTAMP WITH TIME ZONE":
		return ColumnType{Kind: TypeTimestamp}
	case "DATE":
		return ColumnType{Kind: TypeDate}
	case "JSON", "JSONB":
		return ColumnType{Kind: TypeJSON}
	default:
		return ColumnType{Raw: strings.TrimSpace(raw)}
	}
}

// Column represents a single table column.
type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool
	// Default is the default expression as raw SQL text, nil when absent.
	Default *string
	// Position is the zero-based ordinal position within the table.
	Position int
}

// Equal reports whether two columns have the same name, type, nullability,
// and default. Ordinal position is ignored; moving a column is not a schema
// change.
func (c Column) Equal(other Column) bool {
	return c.Name == other.Name &&
		c.Type.Equal(other.Type) &&
		c.Nullable == other.Nullable &&
		equalStringPtr(c.Default, other.Default)
}

// IndexBacking classifies why an index exists.
type IndexBacking int

const (
	// BackingPlain marks an index created independently of any constraint.
	BackingPlain IndexBacking = iota
	// BackingPrimaryKey marks an index that exists only to enforce the
	// table's primary key.
	BackingPrimaryKey
	// BackingUnique marks an index that exists only to enforce a unique
	// constraint.
	BackingUnique
)

// String returns the backing marker's name.
func (b IndexBacking) String() string {
	switch b {
	case BackingPrimaryKey:
		return "primary key"
	case BackingUnique:
		return "unique constraint"
	default:
		return "plain"
	}
}

// Index represents a physical index. An index whose Backing is anything
// other than BackingPlain belongs to the constraint it enforces and must
// never be created or dropped on its own.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
	Backing IndexBacking
}

// Equal reports structural equality: same ordered columns and uniqueness.
// Names are not compared; synthesized index names are not stable across
// databases.
func (i Index) Equal(other Index) bool {
	return i.Unique == other.Unique && equalStrings(i.Columns, other.Columns)
}

// PrimaryKey is an ordered list of key columns. Name is the explicit
// constraint name where the dialect has one; SQLite primary keys are
// anonymous and leave it empty.
type PrimaryKey struct {
	Name    string
	Columns []string
}

// Equal compares the ordered column lists. Composite keys with the same
// columns in a different order are different keys.
func (pk PrimaryKey) Equal(other PrimaryKey) bool {
	return equalStrings(pk.Columns, other.Columns)
}

// UniqueConstraint is a named uniqueness guarantee over an ordered column
// list. Name is always set, even when the physical representation is an
// automatically created index; in that case BackingIndex records the
// physical index name (e.g. sqlite_autoindex_users_1) so generators can
// tell droppable indexes from constraint-backed ones.
type UniqueConstraint struct {
	Name         string
	Columns      []string
	BackingIndex string
}

// ReferentialAction is a foreign key ON DELETE / ON UPDATE action.
type ReferentialAction string

const (
	ActionNoAction   ReferentialAction = "NO ACTION"
	ActionRestrict   ReferentialAction = "RESTRICT"
	ActionCascade    ReferentialAction = "CASCADE"
	ActionSetNull    ReferentialAction = "SET NULL"
	ActionSetDefault ReferentialAction = "SET DEFAULT"
)

// ForeignKey references columns of another table. Columns and RefColumns
// are positionally paired and always the same length.
type ForeignKey struct {
	Name       string
	Columns    []string
	RefTable   string
	RefColumns []string
	OnDelete   ReferentialAction
	OnUpdate   ReferentialAction
}

// Equal reports structural equality: local columns, referenced table and
// columns, and both actions. Names are ignored for the same reason as with
// indexes.
func (fk ForeignKey) Equal(other ForeignKey) bool {
	return fk.RefTable == other.RefTable &&
		equalStrings(fk.Columns, other.Columns) &&
		equalStrings(fk.RefColumns, other.RefColumns) &&
		normalizeAction(fk.OnDelete) == normalizeAction(other.OnDelete) &&
		normalizeAction(fk.OnUpdate) == normalizeAction(other.OnUpdate)
}

func normalizeAction(a ReferentialAction) ReferentialAction {
	if a == "" {
		return ActionNoAction
	}
	return ReferentialAction(strings.ToUpper(string(a)))
}

// Table is the aggregate schema model for one table.
//
// Indexes holds only BackingPlain entries: an index that enforces the
// primary key or a unique constraint is reconstructible from the constraint
// it serves and is excluded here, so a diff can never target it with a
// standalone drop.
type Table struct {
	Name        string
	Columns     []Column
	PrimaryKey  *PrimaryKey
	Uniques     []UniqueConstraint
	ForeignKeys []ForeignKey
	Indexes     []Index
}

// Column returns the column with the given name, or nil.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	return t.Column(name) != nil
}

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := &Table{Name: t.Name}
	out.Columns = make([]Column, len(t.Columns))
	for i, c := range t.Columns {
		out.Columns[i] = c
		if c.Default != nil {
			d := *c.Default
			out.Columns[i].Default = &d
		}
	}
	if t.PrimaryKey != nil {
		pk := PrimaryKey{Name: t.PrimaryKey.Name, Columns: cloneStrings(t.PrimaryKey.Columns)}
		out.PrimaryKey = &pk
	}
	out.Uniques = make([]UniqueConstraint, len(t.Uniques))
	for i, u := range t.Uniques {
		out.Uniques[i] = UniqueConstraint{Name: u.Name, Columns: cloneStrings(u.Columns), BackingIndex: u.BackingIndex}
	}
	out.ForeignKeys = make([]ForeignKey, len(t.ForeignKeys))
	for i, fk := range t.ForeignKeys {
		out.ForeignKeys[i] = ForeignKey{
			Name:       fk.Name,
			Columns:    cloneStrings(fk.Columns),
			RefTable:   fk.RefTable,
			RefColumns: cloneStrings(fk.RefColumns),
			OnDelete:   fk.OnDelete,
			OnUpdate:   fk.OnUpdate,
		}
	}
	out.Indexes = make([]Index, len(t.Indexes))
	for i, idx := range t.Indexes {
		out.Indexes[i] = Index{Name: idx.Name, Columns: cloneStrings(idx.Columns), Unique: idx.Unique, Backing: idx.Backing}
	}
	return out
}

// Equal reports whether two tables describe the same schema: same columns
// (order-insensitive, by definition), primary key, constraints, and plain
// indexes.
func (t *Table) Equal(other *Table) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Name != other.Name || len(t.Columns) != len(other.Columns) {
		return false
	}
	for _, c := range t.Columns {
		oc := other.Column(c.Name)
		if oc == nil || !c.Equal(*oc) {
			return false
		}
	}
	switch {
	case t.PrimaryKey == nil && other.PrimaryKey != nil,
		t.PrimaryKey != nil && other.PrimaryKey == nil:
		return false
	case t.PrimaryKey != nil && !t.PrimaryKey.Equal(*other.PrimaryKey):
		return false
	}
	if len(t.Uniques) != len(other.Uniques) ||
		len(t.ForeignKeys) != len(other.ForeignKeys) ||
		len(t.Indexes) != len(other.Indexes) {
		return false
	}
	for _, u := range t.Uniques {
		if !hasUnique(other, u) {
			return false
		}
	}
	for _, fk := range t.ForeignKeys {
		if !hasForeignKey(other, fk) {
			return false
		}
	}
	for _, idx := range t.Indexes {
		if !hasIndex(other, idx) {
			return false
		}
	}
	return true
}

func hasUnique(t *Table, u UniqueConstraint) bool {
	for _, other := range t.Uniques {
		if equalStringSets(u.Columns, other.Columns) {
			return true
		}
	}
	return false
}

func hasForeignKey(t *Table, fk ForeignKey) bool {
	for _, other := range t.ForeignKeys {
		if fk.Equal(other) {
			return true
		}
	}
	return false
}

func hasIndex(t *Table, idx Index) bool {
	for _, other := range t.Indexes {
		if idx.Equal(other) {
			return true
		}
	}
	return false
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalStringSets(a, b []string) bool {
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

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
