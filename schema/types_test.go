package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		raw  string
		want ColumnType
	}{
		{"INTEGER", ColumnType{Kind: TypeInteger}},
		{"int", ColumnType{Kind: TypeInteger}},
		{"int4", ColumnType{Kind: TypeInteger}},
		{"BIGINT", ColumnType{Kind: TypeBigInt}},
		{"tinyint(1)", ColumnType{Kind: TypeBoolean}},
		{"tinyint(4)", ColumnType{Kind: TypeSmallInt}},
		{"varchar(255)", ColumnType{Kind: TypeVarchar, Length: 255}},
		{"character varying(80)", ColumnType{Kind: TypeVarchar, Length: 80}},
		{"character varying", ColumnType{Kind: TypeText}},
		{"TEXT", ColumnType{Kind: TypeText}},
		{"longtext", ColumnType{Kind: TypeText}},
		{"double precision", ColumnType{Kind: TypeReal}},
		{"numeric", ColumnType{Kind: TypeDecimal}},
		{"bool", ColumnType{Kind: TypeBoolean}},
		{"bytea", ColumnType{Kind: TypeBlob}},
		{"timestamp without time zone", ColumnType{Kind: TypeTimestamp}},
		{"datetime", ColumnType{Kind: TypeTimestamp}},
		{"jsonb", ColumnType{Kind: TypeJSON}},
		{"geometry", ColumnType{Raw: "geometry"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseType(tt.raw))
		})
	}
}

func TestColumnTypeEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b ColumnType
		want bool
	}{
		{
			name: "same kind",
			a:    ColumnType{Kind: TypeInteger},
			b:    ColumnType{Kind: TypeInteger},
			want: true,
		},
		{
			name: "different kind",
			a:    ColumnType{Kind: TypeInteger},
			b:    ColumnType{Kind: TypeText},
			want: false,
		},
		{
			name: "same kind different length",
			a:    ColumnType{Kind: TypeVarchar, Length: 40},
			b:    ColumnType{Kind: TypeVarchar, Length: 80},
			want: false,
		},
		{
			name: "raw spellings compare case-insensitively",
			a:    ColumnType{Raw: "GEOMETRY"},
			b:    ColumnType{Raw: "geometry"},
			want: true,
		},
		{
			name: "kinds win when both sides have them",
			a:    ColumnType{Kind: TypeInteger, Raw: "INTEGER"},
			b:    ColumnType{Kind: TypeInteger, Raw: "INT"},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
		})
	}
}

func TestColumnEqualIgnoresPosition(t *testing.T) {
	a := Column{Name: "id", Type: ColumnType{Kind: TypeInteger}, Position: 0}
	b := Column{Name: "id", Type: ColumnType{Kind: TypeInteger}, Position: 3}
	assert.True(t, a.Equal(b))

	def := "0"
	b.Default = &def
	assert.False(t, a.Equal(b))
}

func testTable() *Table {
	def := "1"
	return &Table{
		Name: "orders",
		Columns: []Column{
			{Name: "id", Type: ColumnType{Kind: TypeInteger}},
			{Name: "user_id", Type: ColumnType{Kind: TypeInteger}},
			{Name: "state", Type: ColumnType{Kind: TypeText}, Nullable: true, Default: &def},
		},
		PrimaryKey: &PrimaryKey{Name: "pk_orders_id", Columns: []string{"id"}},
		Uniques: []UniqueConstraint{
			{Name: "uk_orders_user_id_state", Columns: []string{"user_id", "state"}},
		},
		ForeignKeys: []ForeignKey{
			{Name: "fk_orders_user_id", Columns: []string{"user_id"}, RefTable: "users", RefColumns: []string{"id"}, OnDelete: ActionCascade},
		},
		Indexes: []Index{
			{Name: "ix_orders_state", Columns: []string{"state"}},
		},
	}
}

func TestTableCloneIsDeep(t *testing.T) {
	orig := testTable()
	clone := orig.Clone()
	require.True(t, orig.Equal(clone))

	clone.Columns[0].Name = "order_id"
	*clone.Columns[2].Default = "2"
	clone.PrimaryKey.Columns[0] = "order_id"
	clone.Uniques[0].Columns[0] = "changed"
	clone.ForeignKeys[0].RefColumns[0] = "changed"
	clone.Indexes[0].Columns[0] = "changed"

	assert.Equal(t, "id", orig.Columns[0].Name)
	assert.Equal(t, "1", *orig.Columns[2].Default)
	assert.Equal(t, "id", orig.PrimaryKey.Columns[0])
	assert.Equal(t, "user_id", orig.Uniques[0].Columns[0])
	assert.Equal(t, "id", orig.ForeignKeys[0].RefColumns[0])
	assert.Equal(t, "state", orig.Indexes[0].Columns[0])
}

func TestTableEqual(t *testing.T) {
	a := testTable()
	b := testTable()
	assert.True(t, a.Equal(b))

	// Column order does not matter.
	b.Columns[0], b.Columns[1] = b.Columns[1], b.Columns[0]
	assert.True(t, a.Equal(b))

	// Constraint names do not matter, structure does.
	b = testTable()
	b.Uniques[0].Name = "something_else"
	assert.True(t, a.Equal(b))

	b = testTable()
	b.PrimaryKey = &PrimaryKey{Columns: []string{"user_id"}}
	assert.False(t, a.Equal(b))

	b = testTable()
	b.ForeignKeys[0].OnDelete = ActionSetNull
	assert.False(t, a.Equal(b))

	b = testTable()
	b.Indexes = nil
	assert.False(t, a.Equal(b))

	var nilTable *Table
	assert.False(t, a.Equal(nilTable))
	assert.True(t, nilTable.Equal(nil))
}

func TestForeignKeyEqualNormalizesActions(t *testing.T) {
	a := ForeignKey{Columns: []string{"x"}, RefTable: "t", RefColumns: []string{"id"}}
	b := ForeignKey{Columns: []string{"x"}, RefTable: "t", RefColumns: []string{"id"}, OnDelete: ActionNoAction, OnUpdate: "no action"}
	assert.True(t, a.Equal(b))
}

func TestPrimaryKeyEqualIsOrderSensitive(t *testing.T) {
	a := PrimaryKey{Columns: []string{"a", "b"}}
	b := PrimaryKey{Columns: []string{"b", "a"}}
	assert.False(t, a.Equal(b))
}

func TestValidate(t *testing.T) {
	t.Run("valid table", func(t *testing.T) {
		assert.NoError(t, testTable().Validate())
	})

	t.Run("duplicate column", func(t *testing.T) {
		tbl := testTable()
		tbl.Columns = append(tbl.Columns, Column{Name: "id", Type: ColumnType{Kind: TypeInteger}})
		var verr *ValidationError
		require.ErrorAs(t, tbl.Validate(), &verr)
		assert.Equal(t, "orders", verr.Table)
		assert.Equal(t, "id", verr.Column)
	})

	t.Run("primary key over missing column", func(t *testing.T) {
		tbl := testTable()
		tbl.PrimaryKey = &PrimaryKey{Columns: []string{"missing"}}
		var verr *ValidationError
		require.ErrorAs(t, tbl.Validate(), &verr)
		assert.Equal(t, "missing", verr.Column)
	})

	t.Run("foreign key column count mismatch", func(t *testing.T) {
		tbl := testTable()
		tbl.ForeignKeys[0].RefColumns = []string{"id", "extra"}
		var verr *ValidationError
		require.ErrorAs(t, tbl.Validate(), &verr)
		assert.Equal(t, "fk_orders_user_id", verr.Constraint)
	})

	t.Run("constraint-backed index in index list", func(t *testing.T) {
		tbl := testTable()
		tbl.Indexes = append(tbl.Indexes, Index{Name: "bad", Columns: []string{"id"}, Unique: true, Backing: BackingUnique})
		var verr *ValidationError
		require.ErrorAs(t, tbl.Validate(), &verr)
		assert.Equal(t, "bad", verr.Constraint)
	})
}
