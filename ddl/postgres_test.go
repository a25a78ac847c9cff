package ddl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemadiff/diff"
	"github.com/tordrt/schemadiff/schema"
)

func TestPostgresCreateTable(t *testing.T) {
	def := "now()"
	table := &schema.Table{
		Name: "accounts",
		Columns: []schema.Column{
			{Name: "id", Type: schema.ColumnType{Kind: schema.TypeBigInt}},
			{Name: "email", Type: schema.ColumnType{Kind: schema.TypeVarchar, Length: 255}},
			{Name: "created_at", Type: schema.ColumnType{Kind: schema.TypeTimestamp}, Default: &def},
		},
		PrimaryKey: &schema.PrimaryKey{Name: "pk_accounts_id", Columns: []string{"id"}},
		Uniques: []schema.UniqueConstraint{
			{Name: "uk_accounts_email", Columns: []string{"email"}},
		},
		Indexes: []schema.Index{
			{Name: "ix_accounts_created_at", Columns: []string{"created_at"}},
		},
	}

	stmts, err := Render(Postgres, &diff.CreateTable{Table: table})
	require.NoError(t, err)
	require.Len(t, stmts, 2)

	create := stmts[0]
	assert.True(t, strings.HasPrefix(create, `CREATE TABLE IF NOT EXISTS "accounts" (`))
	assert.Contains(t, create, `"id" BIGINT NOT NULL`)
	assert.Contains(t, create, `"email" VARCHAR(255) NOT NULL`)
	assert.Contains(t, create, `"created_at" TIMESTAMP NOT NULL DEFAULT now()`)
	assert.Contains(t, create, `CONSTRAINT "pk_accounts_id" PRIMARY KEY ("id")`)
	assert.Contains(t, create, `CONSTRAINT "uk_accounts_email" UNIQUE ("email")`)
	assert.Equal(t, `CREATE INDEX "ix_accounts_created_at" ON "accounts" ("created_at")`, stmts[1])
}

func TestPostgresColumnOperations(t *testing.T) {
	tests := []struct {
		name string
		op   diff.Operation
		want []string
	}{
		{
			name: "add column",
			op: &diff.AddColumn{Table: "accounts", Column: schema.Column{
				Name: "note", Type: schema.ColumnType{Kind: schema.TypeText}, Nullable: true,
			}},
			want: []string{`ALTER TABLE "accounts" ADD COLUMN "note" TEXT`},
		},
		{
			name: "drop column",
			op:   &diff.DropColumn{Table: "accounts", Column: schema.Column{Name: "note"}},
			want: []string{`ALTER TABLE "accounts" DROP COLUMN "note"`},
		},
		{
			name: "rename column",
			op:   &diff.RenameColumn{Table: "accounts", From: "note", To: "comment"},
			want: []string{`ALTER TABLE "accounts" RENAME COLUMN "note" TO "comment"`},
		},
		{
			name: "rename table",
			op:   &diff.RenameTable{From: "accounts", To: "users"},
			want: []string{`ALTER TABLE "accounts" RENAME TO "users"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmts, err := Render(Postgres, tt.op)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stmts)
		})
	}
}

func TestPostgresAlterColumnSplitsPerProperty(t *testing.T) {
	def := "''"
	op := &diff.AlterColumn{
		Table: "accounts",
		From:  schema.Column{Name: "email", Type: schema.ColumnType{Kind: schema.TypeText}, Nullable: true},
		To:    schema.Column{Name: "email", Type: schema.ColumnType{Kind: schema.TypeVarchar, Length: 255}, Default: &def},
	}

	stmts, err := Render(Postgres, op)
	require.NoError(t, err)
	assert.Equal(t, []string{
		`ALTER TABLE "accounts" ALTER COLUMN "email" TYPE VARCHAR(255) USING "email"::VARCHAR(255)`,
		`ALTER TABLE "accounts" ALTER COLUMN "email" SET NOT NULL`,
		`ALTER TABLE "accounts" ALTER COLUMN "email" SET DEFAULT ''`,
	}, stmts)
}

func TestPostgresAlterColumnDropsProperties(t *testing.T) {
	def := "0"
	op := &diff.AlterColumn{
		Table: "accounts",
		From:  schema.Column{Name: "age", Type: schema.ColumnType{Kind: schema.TypeInteger}, Default: &def},
		To:    schema.Column{Name: "age", Type: schema.ColumnType{Kind: schema.TypeInteger}, Nullable: true},
	}

	stmts, err := Render(Postgres, op)
	require.NoError(t, err)
	assert.Equal(t, []string{
		`ALTER TABLE "accounts" ALTER COLUMN "age" DROP NOT NULL`,
		`ALTER TABLE "accounts" ALTER COLUMN "age" DROP DEFAULT`,
	}, stmts)
}

func TestPostgresConstraintOperations(t *testing.T) {
	tests := []struct {
		name string
		op   diff.Operation
		want []string
	}{
		{
			name: "add primary key",
			op: &diff.AddPrimaryKey{Table: "accounts", PrimaryKey: schema.PrimaryKey{
				Name: "pk_accounts_id", Columns: []string{"id"},
			}},
			want: []string{`ALTER TABLE "accounts" ADD CONSTRAINT "pk_accounts_id" PRIMARY KEY ("id")`},
		},
		{
			name: "add primary key synthesizes missing name",
			op: &diff.AddPrimaryKey{Table: "accounts", PrimaryKey: schema.PrimaryKey{
				Columns: []string{"id"},
			}},
			want: []string{`ALTER TABLE "accounts" ADD CONSTRAINT "pk_accounts_id" PRIMARY KEY ("id")`},
		},
		{
			name: "drop primary key",
			op: &diff.DropPrimaryKey{Table: "accounts", PrimaryKey: schema.PrimaryKey{
				Name: "pk_accounts_id", Columns: []string{"id"},
			}},
			want: []string{`ALTER TABLE "accounts" DROP CONSTRAINT "pk_accounts_id"`},
		},
		{
			name: "drop primary key falls back to default name",
			op:   &diff.DropPrimaryKey{Table: "accounts", PrimaryKey: schema.PrimaryKey{Columns: []string{"id"}}},
			want: []string{`ALTER TABLE "accounts" DROP CONSTRAINT "accounts_pkey"`},
		},
		{
			name: "add unique",
			op: &diff.AddUnique{Table: "accounts", Constraint: schema.UniqueConstraint{
				Name: "uk_accounts_email", Columns: []string{"email"},
			}},
			want: []string{`ALTER TABLE "accounts" ADD CONSTRAINT "uk_accounts_email" UNIQUE ("email")`},
		},
		{
			name: "add unique synthesizes missing name",
			op: &diff.AddUnique{Table: "accounts", Constraint: schema.UniqueConstraint{
				Columns: []string{"email"},
			}},
			want: []string{`ALTER TABLE "accounts" ADD CONSTRAINT "uk_accounts_email" UNIQUE ("email")`},
		},
		{
			name: "drop unique",
			op: &diff.DropUnique{Table: "accounts", Constraint: schema.UniqueConstraint{
				Name: "uk_accounts_email", Columns: []string{"email"},
			}},
			want: []string{`ALTER TABLE "accounts" DROP CONSTRAINT "uk_accounts_email"`},
		},
		{
			name: "add foreign key",
			op: &diff.AddForeignKey{Table: "orders", ForeignKey: schema.ForeignKey{
				Name: "fk_orders_account_id", Columns: []string{"account_id"},
				RefTable: "accounts", RefColumns: []string{"id"},
				OnDelete: schema.ActionCascade, OnUpdate: schema.ActionRestrict,
			}},
			want: []string{`ALTER TABLE "orders" ADD CONSTRAINT "fk_orders_account_id" FOREIGN KEY ("account_id") REFERENCES "accounts" ("id") ON DELETE CASCADE ON UPDATE RESTRICT`},
		},
		{
			name: "drop foreign key",
			op: &diff.DropForeignKey{Table: "orders", ForeignKey: schema.ForeignKey{
				Name: "fk_orders_account_id", Columns: []string{"account_id"}, RefTable: "accounts", RefColumns: []string{"id"},
			}},
			want: []string{`ALTER TABLE "orders" DROP CONSTRAINT "fk_orders_account_id"`},
		},
		{
			name: "drop index",
			op:   &diff.DropIndex{Table: "accounts", Index: schema.Index{Name: "ix_accounts_email", Columns: []string{"email"}}},
			want: []string{`DROP INDEX IF EXISTS "ix_accounts_email"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmts, err := Render(Postgres, tt.op)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stmts)
		})
	}
}

func TestPostgresConstraintBackedIndexRejected(t *testing.T) {
	op := &diff.CreateIndex{Table: "accounts", Index: schema.Index{
		Name: "accounts_pkey", Columns: []string{"id"}, Unique: true, Backing: schema.BackingPrimaryKey,
	}}
	var ume *UnsupportedMigrationError
	_, err := Render(Postgres, op)
	require.ErrorAs(t, err, &ume)
	assert.Equal(t, Postgres, ume.Dialect)
	assert.Contains(t, ume.Reason, "primary key")
}
