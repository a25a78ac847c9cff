package ddl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemadiff/diff"
	"github.com/tordrt/schemadiff/schema"
)

func TestNew(t *testing.T) {
	for _, d := range []Dialect{SQLite, Postgres, MySQL} {
		gen, err := New(d)
		require.NoError(t, err)
		assert.Equal(t, d, gen.Dialect())
	}

	_, err := New("oracle")
	require.Error(t, err)
}

func TestRenderAllConcatenatesInOrder(t *testing.T) {
	ops := []diff.Operation{
		&diff.AddColumn{Table: "users", Column: schema.Column{
			Name: "age", Type: schema.ColumnType{Kind: schema.TypeInteger}, Nullable: true,
		}},
		&diff.CreateIndex{Table: "users", Index: schema.Index{Name: "ix_users_age", Columns: []string{"age"}}},
	}

	stmts, err := RenderAll(Postgres, ops)
	require.NoError(t, err)
	assert.Equal(t, []string{
		`ALTER TABLE "users" ADD COLUMN "age" INTEGER`,
		`CREATE INDEX "ix_users_age" ON "users" ("age")`,
	}, stmts)
}

func TestRenderRollbackReversesAndInverts(t *testing.T) {
	ops := []diff.Operation{
		&diff.AddColumn{Table: "users", Column: schema.Column{
			Name: "age", Type: schema.ColumnType{Kind: schema.TypeInteger}, Nullable: true,
		}},
		&diff.CreateIndex{Table: "users", Index: schema.Index{Name: "ix_users_age", Columns: []string{"age"}}},
	}

	stmts, err := RenderRollback(Postgres, ops)
	require.NoError(t, err)
	assert.Equal(t, []string{
		`DROP INDEX IF EXISTS "ix_users_age"`,
		`ALTER TABLE "users" DROP COLUMN "age"`,
	}, stmts)
}

func TestRenderRollbackFailsOnNonInvertibleOperation(t *testing.T) {
	ops := []diff.Operation{
		&diff.DropTable{Name: "users"}, // definition not retained
	}
	var nie *diff.NotInvertibleError
	_, err := RenderRollback(Postgres, ops)
	require.ErrorAs(t, err, &nie)
}

func TestUnsupportedMigrationErrorMessage(t *testing.T) {
	err := &UnsupportedMigrationError{
		Dialect:    SQLite,
		Table:      "users",
		Column:     "age",
		Constraint: "uk_users_age",
		Op:         "AlterColumn",
		Reason:     "needs a table rebuild",
	}
	msg := err.Error()
	assert.Contains(t, msg, "sqlite")
	assert.Contains(t, msg, "AlterColumn")
	assert.Contains(t, msg, `"users"`)
	assert.Contains(t, msg, `"age"`)
	assert.Contains(t, msg, `"uk_users_age"`)
}
