package naming

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstraint(t *testing.T) {
	assert.Equal(t, "pk_users_id", Constraint(PrimaryKey, "users", []string{"id"}))
	assert.Equal(t, "uk_orders_user_id_state", Constraint(Unique, "orders", []string{"user_id", "state"}))
	assert.Equal(t, "fk_orders_user_id", Constraint(ForeignKey, "orders", []string{"user_id"}))
	assert.Equal(t, "ix_orders_state", Constraint(Index, "orders", []string{"state"}))
}

func TestConstraintIsOrderSensitive(t *testing.T) {
	a := Constraint(Unique, "t", []string{"a", "b"})
	b := Constraint(Unique, "t", []string{"b", "a"})
	assert.NotEqual(t, a, b)
}

func TestConstraintAvoiding(t *testing.T) {
	taken := map[string]bool{}
	name := ConstraintAvoiding(Unique, "orders", []string{"a"}, taken)
	assert.Equal(t, "uk_orders_a", name)

	// The canonical name is claimed, so a deterministic suffix is appended.
	taken[name] = true
	withToken := ConstraintAvoiding(Unique, "orders", []string{"a"}, taken)
	assert.True(t, strings.HasPrefix(withToken, "uk_orders_a_"))
	assert.NotEqual(t, name, withToken)

	// Same inputs, same output: no randomness.
	again := ConstraintAvoiding(Unique, "orders", []string{"a"}, taken)
	assert.Equal(t, withToken, again)
}

func TestConstraintAvoidingOverlappingColumnSets(t *testing.T) {
	// uk_orders_a over (a) and uk_orders_a_b over (a, b) must not collide
	// even though the first name is a prefix of the second.
	taken := map[string]bool{}
	one := ConstraintAvoiding(Unique, "orders", []string{"a"}, taken)
	taken[one] = true
	two := ConstraintAvoiding(Unique, "orders", []string{"a", "b"}, taken)
	assert.Equal(t, "uk_orders_a", one)
	assert.Equal(t, "uk_orders_a_b", two)

	// When the composite name is itself claimed, the suffix derives from the
	// full column list, keeping the two apart.
	taken[two] = true
	three := ConstraintAvoiding(Unique, "orders", []string{"a", "b"}, taken)
	assert.NotEqual(t, two, three)
	assert.True(t, strings.HasPrefix(three, "uk_orders_a_b_"))
}

func TestShadowTable(t *testing.T) {
	name := ShadowTable("users", "drop_pk")
	assert.True(t, strings.HasPrefix(name, "_users_shadow_"))

	// Deterministic per table+tag, distinct across tags.
	assert.Equal(t, name, ShadowTable("users", "drop_pk"))
	assert.NotEqual(t, name, ShadowTable("users", "add_fk_user_id"))
	assert.NotEqual(t, name, ShadowTable("orders", "drop_pk"))
}

func TestShadowTableSanitizesIdentifier(t *testing.T) {
	name := ShadowTable(`odd "table"`, "tag")
	assert.NotContains(t, name, `"`)
	assert.NotContains(t, name, " ")
	assert.True(t, strings.HasPrefix(name, "_odd__table__shadow_"))
}
