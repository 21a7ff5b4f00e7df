package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCascadeRules_CaseOwnership(t *testing.T) {
	tests := []struct {
		child       Entity
		behavior    DeleteBehavior
		cardinality Cardinality
	}{
		{CaseAction, Cascade, OneToMany},
		{Report, Cascade, OneToMany},
		{Evidence, Cascade, OneToMany},
		{CaseNote, Cascade, OneToMany},
		{CasePerson, Cascade, OneToMany},
		{Assignment, Cascade, OneToMany},
		{CaseTag, RemoveAssociation, ManyToMany},
	}
	for _, tt := range tests {
		t.Run(string(tt.child), func(t *testing.T) {
			rule, ok := Rule(Case, tt.child)
			require.True(t, ok)
			assert.Equal(t, tt.behavior, rule.OnDelete)
			assert.Equal(t, tt.cardinality, rule.Cardinality)
			assert.Equal(t, "case_id", rule.ForeignKey)
		})
	}
}

func TestCascadeRules_Peripheral(t *testing.T) {
	rule, ok := Rule(Department, User)
	require.True(t, ok)
	assert.Equal(t, SetNull, rule.OnDelete)

	rule, ok = Rule(Booking, Release)
	require.True(t, ok)
	assert.Equal(t, OneToOne, rule.Cardinality)
	assert.Equal(t, Cascade, rule.OnDelete)

	rule, ok = Rule(Location, Property)
	require.True(t, ok)
	assert.Equal(t, Cascade, rule.OnDelete)

	_, ok = Rule(Case, Person)
	assert.False(t, ok, "persons are never owned by a case")
}

func TestDependents(t *testing.T) {
	assert.Len(t, Dependents(Case), 7)
	assert.Len(t, Dependents(Booking), 2)
	assert.Empty(t, Dependents(Evidence))

	// every child appears at most once per parent
	for _, parent := range []Entity{Case, Booking, Location, Department, Tag, Person, User} {
		seen := map[Entity]bool{}
		for _, r := range Dependents(parent) {
			assert.False(t, seen[r.Child], "%s -> %s declared twice", parent, r.Child)
			seen[r.Child] = true
		}
	}
}

func TestRestricted(t *testing.T) {
	rules := Restricted(Tag)
	require.Len(t, rules, 1)
	assert.Equal(t, CaseTag, rules[0].Child)

	rules = Restricted(Person)
	require.Len(t, rules, 1)
	assert.Equal(t, Booking, rules[0].Child)

	assert.Empty(t, Restricted(Case))
}

func TestDeleteBehaviorString(t *testing.T) {
	assert.Equal(t, "cascade", Cascade.String())
	assert.Equal(t, "set_null", SetNull.String())
	assert.Equal(t, "remove_association", RemoveAssociation.String())
	assert.Equal(t, "restrict", Restrict.String())
	assert.Equal(t, "unknown", DeleteBehavior(42).String())
}

func TestDeleteBehaviorSQL(t *testing.T) {
	assert.Equal(t, "CASCADE", Cascade.SQL())
	assert.Equal(t, "CASCADE", RemoveAssociation.SQL())
	assert.Equal(t, "SET NULL", SetNull.SQL())
	assert.Equal(t, "RESTRICT", Restrict.SQL())
	assert.Empty(t, DeleteBehavior(42).SQL())
}
