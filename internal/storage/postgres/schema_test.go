package postgres

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcms/internal/graph"
)

var (
	tablePattern = regexp.MustCompile(`(?s)CREATE TABLE IF NOT EXISTS (\w+) \((.*?)\n\);`)
	fkPattern    = regexp.MustCompile(`(?m)^\s*(\w+) UUID[^,\n]*REFERENCES (\w+) \(id\) ON DELETE (CASCADE|SET NULL|RESTRICT)`)
)

type foreignKey struct {
	parent string
	action string
}

func schemaForeignKeys(t *testing.T) map[string]foreignKey {
	t.Helper()
	out := make(map[string]foreignKey)
	tables := tablePattern.FindAllStringSubmatch(Schema(), -1)
	require.NotEmpty(t, tables)
	for _, table := range tables {
		for _, fk := range fkPattern.FindAllStringSubmatch(table[2], -1) {
			out[table[1]+"."+fk[1]] = foreignKey{parent: fk[2], action: fk[3]}
		}
	}
	return out
}

// The schema must enforce the same delete rules the entity graph declares.
func TestSchemaMatchesEntityGraph(t *testing.T) {
	fks := schemaForeignKeys(t)
	rules := append(append([]graph.Relation{}, graph.CascadeRules...), graph.ReferenceRules...)

	for _, r := range rules {
		key := string(r.Child) + "." + r.ForeignKey
		fk, ok := fks[key]
		if assert.True(t, ok, "missing foreign key %s", key) {
			assert.Equal(t, string(r.Parent), fk.parent, key)
			assert.Equal(t, r.OnDelete.SQL(), fk.action, key)
		}
	}
	assert.Len(t, fks, len(rules), "every foreign key in the schema should have a graph rule")
}

func TestSchemaTablesCoverEntities(t *testing.T) {
	tables := map[string]bool{}
	for _, m := range tablePattern.FindAllStringSubmatch(Schema(), -1) {
		tables[m[1]] = true
	}
	for _, e := range []graph.Entity{
		graph.Case, graph.CaseAction, graph.Report, graph.Evidence, graph.CaseNote,
		graph.CasePerson, graph.Assignment, graph.CaseTag, graph.Tag, graph.Person,
		graph.User, graph.Department, graph.Location, graph.Property, graph.Booking,
		graph.Charge, graph.Release, graph.Vehicle,
	} {
		assert.True(t, tables[string(e)], "no table for %s", e)
	}
	assert.True(t, tables["case_numbers"])
	assert.True(t, tables["outbox"])
}

func TestStatements(t *testing.T) {
	stmts := statements("-- comment\nCREATE TABLE a (\n  id INT\n);\n\nCREATE INDEX i ON a (id);\n")
	require.Len(t, stmts, 2)
	assert.True(t, strings.HasPrefix(stmts[0], "CREATE TABLE a"))
	assert.True(t, strings.HasSuffix(stmts[0], ");"))
	assert.Equal(t, "CREATE INDEX i ON a (id);", stmts[1])

	for _, stmt := range statements(Schema()) {
		assert.Regexp(t, `^CREATE `, stmt)
	}
}
