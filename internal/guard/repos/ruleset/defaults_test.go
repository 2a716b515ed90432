package ruleset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefault_Counts(t *testing.T) {
	trusted, blocked, patterns := Default().Counts()
	assert.Equal(t, 20, trusted)
	assert.Equal(t, 25, blocked)
	assert.Equal(t, 8, patterns)
}

func TestDefault_DisjointAndFresh(t *testing.T) {
	rs := Default()
	trusted := make(map[string]bool)
	for _, e := range rs.Trusted {
		trusted[e.Name] = true
		assert.Equal(t, BuiltinSource, e.Source)
	}
	for _, e := range rs.Blocked {
		assert.False(t, trusted[e.Name], "%s is in both built-in sets", e.Name)
	}

	rs.Trusted[0].Name = "mutated.example"
	assert.NotEqual(t, "mutated.example", Default().Trusted[0].Name)
}
