package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerdict_StringAndParse(t *testing.T) {
	for _, v := range []Verdict{VerdictNeutral, VerdictTrusted, VerdictBlocked, VerdictSuspicious} {
		got, err := ParseVerdict(v.String())
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
	assert.Equal(t, "Verdict(42)", Verdict(42).String())

	_, err := ParseVerdict("maybe")
	assert.Error(t, err)

	got, err := ParseVerdict("  BLOCKED ")
	require.NoError(t, err)
	assert.Equal(t, VerdictBlocked, got)
}

func TestVerdict_Denies(t *testing.T) {
	assert.True(t, VerdictBlocked.Denies())
	assert.True(t, VerdictSuspicious.Denies())
	assert.False(t, VerdictTrusted.Denies())
	assert.False(t, VerdictNeutral.Denies())
	assert.True(t, VerdictNeutral.Allows())
	assert.False(t, VerdictBlocked.Allows())
}
