package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDomainEntry_Normalises(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"PopAds.net", "popads.net"},
		{"*.exoclick.com", "exoclick.com"},
		{".taboola.com.", "taboola.com"},
		{"  cdn.mgid.com  ", "cdn.mgid.com"},
	}
	for _, tt := range tests {
		e, err := NewDomainEntry(tt.raw, "test")
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, e.Name)
		assert.Equal(t, "test", e.Source)
	}
}

func TestNewDomainEntry_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		source string
	}{
		{"empty", "", "test"},
		{"missing source", "example.com", " "},
		{"single label", "localhost", "test"},
		{"public suffix", "co.uk", "test"},
		{"tld only", "com", "test"},
		{"empty label", "bad..example.com", "test"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDomainEntry(tt.raw, tt.source)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidDomainEntry))
		})
	}
}

func TestMustDomainEntry_Panics(t *testing.T) {
	assert.Panics(t, func() { MustDomainEntry("com", "test") })
	assert.NotPanics(t, func() { MustDomainEntry("example.com", "test") })
}

func TestDomainEntry_Matches(t *testing.T) {
	e := MustDomainEntry("example.com", "test")
	assert.True(t, e.Matches("example.com"))
	assert.True(t, e.Matches("WWW.Example.com."))
	assert.True(t, e.Matches("a.b.example.com"))
	assert.False(t, e.Matches("notexample.com"))
	assert.False(t, e.Matches("example.com.evil.net"))
	assert.False(t, e.Matches(""))
	assert.False(t, DomainEntry{}.Matches("example.com"))
}
