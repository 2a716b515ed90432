package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/haukened/popguard/internal/guard/common/utils"
)

// ErrInvalidDomainEntry is returned for entries that cannot be matched.
var ErrInvalidDomainEntry = errors.New("invalid domain entry")

// DomainEntry is a registrable (or deeper) domain in the Trusted or Blocked set.
// Matching is apex-inclusive: the entry matches itself and every subdomain.
//
// Notes:
// - Name is canonical: lowercase, no trailing dot, no leading "*." or ".".
// - Source identifies where the entry came from ("builtin", a file path).
type DomainEntry struct {
	Name   string
	Source string
}

// NewDomainEntry normalises name and validates the result.
func NewDomainEntry(name, source string) (DomainEntry, error) {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "*.")
	name = strings.TrimPrefix(name, ".")
	e := DomainEntry{
		Name:   utils.CanonicalHost(name),
		Source: strings.TrimSpace(source),
	}
	if err := e.Validate(); err != nil {
		return DomainEntry{}, err
	}
	return e, nil
}

// MustDomainEntry is NewDomainEntry for static tables; it panics on error.
func MustDomainEntry(name, source string) DomainEntry {
	e, err := NewDomainEntry(name, source)
	if err != nil {
		panic(err)
	}
	return e
}

// Validate checks the entry for required fields and a registrable name.
func (e DomainEntry) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidDomainEntry)
	}
	if e.Source == "" {
		return fmt.Errorf("%w: source must not be empty for %q", ErrInvalidDomainEntry, e.Name)
	}
	if len(e.Name) > 253 {
		return fmt.Errorf("%w: %q exceeds 253 characters", ErrInvalidDomainEntry, e.Name)
	}
	for _, label := range strings.Split(e.Name, ".") {
		if label == "" || len(label) > 63 {
			return fmt.Errorf("%w: %q has an empty or oversized label", ErrInvalidDomainEntry, e.Name)
		}
	}
	if !utils.IsRegistrable(e.Name) {
		return fmt.Errorf("%w: %q is a public suffix or single label", ErrInvalidDomainEntry, e.Name)
	}
	return nil
}

// Matches reports whether host equals the entry or ends with "." + entry.
func (e DomainEntry) Matches(host string) bool {
	host = utils.CanonicalHost(host)
	if host == "" || e.Name == "" {
		return false
	}
	return host == e.Name || strings.HasSuffix(host, "."+e.Name)
}
