// Package domainset holds immutable Trusted/Blocked domain sets. Lookups walk
// the host's label anchors most-specific to apex; a Bloom prefilter lets most
// misses return without touching the map.
package domainset

import (
	"github.com/haukened/popguard/internal/guard/common/utils"
	"github.com/haukened/popguard/internal/guard/domain"
)

type set struct {
	entries map[string]domain.DomainEntry
	filter  Filter
}

// New builds a Set from entries. factory may be nil to skip the prefilter.
// Duplicate names keep the first entry.
func New(entries []domain.DomainEntry, factory FilterFactory, fpRate float64) Set {
	s := &set{entries: make(map[string]domain.DomainEntry, len(entries))}
	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		if _, ok := s.entries[e.Name]; ok {
			continue
		}
		s.entries[e.Name] = e
	}
	if factory != nil && len(s.entries) > 0 {
		s.filter = factory.New(uint64(len(s.entries)), fpRate)
		for name := range s.entries {
			s.filter.Add([]byte(name))
		}
	}
	return s
}

func (s *set) Match(host string) (domain.DomainEntry, bool) {
	for _, anchor := range utils.Anchors(host) {
		if s.filter != nil && !s.filter.MightContain([]byte(anchor)) {
			continue
		}
		if e, ok := s.entries[anchor]; ok {
			return e, true
		}
	}
	return domain.DomainEntry{}, false
}

func (s *set) Len() int { return len(s.entries) }

var _ Set = (*set)(nil)
