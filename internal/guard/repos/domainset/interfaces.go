package domainset

import "github.com/haukened/popguard/internal/guard/domain"

// Filter is the minimal probabilistic membership test the set needs.
// MightContain must never report false for a key that was added.
type Filter interface {
	Add(key []byte)
	MightContain(key []byte) bool
}

// FilterFactory sizes a Filter for capacity keys at the target false-positive rate.
type FilterFactory interface {
	New(capacity uint64, fpRate float64) Filter
}

// Set answers apex-inclusive suffix membership for a fixed list of entries.
type Set interface {
	// Match returns the most specific entry that host equals or is a subdomain of.
	Match(host string) (domain.DomainEntry, bool)
	Len() int
}
