package bloom

import (
	bitsbloom "github.com/bits-and-blooms/bloom/v3"

	"github.com/haukened/popguard/internal/guard/repos/domainset"
)

// factory implements domainset.FilterFactory using internal sizing formulas.
type factory struct{}

// NewFactory returns a FilterFactory that sizes filters from capacity and FP rate.
func NewFactory() domainset.FilterFactory { return factory{} }

// New constructs a filter sized for the given capacity and target false-positive rate.
func (factory) New(capacity uint64, fpRate float64) domainset.Filter {
	m, k := Size(capacity, fpRate)
	return &filter{bf: bitsbloom.New(uint(m), uint(k))}
}
