package utils

import "golang.org/x/net/publicsuffix"

// RegistrableDomain returns the eTLD+1 of name, e.g. "www.example.co.uk" ->
// "example.co.uk". If name is itself a public suffix or cannot be parsed, the
// canonical name is returned.
func RegistrableDomain(name string) string {
	name = CanonicalHost(name)
	apex, err := publicsuffix.EffectiveTLDPlusOne(name)
	if err != nil {
		return name
	}
	return apex
}

// IsRegistrable reports whether name is at or below a registrable domain,
// i.e. it is not a bare public suffix such as "com" or "co.uk".
func IsRegistrable(name string) bool {
	name = CanonicalHost(name)
	if name == "" {
		return false
	}
	_, err := publicsuffix.EffectiveTLDPlusOne(name)
	return err == nil
}
