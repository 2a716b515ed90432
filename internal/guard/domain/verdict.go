package domain

import (
	"fmt"
	"strings"
)

// Verdict is the classification of a destination URL.
//
// trusted    - host is, or is below, a trusted entry; never blocked
// blocked    - host is, or is below, a blocked entry
// suspicious - URL text matches a pattern rule
// neutral    - none of the above
type Verdict uint8

const (
	// VerdictNeutral is an unknown destination.
	VerdictNeutral Verdict = iota
	// VerdictTrusted overrides every other signal.
	VerdictTrusted
	// VerdictBlocked is a curated ad/popup network.
	VerdictBlocked
	// VerdictSuspicious matched a URL pattern rule.
	VerdictSuspicious
)

// String returns a stable string representation of the verdict.
func (v Verdict) String() string {
	switch v {
	case VerdictNeutral:
		return "neutral"
	case VerdictTrusted:
		return "trusted"
	case VerdictBlocked:
		return "blocked"
	case VerdictSuspicious:
		return "suspicious"
	default:
		return fmt.Sprintf("Verdict(%d)", v)
	}
}

// ParseVerdict converts a string into a Verdict (case-insensitive).
func ParseVerdict(s string) (Verdict, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "neutral":
		return VerdictNeutral, nil
	case "trusted":
		return VerdictTrusted, nil
	case "blocked":
		return VerdictBlocked, nil
	case "suspicious":
		return VerdictSuspicious, nil
	default:
		return 0, fmt.Errorf("unsupported Verdict: %q", s)
	}
}

// Denies reports whether the verdict is a deny outcome (blocked or suspicious).
func (v Verdict) Denies() bool { return v == VerdictBlocked || v == VerdictSuspicious }

// Allows is the complement of Denies.
func (v Verdict) Allows() bool { return !v.Denies() }
